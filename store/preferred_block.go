package store

import "errors"

// ErrAlreadySelected is returned by CreatePreferredBlock when the block is
// already part of the turn's selection. The schema enforces the uniqueness
// with a constraint on (user_message_id, block_id); drivers translate the
// constraint violation into this sentinel.
var ErrAlreadySelected = errors.New("block already selected for this turn")

// PreferredBlock ties a conversation and a turn to one response block the
// user picked, with a selection order that defines replay order. The order
// is independent of both the block's original index and the engine that
// produced it; blocks from different engines interleave freely.
//
// Orders are assigned MAX+1 starting at 1 and are not compacted after a
// deselect: readers must sort by order, never assume contiguity.
type PreferredBlock struct {
	CreatedTs      int64
	ID             int64
	UserMessageID  int64
	BlockID        int64
	ConversationID int32
	SelectionOrder int32
}

type CreatePreferredBlock struct {
	CreatedTs      int64
	UserMessageID  int64
	BlockID        int64
	ConversationID int32
}

type FindPreferredBlock struct {
	ID             *int64
	ConversationID *int32
	UserMessageID  *int64
	BlockID        *int64
}

type DeletePreferredBlock struct {
	UserMessageID int64
	BlockID       int64
}

// SelectedBlock is the joined read-model the context assembler consumes:
// a preferred block together with its content and provenance.
type SelectedBlock struct {
	Type           BlockType
	Content        string
	Metadata       map[string]any
	Engine         string
	Provider       string
	BlockID        int64
	ResponseID     int64
	UserMessageID  int64
	TurnNumber     int32
	SelectionOrder int32
}

type FindSelectedBlock struct {
	ConversationID *int32
	UserMessageID  *int64
}
