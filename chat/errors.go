package chat

import "errors"

var (
	// ErrConversationNotFound is returned when the referenced conversation does not exist.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrUnknownTurn is returned when the referenced turn does not exist in the conversation.
	ErrUnknownTurn = errors.New("turn not found in conversation")

	// ErrUnknownBlock is returned when the referenced block does not exist or does not
	// belong to the turn being curated.
	ErrUnknownBlock = errors.New("block not found for this turn")

	// ErrDuplicateSelection is returned when a block is already selected for its turn.
	ErrDuplicateSelection = errors.New("block already selected for this turn")

	// ErrInvalidSelection is returned when a selection request is structurally invalid,
	// for example a reorder list that is not a permutation of the current selection.
	ErrInvalidSelection = errors.New("invalid selection request")

	// ErrInvalidArgument is returned for malformed lifecycle requests, such as
	// renaming a conversation to an empty title.
	ErrInvalidArgument = errors.New("invalid argument")
)
