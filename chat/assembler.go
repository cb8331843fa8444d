package chat

import (
	"context"
	"fmt"

	"github.com/hrygo/chorus/store"
)

// TurnContext is one turn of assembled context: the user's message plus the
// curated blocks that stand in for the assistant reply. PreferredBlocks is
// never nil; a turn with no selection contributes only its user message.
type TurnContext struct {
	UserMessage     *store.UserMessage
	PreferredBlocks []*store.SelectedBlock
	TurnNumber      int32
}

// Assembler builds cross-turn context from curated selections.
//
// Assembly is read-only: it never mutates selections and reflects exactly
// what the selection manager has persisted at call time. Every engine
// receives the same assembled context, which is what lets a late-joining
// engine pick up a conversation it never saw.
type Assembler struct {
	store *store.Store
}

// NewAssembler creates a new Assembler.
func NewAssembler(st *store.Store) *Assembler {
	return &Assembler{store: st}
}

// GetConversationContext returns the full curated history of a conversation,
// ordered by turn number, with each turn's selection in selection order.
func (a *Assembler) GetConversationContext(ctx context.Context, conversationID int32) ([]*TurnContext, error) {
	conversation, err := a.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	messages, err := a.store.ListUserMessages(ctx, &store.FindUserMessage{ConversationID: &conversationID})
	if err != nil {
		return nil, fmt.Errorf("list user messages: %w", err)
	}

	selected, err := a.store.ListSelectedBlocks(ctx, &store.FindSelectedBlock{ConversationID: &conversationID})
	if err != nil {
		return nil, fmt.Errorf("list selected blocks: %w", err)
	}
	byMessage := make(map[int64][]*store.SelectedBlock, len(messages))
	for _, block := range selected {
		byMessage[block.UserMessageID] = append(byMessage[block.UserMessageID], block)
	}

	turns := make([]*TurnContext, 0, len(messages))
	for _, message := range messages {
		blocks := byMessage[message.ID]
		if blocks == nil {
			blocks = []*store.SelectedBlock{}
		}
		turns = append(turns, &TurnContext{
			TurnNumber:      message.TurnNumber,
			UserMessage:     message,
			PreferredBlocks: blocks,
		})
	}
	return turns, nil
}

// GetTurnContext returns a single turn's assembled context.
func (a *Assembler) GetTurnContext(ctx context.Context, conversationID int32, turnNumber int32) (*TurnContext, error) {
	conversation, err := a.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	messages, err := a.store.ListUserMessages(ctx, &store.FindUserMessage{
		ConversationID: &conversationID,
		TurnNumber:     &turnNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("list user messages: %w", err)
	}
	if len(messages) == 0 {
		return nil, ErrUnknownTurn
	}
	message := messages[0]

	blocks, err := a.store.ListSelectedBlocks(ctx, &store.FindSelectedBlock{UserMessageID: &message.ID})
	if err != nil {
		return nil, fmt.Errorf("list selected blocks: %w", err)
	}
	if blocks == nil {
		blocks = []*store.SelectedBlock{}
	}
	return &TurnContext{
		TurnNumber:      turnNumber,
		UserMessage:     message,
		PreferredBlocks: blocks,
	}, nil
}
