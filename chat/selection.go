package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/chorus/store"
)

// SelectionManager curates which response blocks represent each turn.
//
// A selection is an ordered subset of all blocks produced for one turn,
// drawn freely across engines. Ordering is per turn and user-controlled;
// it has no relation to block indexes or engine identity.
type SelectionManager struct {
	store *store.Store
}

// NewSelectionManager creates a new SelectionManager.
func NewSelectionManager(st *store.Store) *SelectionManager {
	return &SelectionManager{store: st}
}

// SelectBlock appends a block to its turn's selection.
//
// The block must belong to a response of the given turn, and the turn to the
// given conversation; anything else is ErrUnknownTurn or ErrUnknownBlock.
// Selecting an already selected block returns ErrDuplicateSelection and
// leaves the selection unchanged. The new block always goes to the end of
// the order.
func (m *SelectionManager) SelectBlock(ctx context.Context, conversationID int32, userMessageID, blockID int64) (*store.PreferredBlock, error) {
	if err := m.validateBlockOwnership(ctx, conversationID, userMessageID, blockID); err != nil {
		selectionOpCounter.WithLabelValues("select", "rejected").Inc()
		return nil, err
	}

	preferred, err := m.store.CreatePreferredBlock(ctx, &store.CreatePreferredBlock{
		ConversationID: conversationID,
		UserMessageID:  userMessageID,
		BlockID:        blockID,
		CreatedTs:      time.Now().Unix(),
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadySelected) {
			selectionOpCounter.WithLabelValues("select", "duplicate").Inc()
			return nil, ErrDuplicateSelection
		}
		return nil, fmt.Errorf("create preferred block: %w", err)
	}
	selectionOpCounter.WithLabelValues("select", "ok").Inc()

	slog.Debug("selected block",
		"conversation_id", conversationID,
		"message_id", userMessageID,
		"block_id", blockID,
		"selection_order", preferred.SelectionOrder,
	)
	return preferred, nil
}

// DeselectBlock removes a block from its turn's selection.
//
// Removing a block that is not selected is a no-op, but the block must still
// belong to the turn; remaining selections keep their relative order.
func (m *SelectionManager) DeselectBlock(ctx context.Context, conversationID int32, userMessageID, blockID int64) error {
	if err := m.validateBlockOwnership(ctx, conversationID, userMessageID, blockID); err != nil {
		selectionOpCounter.WithLabelValues("deselect", "rejected").Inc()
		return err
	}

	if err := m.store.DeletePreferredBlock(ctx, &store.DeletePreferredBlock{
		UserMessageID: userMessageID,
		BlockID:       blockID,
	}); err != nil {
		return fmt.Errorf("delete preferred block: %w", err)
	}
	selectionOpCounter.WithLabelValues("deselect", "ok").Inc()
	return nil
}

// Reorder replaces the selection order of a turn.
//
// The input must contain exactly the currently selected block IDs, each
// once; a missing, extra, or repeated ID is ErrInvalidSelection and the
// existing order is kept. Reordering an empty selection with an empty list
// is a valid no-op.
func (m *SelectionManager) Reorder(ctx context.Context, conversationID int32, userMessageID int64, orderedBlockIDs []int64) error {
	if err := m.validateTurn(ctx, conversationID, userMessageID); err != nil {
		selectionOpCounter.WithLabelValues("reorder", "rejected").Inc()
		return err
	}

	current, err := m.store.ListPreferredBlocks(ctx, &store.FindPreferredBlock{UserMessageID: &userMessageID})
	if err != nil {
		return fmt.Errorf("list preferred blocks: %w", err)
	}

	if len(orderedBlockIDs) != len(current) {
		selectionOpCounter.WithLabelValues("reorder", "rejected").Inc()
		return fmt.Errorf("%w: got %d block ids, selection has %d", ErrInvalidSelection, len(orderedBlockIDs), len(current))
	}
	if len(current) == 0 {
		selectionOpCounter.WithLabelValues("reorder", "ok").Inc()
		return nil
	}

	selected := make(map[int64]bool, len(current))
	for _, preferred := range current {
		selected[preferred.BlockID] = true
	}
	seen := make(map[int64]bool, len(orderedBlockIDs))
	for _, blockID := range orderedBlockIDs {
		if !selected[blockID] {
			selectionOpCounter.WithLabelValues("reorder", "rejected").Inc()
			return fmt.Errorf("%w: block %d is not part of the selection", ErrInvalidSelection, blockID)
		}
		if seen[blockID] {
			selectionOpCounter.WithLabelValues("reorder", "rejected").Inc()
			return fmt.Errorf("%w: block %d repeated", ErrInvalidSelection, blockID)
		}
		seen[blockID] = true
	}

	if err := m.store.SetPreferredBlockOrders(ctx, userMessageID, orderedBlockIDs); err != nil {
		return fmt.Errorf("set preferred block orders: %w", err)
	}
	selectionOpCounter.WithLabelValues("reorder", "ok").Inc()

	slog.Debug("reordered selection",
		"message_id", userMessageID,
		"blocks", len(orderedBlockIDs),
	)
	return nil
}

// ListSelection returns the turn's current selection in order, joined with
// block content and engine provenance.
func (m *SelectionManager) ListSelection(ctx context.Context, conversationID int32, userMessageID int64) ([]*store.SelectedBlock, error) {
	if err := m.validateTurn(ctx, conversationID, userMessageID); err != nil {
		return nil, err
	}
	selected, err := m.store.ListSelectedBlocks(ctx, &store.FindSelectedBlock{UserMessageID: &userMessageID})
	if err != nil {
		return nil, fmt.Errorf("list selected blocks: %w", err)
	}
	return selected, nil
}

// validateTurn checks the turn exists and belongs to the conversation.
func (m *SelectionManager) validateTurn(ctx context.Context, conversationID int32, userMessageID int64) error {
	conversation, err := m.store.GetConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}
	if conversation == nil {
		return ErrConversationNotFound
	}

	message, err := m.store.GetUserMessage(ctx, userMessageID)
	if err != nil {
		return fmt.Errorf("get user message: %w", err)
	}
	if message == nil || message.ConversationID != conversationID {
		return ErrUnknownTurn
	}
	return nil
}

// validateBlockOwnership checks the full chain: the block belongs to a
// response, the response to the turn, and the turn to the conversation.
func (m *SelectionManager) validateBlockOwnership(ctx context.Context, conversationID int32, userMessageID, blockID int64) error {
	if err := m.validateTurn(ctx, conversationID, userMessageID); err != nil {
		return err
	}

	block, err := m.store.GetResponseBlock(ctx, blockID)
	if err != nil {
		return fmt.Errorf("get response block: %w", err)
	}
	if block == nil {
		return ErrUnknownBlock
	}

	response, err := m.store.GetEngineResponse(ctx, block.ResponseID)
	if err != nil {
		return fmt.Errorf("get engine response: %w", err)
	}
	if response == nil || response.UserMessageID != userMessageID {
		return ErrUnknownBlock
	}
	return nil
}
