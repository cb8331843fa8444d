package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/chorus/store"
)

type selectionFixture struct {
	st           *store.Store
	manager      *SelectionManager
	conversation *store.Conversation
	message      *store.UserMessage
	claudeBlocks []*store.ResponseBlock
	gptBlocks    []*store.ResponseBlock
}

// newSelectionFixture seeds one turn with responses from two engines,
// three blocks each.
func newSelectionFixture(t *testing.T) *selectionFixture {
	t.Helper()
	ctx := context.Background()
	st := newTestStore()
	ingestor := NewIngestor(st)
	conversation := createTestConversation(t, st)

	message, err := ingestor.RecordUserMessage(ctx, conversation.ID, "compare approaches", nil)
	require.NoError(t, err)

	content := "First point.\n\nSecond point.\n\nThird point."
	claude, err := ingestor.RecordEngineResponse(ctx, message.ID, &EngineResult{
		Engine: "claude", Provider: "anthropic", Content: content,
	})
	require.NoError(t, err)
	require.Len(t, claude.Blocks, 3)

	gpt, err := ingestor.RecordEngineResponse(ctx, message.ID, &EngineResult{
		Engine: "gpt", Provider: "openai", Content: content,
	})
	require.NoError(t, err)
	require.Len(t, gpt.Blocks, 3)

	return &selectionFixture{
		st:           st,
		manager:      NewSelectionManager(st),
		conversation: conversation,
		message:      message,
		claudeBlocks: claude.Blocks,
		gptBlocks:    gpt.Blocks,
	}
}

func TestSelectBlocksAcrossEngines(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)

	first, err := f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, f.claudeBlocks[2].ID)
	require.NoError(t, err)
	require.Equal(t, int32(1), first.SelectionOrder)

	second, err := f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, f.gptBlocks[0].ID)
	require.NoError(t, err)
	require.Equal(t, int32(2), second.SelectionOrder)

	selected, err := f.manager.ListSelection(ctx, f.conversation.ID, f.message.ID)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	require.Equal(t, "claude", selected[0].Engine)
	require.Equal(t, "gpt", selected[1].Engine)
}

func TestSelectBlockDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)

	_, err := f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, f.claudeBlocks[0].ID)
	require.NoError(t, err)

	_, err = f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, f.claudeBlocks[0].ID)
	require.ErrorIs(t, err, ErrDuplicateSelection)

	selected, err := f.manager.ListSelection(ctx, f.conversation.ID, f.message.ID)
	require.NoError(t, err)
	require.Len(t, selected, 1)
}

func TestSelectBlockUnknownBlock(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)

	_, err := f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, 99999)
	require.ErrorIs(t, err, ErrUnknownBlock)
}

func TestSelectBlockFromOtherTurn(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)
	ingestor := NewIngestor(f.st)

	otherMessage, err := ingestor.RecordUserMessage(ctx, f.conversation.ID, "next question", nil)
	require.NoError(t, err)

	// claudeBlocks belong to the first turn, not otherMessage.
	_, err = f.manager.SelectBlock(ctx, f.conversation.ID, otherMessage.ID, f.claudeBlocks[0].ID)
	require.ErrorIs(t, err, ErrUnknownBlock)
}

func TestSelectBlockUnknownTurn(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)

	_, err := f.manager.SelectBlock(ctx, f.conversation.ID, 99999, f.claudeBlocks[0].ID)
	require.ErrorIs(t, err, ErrUnknownTurn)
}

func TestDeselectBlockIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)

	_, err := f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, f.claudeBlocks[0].ID)
	require.NoError(t, err)
	_, err = f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, f.gptBlocks[1].ID)
	require.NoError(t, err)

	require.NoError(t, f.manager.DeselectBlock(ctx, f.conversation.ID, f.message.ID, f.claudeBlocks[0].ID))
	// Deselecting again is a no-op.
	require.NoError(t, f.manager.DeselectBlock(ctx, f.conversation.ID, f.message.ID, f.claudeBlocks[0].ID))

	selected, err := f.manager.ListSelection(ctx, f.conversation.ID, f.message.ID)
	require.NoError(t, err)
	require.Len(t, selected, 1)
	require.Equal(t, f.gptBlocks[1].ID, selected[0].BlockID)
	// Remaining orders are not compacted.
	require.Equal(t, int32(2), selected[0].SelectionOrder)
}

func TestReorderSelection(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)

	blockIDs := []int64{f.claudeBlocks[0].ID, f.gptBlocks[0].ID, f.claudeBlocks[1].ID}
	for _, blockID := range blockIDs {
		_, err := f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, blockID)
		require.NoError(t, err)
	}

	reversed := []int64{blockIDs[2], blockIDs[1], blockIDs[0]}
	require.NoError(t, f.manager.Reorder(ctx, f.conversation.ID, f.message.ID, reversed))

	selected, err := f.manager.ListSelection(ctx, f.conversation.ID, f.message.ID)
	require.NoError(t, err)
	require.Len(t, selected, 3)
	for i, blockID := range reversed {
		require.Equal(t, blockID, selected[i].BlockID)
		require.Equal(t, int32(i+1), selected[i].SelectionOrder)
	}
}

func TestReorderRejectsWrongSet(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)

	_, err := f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, f.claudeBlocks[0].ID)
	require.NoError(t, err)
	_, err = f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, f.gptBlocks[0].ID)
	require.NoError(t, err)

	// Wrong length.
	err = f.manager.Reorder(ctx, f.conversation.ID, f.message.ID, []int64{f.claudeBlocks[0].ID})
	require.ErrorIs(t, err, ErrInvalidSelection)

	// Unselected block in place of a selected one.
	err = f.manager.Reorder(ctx, f.conversation.ID, f.message.ID, []int64{f.claudeBlocks[0].ID, f.claudeBlocks[1].ID})
	require.ErrorIs(t, err, ErrInvalidSelection)

	// Repeated block.
	err = f.manager.Reorder(ctx, f.conversation.ID, f.message.ID, []int64{f.claudeBlocks[0].ID, f.claudeBlocks[0].ID})
	require.ErrorIs(t, err, ErrInvalidSelection)

	// Order is unchanged after the rejected requests.
	selected, err := f.manager.ListSelection(ctx, f.conversation.ID, f.message.ID)
	require.NoError(t, err)
	require.Equal(t, f.claudeBlocks[0].ID, selected[0].BlockID)
	require.Equal(t, f.gptBlocks[0].ID, selected[1].BlockID)
}

func TestReorderEmptySelection(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)

	require.NoError(t, f.manager.Reorder(ctx, f.conversation.ID, f.message.ID, []int64{}))
	err := f.manager.Reorder(ctx, f.conversation.ID, f.message.ID, []int64{f.claudeBlocks[0].ID})
	require.ErrorIs(t, err, ErrInvalidSelection)
}

func TestDeleteResponseBlockRetractsSelection(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)

	for _, blockID := range []int64{f.claudeBlocks[0].ID, f.claudeBlocks[1].ID, f.gptBlocks[0].ID} {
		_, err := f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, blockID)
		require.NoError(t, err)
	}

	// A second turn with its own selection.
	ingestor := NewIngestor(f.st)
	second, err := ingestor.RecordUserMessage(ctx, f.conversation.ID, "go on", nil)
	require.NoError(t, err)
	response, err := ingestor.RecordEngineResponse(ctx, second.ID, &EngineResult{
		Engine: "claude", Provider: "anthropic", Content: "Follow-up point.",
	})
	require.NoError(t, err)
	require.Len(t, response.Blocks, 1)
	_, err = f.manager.SelectBlock(ctx, f.conversation.ID, second.ID, response.Blocks[0].ID)
	require.NoError(t, err)

	// Removing the underlying block retracts it from the selection.
	err = f.st.DeleteResponseBlock(ctx, &store.DeleteResponseBlock{ID: f.claudeBlocks[1].ID})
	require.NoError(t, err)

	selected, err := f.manager.ListSelection(ctx, f.conversation.ID, f.message.ID)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	require.Equal(t, f.claudeBlocks[0].ID, selected[0].BlockID)
	require.Equal(t, f.gptBlocks[0].ID, selected[1].BlockID)

	// The other turn's selection is untouched.
	other, err := f.manager.ListSelection(ctx, f.conversation.ID, second.ID)
	require.NoError(t, err)
	require.Len(t, other, 1)
	require.Equal(t, response.Blocks[0].ID, other[0].BlockID)
}
