package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/chorus/store"
)

func createTestConversation(t *testing.T, st *store.Store) *store.Conversation {
	t.Helper()
	conversation, err := NewConversationService(st).CreateConversation(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	return conversation
}

func TestRecordUserMessageAssignsTurnNumbers(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	ingestor := NewIngestor(st)
	conversation := createTestConversation(t, st)

	for want := int32(1); want <= 3; want++ {
		message, err := ingestor.RecordUserMessage(ctx, conversation.ID, "hello", nil)
		require.NoError(t, err)
		require.Equal(t, want, message.TurnNumber)
	}
}

func TestRecordUserMessageUnknownConversation(t *testing.T) {
	st := newTestStore()
	ingestor := NewIngestor(st)

	_, err := ingestor.RecordUserMessage(context.Background(), 404, "hello", nil)
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestFirstMessageAutoTitles(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	ingestor := NewIngestor(st)
	conversation := createTestConversation(t, st)
	require.Equal(t, store.DefaultConversationTitle, conversation.Title)

	_, err := ingestor.RecordUserMessage(ctx, conversation.ID, "# Compare sorting algorithms\n\nin Go and Rust", nil)
	require.NoError(t, err)

	updated, err := st.GetConversation(ctx, conversation.ID)
	require.NoError(t, err)
	require.Equal(t, "Compare sorting algorithms", updated.Title)
	require.Equal(t, store.TitleSourceDefault, updated.TitleSource)
}

func TestAutoTitleTruncatesLongFirstLine(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	ingestor := NewIngestor(st)
	conversation := createTestConversation(t, st)

	long := "This is a very long opening question that keeps going well past fifty characters in total"
	_, err := ingestor.RecordUserMessage(ctx, conversation.ID, long, nil)
	require.NoError(t, err)

	updated, err := st.GetConversation(ctx, conversation.ID)
	require.NoError(t, err)
	require.Equal(t, string([]rune(long)[:50])+"...", updated.Title)
}

func TestAutoTitleSkippedAfterUserRename(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	ingestor := NewIngestor(st)
	conversations := NewConversationService(st)
	conversation := createTestConversation(t, st)

	_, err := conversations.RenameConversation(ctx, conversation.ID, "My title")
	require.NoError(t, err)

	_, err = ingestor.RecordUserMessage(ctx, conversation.ID, "something else entirely", nil)
	require.NoError(t, err)

	updated, err := st.GetConversation(ctx, conversation.ID)
	require.NoError(t, err)
	require.Equal(t, "My title", updated.Title)
	require.Equal(t, store.TitleSourceUser, updated.TitleSource)
}

func TestRecordEngineResponseSplitsBlocks(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	ingestor := NewIngestor(st)
	conversation := createTestConversation(t, st)

	message, err := ingestor.RecordUserMessage(ctx, conversation.ID, "explain", nil)
	require.NoError(t, err)

	response, err := ingestor.RecordEngineResponse(ctx, message.ID, &EngineResult{
		Engine:   "claude",
		Provider: "anthropic",
		Content:  "# Answer\n\nFirst paragraph.\n\n```python\nprint(1)\n```",
	})
	require.NoError(t, err)
	require.False(t, response.Failed())
	// Responses carry full 36-character UUIDs, not short IDs.
	require.Len(t, response.UID, 36)
	require.Len(t, response.Blocks, 3)
	require.Equal(t, store.BlockTypeHeading, response.Blocks[0].Type)
	require.Equal(t, store.BlockTypeParagraph, response.Blocks[1].Type)
	require.Equal(t, store.BlockTypeCode, response.Blocks[2].Type)
	for i, block := range response.Blocks {
		require.Equal(t, int32(i), block.BlockIndex)
	}
}

func TestRecordEngineResponseFailure(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	ingestor := NewIngestor(st)
	conversation := createTestConversation(t, st)

	message, err := ingestor.RecordUserMessage(ctx, conversation.ID, "explain", nil)
	require.NoError(t, err)

	response, err := ingestor.RecordEngineResponse(ctx, message.ID, &EngineResult{
		Engine: "gpt",
		Err:    "rate limited",
	})
	require.NoError(t, err)
	require.True(t, response.Failed())
	require.Empty(t, response.Blocks)
}

func TestRecordEngineResponseUnknownTurn(t *testing.T) {
	st := newTestStore()
	ingestor := NewIngestor(st)

	_, err := ingestor.RecordEngineResponse(context.Background(), 999, &EngineResult{Engine: "gpt", Content: "hi"})
	require.ErrorIs(t, err, ErrUnknownTurn)
}
