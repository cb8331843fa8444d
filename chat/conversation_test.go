package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/chorus/store"
)

func TestCreateConversationDefaults(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	service := NewConversationService(st)

	conversation, err := service.CreateConversation(ctx, 1, nil, []*store.UpsertConversationEngine{
		{Engine: "claude", Provider: "anthropic"},
		{Engine: "gpt", Provider: "openai"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, conversation.UID)
	require.Equal(t, store.DefaultConversationTitle, conversation.Title)
	require.Equal(t, store.TitleSourceDefault, conversation.TitleSource)
	require.Equal(t, store.Normal, conversation.RowStatus)
	require.Nil(t, conversation.FolderID)

	engines, err := service.ListEngines(ctx, conversation.ID, true)
	require.NoError(t, err)
	require.Len(t, engines, 2)
}

func TestRenameConversation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	service := NewConversationService(st)
	conversation := createTestConversation(t, st)

	renamed, err := service.RenameConversation(ctx, conversation.ID, "Postgres tuning")
	require.NoError(t, err)
	require.Equal(t, "Postgres tuning", renamed.Title)
	require.Equal(t, store.TitleSourceUser, renamed.TitleSource)

	_, err = service.RenameConversation(ctx, conversation.ID, "")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateUnknownConversation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	service := NewConversationService(st)

	_, err := service.SetPinned(ctx, 9999, true)
	require.ErrorIs(t, err, ErrConversationNotFound)

	_, err = service.RenameConversation(ctx, 9999, "Ghost")
	require.ErrorIs(t, err, ErrConversationNotFound)

	_, err = service.MoveToFolder(ctx, 9999, nil)
	require.ErrorIs(t, err, ErrConversationNotFound)

	_, err = service.SetArchived(ctx, 9999, true)
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestUpdateUnknownFolder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	service := NewConversationService(st)

	name := "Ghost"
	folder, err := service.UpdateFolder(ctx, &store.UpdateFolder{ID: 9999, Name: &name})
	require.NoError(t, err)
	require.Nil(t, folder)
}

func TestPinAndArchiveConversation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	service := NewConversationService(st)
	conversation := createTestConversation(t, st)

	pinned, err := service.SetPinned(ctx, conversation.ID, true)
	require.NoError(t, err)
	require.True(t, pinned.Pinned)

	archived, err := service.SetArchived(ctx, conversation.ID, true)
	require.NoError(t, err)
	require.Equal(t, store.Archived, archived.RowStatus)
	// Archiving does not touch the pin.
	require.True(t, archived.Pinned)

	restored, err := service.SetArchived(ctx, conversation.ID, false)
	require.NoError(t, err)
	require.Equal(t, store.Normal, restored.RowStatus)
}

func TestMoveConversationBetweenFolders(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	service := NewConversationService(st)
	conversation := createTestConversation(t, st)

	folder, err := service.CreateFolder(ctx, 1, "Research", "", nil)
	require.NoError(t, err)

	moved, err := service.MoveToFolder(ctx, conversation.ID, &folder.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.FolderID)
	require.Equal(t, folder.ID, *moved.FolderID)

	detached, err := service.MoveToFolder(ctx, conversation.ID, nil)
	require.NoError(t, err)
	require.Nil(t, detached.FolderID)
}

func TestDeleteFolderDetachesConversations(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()
	service := NewConversationService(st)
	conversation := createTestConversation(t, st)

	parent, err := service.CreateFolder(ctx, 1, "Parent", "", nil)
	require.NoError(t, err)
	child, err := service.CreateFolder(ctx, 1, "Child", "", &parent.ID)
	require.NoError(t, err)

	_, err = service.MoveToFolder(ctx, conversation.ID, &child.ID)
	require.NoError(t, err)

	require.NoError(t, service.DeleteFolder(ctx, parent.ID))

	folders, err := service.ListFolders(ctx, &store.FindFolder{})
	require.NoError(t, err)
	require.Empty(t, folders)

	// The conversation survives, unfiled. Read through the driver to bypass
	// the conversation cache.
	conversations, err := st.GetDriver().ListConversations(ctx, &store.FindConversation{ID: &conversation.ID})
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	require.Nil(t, conversations[0].FolderID)
}

func TestDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)
	service := NewConversationService(f.st)

	_, err := f.manager.SelectBlock(ctx, f.conversation.ID, f.message.ID, f.claudeBlocks[0].ID)
	require.NoError(t, err)

	require.NoError(t, service.DeleteConversation(ctx, f.conversation.ID))

	messages, err := f.st.ListUserMessages(ctx, &store.FindUserMessage{ConversationID: &f.conversation.ID})
	require.NoError(t, err)
	require.Empty(t, messages)

	responses, err := f.st.ListEngineResponses(ctx, &store.FindEngineResponse{UserMessageID: &f.message.ID})
	require.NoError(t, err)
	require.Empty(t, responses)

	selected, err := f.st.ListSelectedBlocks(ctx, &store.FindSelectedBlock{ConversationID: &f.conversation.ID})
	require.NoError(t, err)
	require.Empty(t, selected)

	err = service.DeleteConversation(ctx, f.conversation.ID)
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestEngineRemovalKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := newSelectionFixture(t)
	service := NewConversationService(f.st)

	_, err := service.AddEngine(ctx, f.conversation.ID, "claude", "anthropic")
	require.NoError(t, err)
	require.NoError(t, service.RemoveEngine(ctx, f.conversation.ID, "claude"))

	active, err := service.ListEngines(ctx, f.conversation.ID, true)
	require.NoError(t, err)
	require.Empty(t, active)

	all, err := service.ListEngines(ctx, f.conversation.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].RemovedTs)

	// Historical responses are untouched.
	responses, err := f.st.ListEngineResponses(ctx, &store.FindEngineResponse{UserMessageID: &f.message.ID})
	require.NoError(t, err)
	require.Len(t, responses, 2)

	// Re-adding reopens the participation window.
	participation, err := service.AddEngine(ctx, f.conversation.ID, "claude", "anthropic")
	require.NoError(t, err)
	require.Nil(t, participation.RemovedTs)
}
