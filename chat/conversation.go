package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/chorus/store"
)

// ConversationService manages conversation and folder lifecycle: creation,
// renaming, filing, pin/archive state, and the per-conversation engine roster.
type ConversationService struct {
	store *store.Store
}

// NewConversationService creates a new ConversationService.
func NewConversationService(st *store.Store) *ConversationService {
	return &ConversationService{store: st}
}

// CreateConversation opens a new conversation with the default title.
// folderID is optional; engines lists the initial engine roster.
func (s *ConversationService) CreateConversation(ctx context.Context, creatorID int32, folderID *int32, engines []*store.UpsertConversationEngine) (*store.Conversation, error) {
	now := time.Now().Unix()
	conversation, err := s.store.CreateConversation(ctx, &store.Conversation{
		UID:         shortuuid.New(),
		CreatorID:   creatorID,
		Title:       store.DefaultConversationTitle,
		TitleSource: store.TitleSourceDefault,
		RowStatus:   store.Normal,
		FolderID:    folderID,
		CreatedTs:   now,
		UpdatedTs:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	for _, engine := range engines {
		engine.ConversationID = conversation.ID
		if engine.AddedTs == 0 {
			engine.AddedTs = now
		}
		if _, err := s.store.UpsertConversationEngine(ctx, engine); err != nil {
			return nil, fmt.Errorf("add engine %s: %w", engine.Engine, err)
		}
	}

	slog.Info("created conversation",
		"conversation_id", conversation.ID,
		"uid", conversation.UID,
		"engines", len(engines),
	)
	return conversation, nil
}

// GetConversation returns a conversation by ID, or ErrConversationNotFound.
func (s *ConversationService) GetConversation(ctx context.Context, id int32) (*store.Conversation, error) {
	conversation, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

// GetConversationByUID returns a conversation by UID, or ErrConversationNotFound.
func (s *ConversationService) GetConversationByUID(ctx context.Context, uid string) (*store.Conversation, error) {
	conversation, err := s.store.GetConversationByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

// ListConversations lists conversations matching the filter.
func (s *ConversationService) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	return s.store.ListConversations(ctx, find)
}

// RenameConversation sets a user-chosen title. The title source flips to
// "user", which permanently disables first-message auto-titling.
func (s *ConversationService) RenameConversation(ctx context.Context, id int32, title string) (*store.Conversation, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrInvalidArgument)
	}
	now := time.Now().Unix()
	source := store.TitleSourceUser
	return s.updateConversation(ctx, &store.UpdateConversation{
		ID:          id,
		Title:       &title,
		TitleSource: &source,
		UpdatedTs:   &now,
	})
}

// MoveToFolder files the conversation in a folder, or removes it from its
// folder when folderID is nil.
func (s *ConversationService) MoveToFolder(ctx context.Context, id int32, folderID *int32) (*store.Conversation, error) {
	now := time.Now().Unix()
	return s.updateConversation(ctx, &store.UpdateConversation{
		ID:        id,
		SetFolder: true,
		FolderID:  folderID,
		UpdatedTs: &now,
	})
}

// SetPinned pins or unpins the conversation.
func (s *ConversationService) SetPinned(ctx context.Context, id int32, pinned bool) (*store.Conversation, error) {
	now := time.Now().Unix()
	return s.updateConversation(ctx, &store.UpdateConversation{
		ID:        id,
		Pinned:    &pinned,
		UpdatedTs: &now,
	})
}

// SetArchived archives or restores the conversation. Archived conversations
// keep their full history and selections.
func (s *ConversationService) SetArchived(ctx context.Context, id int32, archived bool) (*store.Conversation, error) {
	status := store.Normal
	if archived {
		status = store.Archived
	}
	now := time.Now().Unix()
	return s.updateConversation(ctx, &store.UpdateConversation{
		ID:        id,
		RowStatus: &status,
		UpdatedTs: &now,
	})
}

// DeleteConversation permanently removes the conversation and, through the
// schema's cascades, all of its turns, responses, blocks, and selections.
func (s *ConversationService) DeleteConversation(ctx context.Context, id int32) error {
	conversation, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}
	if conversation == nil {
		return ErrConversationNotFound
	}
	return s.store.DeleteConversation(ctx, &store.DeleteConversation{ID: id})
}

func (s *ConversationService) updateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	conversation, err := s.store.UpdateConversation(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

// CreateFolder creates a folder, optionally nested under a parent.
func (s *ConversationService) CreateFolder(ctx context.Context, creatorID int32, name, color string, parentID *int32) (*store.Folder, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: folder name must not be empty", ErrInvalidArgument)
	}
	folder, err := s.store.CreateFolder(ctx, &store.Folder{
		UID:       shortuuid.New(),
		CreatorID: creatorID,
		Name:      name,
		Color:     color,
		ParentID:  parentID,
		CreatedTs: time.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}
	return folder, nil
}

// ListFolders lists folders matching the filter.
func (s *ConversationService) ListFolders(ctx context.Context, find *store.FindFolder) ([]*store.Folder, error) {
	return s.store.ListFolders(ctx, find)
}

// UpdateFolder renames or recolors a folder.
func (s *ConversationService) UpdateFolder(ctx context.Context, update *store.UpdateFolder) (*store.Folder, error) {
	folder, err := s.store.UpdateFolder(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("update folder: %w", err)
	}
	return folder, nil
}

// DeleteFolder removes a folder. Child folders go with it; conversations
// filed in the deleted folders are detached, never deleted.
func (s *ConversationService) DeleteFolder(ctx context.Context, id int32) error {
	return s.store.DeleteFolder(ctx, &store.DeleteFolder{ID: id})
}

// AddEngine adds an engine to the conversation roster or re-activates a
// previously removed one. Joining late grants the engine the same assembled
// context as everyone else on the next turn.
func (s *ConversationService) AddEngine(ctx context.Context, conversationID int32, engine, provider string) (*store.ConversationEngine, error) {
	conversation, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	participation, err := s.store.UpsertConversationEngine(ctx, &store.UpsertConversationEngine{
		ConversationID: conversationID,
		Engine:         engine,
		Provider:       provider,
		AddedTs:        time.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("upsert conversation engine: %w", err)
	}
	return participation, nil
}

// RemoveEngine closes an engine's participation window. Its historical
// responses and any selections of its blocks remain untouched.
func (s *ConversationService) RemoveEngine(ctx context.Context, conversationID int32, engine string) error {
	if err := s.store.RemoveConversationEngine(ctx, &store.RemoveConversationEngine{
		ConversationID: conversationID,
		Engine:         engine,
		RemovedTs:      time.Now().Unix(),
	}); err != nil {
		return fmt.Errorf("remove conversation engine: %w", err)
	}
	return nil
}

// ListEngines lists the conversation's engine roster. With activeOnly, only
// engines whose participation window is open are returned.
func (s *ConversationService) ListEngines(ctx context.Context, conversationID int32, activeOnly bool) ([]*store.ConversationEngine, error) {
	return s.store.ListConversationEngines(ctx, &store.FindConversationEngine{
		ConversationID: &conversationID,
		ActiveOnly:     activeOnly,
	})
}
