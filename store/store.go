package store

import (
	"context"
	"time"

	"github.com/hrygo/chorus/internal/profile"
	"github.com/hrygo/chorus/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// cache for conversations, keyed by ID
	conversationCache *cache.Cache[int32, *Conversation]
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		conversationCache: cache.New[int32, *Conversation](cache.Config{
			Capacity:   1000,
			DefaultTTL: 10 * time.Minute,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// Conversation

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	conversation, err := s.driver.CreateConversation(ctx, create)
	if err != nil {
		return nil, err
	}
	s.conversationCache.Set(conversation.ID, conversation)
	return conversation, nil
}

// GetConversation retrieves a conversation by ID, serving hot rows from the
// in-process cache. Returns nil when not found.
func (s *Store) GetConversation(ctx context.Context, id int32) (*Conversation, error) {
	if conversation, ok := s.conversationCache.Get(id); ok {
		return conversation, nil
	}
	list, err := s.driver.ListConversations(ctx, &FindConversation{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	s.conversationCache.Set(id, list[0])
	return list[0], nil
}

// GetConversationByUID retrieves a conversation by its external UID.
// Returns nil when not found.
func (s *Store) GetConversationByUID(ctx context.Context, uid string) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, &FindConversation{UID: &uid})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	s.conversationCache.Set(list[0].ID, list[0])
	return list[0], nil
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// UpdateConversation applies the update and refreshes the cache. Returns
// nil when the conversation does not exist.
func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	conversation, err := s.driver.UpdateConversation(ctx, update)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		s.conversationCache.Remove(update.ID)
		return nil, nil
	}
	s.conversationCache.Set(conversation.ID, conversation)
	return conversation, nil
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	if err := s.driver.DeleteConversation(ctx, delete); err != nil {
		return err
	}
	s.conversationCache.Remove(delete.ID)
	return nil
}

// Folder

func (s *Store) CreateFolder(ctx context.Context, create *Folder) (*Folder, error) {
	return s.driver.CreateFolder(ctx, create)
}

func (s *Store) ListFolders(ctx context.Context, find *FindFolder) ([]*Folder, error) {
	return s.driver.ListFolders(ctx, find)
}

func (s *Store) UpdateFolder(ctx context.Context, update *UpdateFolder) (*Folder, error) {
	return s.driver.UpdateFolder(ctx, update)
}

// DeleteFolder removes a folder and its children. Conversations filed in
// the deleted subtree are detached, not deleted; drivers guarantee this.
// Cached conversations may keep a stale folder reference until TTL expiry,
// which only affects list grouping, never content.
func (s *Store) DeleteFolder(ctx context.Context, delete *DeleteFolder) error {
	return s.driver.DeleteFolder(ctx, delete)
}

// UserMessage

func (s *Store) CreateUserMessage(ctx context.Context, create *CreateUserMessage) (*UserMessage, error) {
	return s.driver.CreateUserMessage(ctx, create)
}

// GetUserMessage retrieves a message by ID. Returns nil when not found.
func (s *Store) GetUserMessage(ctx context.Context, id int64) (*UserMessage, error) {
	list, err := s.driver.ListUserMessages(ctx, &FindUserMessage{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListUserMessages(ctx context.Context, find *FindUserMessage) ([]*UserMessage, error) {
	return s.driver.ListUserMessages(ctx, find)
}

// EngineResponse

func (s *Store) CreateEngineResponse(ctx context.Context, create *CreateEngineResponse) (*EngineResponse, error) {
	return s.driver.CreateEngineResponse(ctx, create)
}

// GetEngineResponse retrieves a response by ID. Returns nil when not found.
func (s *Store) GetEngineResponse(ctx context.Context, id int64) (*EngineResponse, error) {
	list, err := s.driver.ListEngineResponses(ctx, &FindEngineResponse{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListEngineResponses(ctx context.Context, find *FindEngineResponse) ([]*EngineResponse, error) {
	return s.driver.ListEngineResponses(ctx, find)
}

// ResponseBlock

// GetResponseBlock retrieves a block by ID. Returns nil when not found.
func (s *Store) GetResponseBlock(ctx context.Context, id int64) (*ResponseBlock, error) {
	list, err := s.driver.ListResponseBlocks(ctx, &FindResponseBlock{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListResponseBlocks(ctx context.Context, find *FindResponseBlock) ([]*ResponseBlock, error) {
	return s.driver.ListResponseBlocks(ctx, find)
}

func (s *Store) DeleteResponseBlock(ctx context.Context, delete *DeleteResponseBlock) error {
	return s.driver.DeleteResponseBlock(ctx, delete)
}

// PreferredBlock

func (s *Store) CreatePreferredBlock(ctx context.Context, create *CreatePreferredBlock) (*PreferredBlock, error) {
	return s.driver.CreatePreferredBlock(ctx, create)
}

func (s *Store) ListPreferredBlocks(ctx context.Context, find *FindPreferredBlock) ([]*PreferredBlock, error) {
	return s.driver.ListPreferredBlocks(ctx, find)
}

func (s *Store) DeletePreferredBlock(ctx context.Context, delete *DeletePreferredBlock) error {
	return s.driver.DeletePreferredBlock(ctx, delete)
}

func (s *Store) SetPreferredBlockOrders(ctx context.Context, userMessageID int64, orderedBlockIDs []int64) error {
	return s.driver.SetPreferredBlockOrders(ctx, userMessageID, orderedBlockIDs)
}

func (s *Store) ListSelectedBlocks(ctx context.Context, find *FindSelectedBlock) ([]*SelectedBlock, error) {
	return s.driver.ListSelectedBlocks(ctx, find)
}

// ConversationEngine

func (s *Store) UpsertConversationEngine(ctx context.Context, upsert *UpsertConversationEngine) (*ConversationEngine, error) {
	return s.driver.UpsertConversationEngine(ctx, upsert)
}

func (s *Store) ListConversationEngines(ctx context.Context, find *FindConversationEngine) ([]*ConversationEngine, error) {
	return s.driver.ListConversationEngines(ctx, find)
}

func (s *Store) RemoveConversationEngine(ctx context.Context, remove *RemoveConversationEngine) error {
	return s.driver.RemoveConversationEngine(ctx, remove)
}
