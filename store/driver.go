package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database access.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error

	// Conversation
	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error)
	DeleteConversation(ctx context.Context, delete *DeleteConversation) error

	// Folder
	CreateFolder(ctx context.Context, create *Folder) (*Folder, error)
	ListFolders(ctx context.Context, find *FindFolder) ([]*Folder, error)
	UpdateFolder(ctx context.Context, update *UpdateFolder) (*Folder, error)
	DeleteFolder(ctx context.Context, delete *DeleteFolder) error

	// UserMessage. CreateUserMessage assigns the next turn number
	// atomically; callers never pick turn numbers themselves.
	CreateUserMessage(ctx context.Context, create *CreateUserMessage) (*UserMessage, error)
	ListUserMessages(ctx context.Context, find *FindUserMessage) ([]*UserMessage, error)

	// EngineResponse. CreateEngineResponse persists the response and its
	// blocks in a single transaction.
	CreateEngineResponse(ctx context.Context, create *CreateEngineResponse) (*EngineResponse, error)
	ListEngineResponses(ctx context.Context, find *FindEngineResponse) ([]*EngineResponse, error)

	// ResponseBlock
	ListResponseBlocks(ctx context.Context, find *FindResponseBlock) ([]*ResponseBlock, error)
	DeleteResponseBlock(ctx context.Context, delete *DeleteResponseBlock) error

	// PreferredBlock
	CreatePreferredBlock(ctx context.Context, create *CreatePreferredBlock) (*PreferredBlock, error)
	ListPreferredBlocks(ctx context.Context, find *FindPreferredBlock) ([]*PreferredBlock, error)
	DeletePreferredBlock(ctx context.Context, delete *DeletePreferredBlock) error
	// SetPreferredBlockOrders rewrites selection_order for the turn's
	// selection: orderedBlockIDs[i] gets order i+1, in one transaction.
	// Callers validate that the list covers the exact current selection.
	SetPreferredBlockOrders(ctx context.Context, userMessageID int64, orderedBlockIDs []int64) error
	ListSelectedBlocks(ctx context.Context, find *FindSelectedBlock) ([]*SelectedBlock, error)

	// ConversationEngine
	UpsertConversationEngine(ctx context.Context, upsert *UpsertConversationEngine) (*ConversationEngine, error)
	ListConversationEngines(ctx context.Context, find *FindConversationEngine) ([]*ConversationEngine, error)
	RemoveConversationEngine(ctx context.Context, remove *RemoveConversationEngine) error
}
