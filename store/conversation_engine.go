package store

// ConversationEngine records an engine's participation in a conversation.
// RemovedTs is nil while the engine is active. Removal never deletes the
// engine's historical responses; it only closes the participation window,
// which is what makes late joins and graceful removal possible.
type ConversationEngine struct {
	Engine         string
	Provider       string
	AddedTs        int64
	RemovedTs      *int64
	ID             int64
	ConversationID int32
}

// UpsertConversationEngine adds an engine to a conversation or re-activates
// a previously removed one (clearing removed_ts).
type UpsertConversationEngine struct {
	Engine         string
	Provider       string
	AddedTs        int64
	ConversationID int32
}

type FindConversationEngine struct {
	ConversationID *int32
	Engine         *string
	ActiveOnly     bool
}

// RemoveConversationEngine marks the engine inactive as of RemovedTs.
type RemoveConversationEngine struct {
	Engine         string
	RemovedTs      int64
	ConversationID int32
}
