package store

// TitleSource indicates how the conversation title was created.
// - "default": System default ("New Conversation" or truncated first message)
// - "user": User-provided title (manual rename)
//
// The auto-title on the first message only fires while the source is still
// "default", so an explicit user rename is never overwritten.
type TitleSource string

const (
	TitleSourceDefault TitleSource = "default"
	TitleSourceUser    TitleSource = "user"
)

// DefaultConversationTitle is the title assigned at creation time.
const DefaultConversationTitle = "New Conversation"

type Conversation struct {
	UID         string
	Title       string
	TitleSource TitleSource
	RowStatus   RowStatus
	FolderID    *int32 // nil when the conversation is not filed in a folder
	CreatedTs   int64
	UpdatedTs   int64
	ID          int32
	CreatorID   int32
	Pinned      bool
	TurnCount   int32 // populated by ListConversations with JOIN
}

type FindConversation struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	FolderID  *int32
	Pinned    *bool
	RowStatus *RowStatus
}

type UpdateConversation struct {
	Title       *string
	TitleSource *TitleSource
	Pinned      *bool
	RowStatus   *RowStatus
	UpdatedTs   *int64
	ID          int32

	// SetFolder moves the conversation: FolderID == nil detaches it.
	// A separate flag is needed because nil FolderID alone is ambiguous
	// between "no change" and "move out of folder".
	SetFolder bool
	FolderID  *int32
}

type DeleteConversation struct {
	ID int32
}
