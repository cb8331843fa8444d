package store

// Attachment is a reference to a file attached to a user message.
// Only the reference is stored; attachment content lives outside this core.
type Attachment struct {
	Name      string `json:"name"`
	MimeType  string `json:"mime_type,omitempty"`
	Reference string `json:"reference"`
}

// UserMessage is one turn's user input. Immutable after creation.
// TurnNumber is the sole ordering key for a conversation's history:
// strictly increasing, assigned exactly once at insert time, starting at 1.
type UserMessage struct {
	UID            string
	Content        string
	Attachments    []Attachment
	CreatedTs      int64
	ID             int64
	ConversationID int32
	TurnNumber     int32
}

type CreateUserMessage struct {
	UID            string
	Content        string
	Attachments    []Attachment
	CreatedTs      int64
	ConversationID int32
}

type FindUserMessage struct {
	ID             *int64
	UID            *string
	ConversationID *int32
	TurnNumber     *int32
}

type DeleteUserMessage struct {
	ID int64
}
