package store

// Folder is a user-owned named grouping of conversations.
// Folders form at most a shallow tree via ParentID. Deleting a folder
// cascades to child folders but detaches conversations (folder_id set to
// NULL) instead of deleting them.
type Folder struct {
	UID       string
	Name      string
	Color     string // optional display color, empty when unset
	ParentID  *int32 // nil for top-level folders
	CreatedTs int64
	ID        int32
	CreatorID int32
}

type FindFolder struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	ParentID  *int32
}

type UpdateFolder struct {
	Name     *string
	Color    *string
	ParentID *int32
	ID       int32
}

type DeleteFolder struct {
	ID int32
}
