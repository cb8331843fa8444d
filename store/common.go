package store

// RowStatus is the lifecycle status of a row.
type RowStatus string

const (
	// Normal is the status for a visible row.
	Normal RowStatus = "NORMAL"
	// Archived is the status for an archived row.
	Archived RowStatus = "ARCHIVED"
)

func (r RowStatus) String() string {
	return string(r)
}
