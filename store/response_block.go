package store

// BlockType is the closed set of content block types a response is
// decomposed into. The set is enforced by a CHECK constraint in the
// schema; IsValid must be kept in sync with it.
type BlockType string

const (
	BlockTypeParagraph BlockType = "paragraph"
	BlockTypeHeading   BlockType = "heading"
	BlockTypeBullet    BlockType = "bullet"
	BlockTypeNumbered  BlockType = "numbered"
	BlockTypeCode      BlockType = "code"
	BlockTypeTable     BlockType = "table"
	BlockTypeQuote     BlockType = "quote"
	BlockTypeChart     BlockType = "chart"
)

func (t BlockType) IsValid() bool {
	switch t {
	case BlockTypeParagraph, BlockTypeHeading, BlockTypeBullet, BlockTypeNumbered,
		BlockTypeCode, BlockTypeTable, BlockTypeQuote, BlockTypeChart:
		return true
	}
	return false
}

// ResponseBlock is one typed, indexed unit of a response's content.
// BlockIndex is the 0-based position within the parent response, fixed at
// ingestion time. Blocks are immutable once created.
//
// Metadata is a free-form per-type bag, e.g. {"language": "python"} for
// code blocks or {"level": 2} for headings.
type ResponseBlock struct {
	Type       BlockType
	Content    string
	Metadata   map[string]any
	ID         int64
	ResponseID int64
	BlockIndex int32
}

type CreateResponseBlock struct {
	Type     BlockType
	Content  string
	Metadata map[string]any
}

type FindResponseBlock struct {
	ID         *int64
	ResponseID *int64
	Type       *BlockType
}

type DeleteResponseBlock struct {
	ID int64
}
