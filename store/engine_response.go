package store

// EngineResponse is one engine's full, independent answer to one turn.
// Exactly one row exists per (engine, user message) pair; there is
// deliberately no canonical assistant reply.
//
// Error and content are mutually exclusive in practice: an errored
// response carries no blocks and is excluded from selection candidates,
// but the row itself is retained for observability.
type EngineResponse struct {
	UID           string
	Engine        string
	Provider      string
	Error         string // empty for successful responses
	CreatedTs     int64
	ID            int64
	UserMessageID int64
	LatencyMs     int64
	InputTokens   int32
	OutputTokens  int32
	CostUSD       float64
	Blocks        []*ResponseBlock // populated by CreateEngineResponse and GetEngineResponse
}

// Failed reports whether the engine returned an error instead of content.
func (r *EngineResponse) Failed() bool {
	return r.Error != ""
}

// CreateEngineResponse carries a response and its already-split blocks.
// The driver persists both in a single transaction; Blocks must be empty
// when Error is set.
type CreateEngineResponse struct {
	UID           string
	Engine        string
	Provider      string
	Error         string
	CreatedTs     int64
	UserMessageID int64
	LatencyMs     int64
	InputTokens   int32
	OutputTokens  int32
	CostUSD       float64
	Blocks        []*CreateResponseBlock
}

type FindEngineResponse struct {
	ID            *int64
	UID           *string
	UserMessageID *int64
	Engine        *string
}

type DeleteEngineResponse struct {
	ID int64
}
