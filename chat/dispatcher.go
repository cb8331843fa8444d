package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/chorus/store"
)

// EngineCaller invokes one engine with assembled context and returns its raw
// markdown answer. Implementations live outside this package; the dispatcher
// only cares that a call either yields text or an error.
type EngineCaller interface {
	Engine() string
	Provider() string
	Call(ctx context.Context, turns []*TurnContext) (string, error)
}

// Dispatcher fans a new turn out to every active engine of a conversation.
//
// All engines receive the identical assembled context and answer
// independently; one engine failing or answering slowly never blocks the
// others. Results are recorded as they arrive, so responses from different
// engines may land in any order.
type Dispatcher struct {
	store       *store.Store
	ingestor    *Ingestor
	assembler   *Assembler
	callers     map[string]EngineCaller
	parallelism int
}

// NewDispatcher creates a new Dispatcher. parallelism caps concurrent engine
// calls per dispatched turn.
func NewDispatcher(st *store.Store, ingestor *Ingestor, assembler *Assembler, parallelism int) *Dispatcher {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Dispatcher{
		store:       st,
		ingestor:    ingestor,
		assembler:   assembler,
		callers:     make(map[string]EngineCaller),
		parallelism: parallelism,
	}
}

// Register makes a caller available for dispatch under its engine name.
func (d *Dispatcher) Register(caller EngineCaller) {
	d.callers[caller.Engine()] = caller
}

// DispatchTurn records the user message, assembles the conversation context
// including the new turn, and invokes every active engine concurrently.
//
// Each engine's outcome, success or failure, is persisted as a response for
// the turn. The returned slice follows the roster order of the conversation's
// active engines, not completion order.
func (d *Dispatcher) DispatchTurn(ctx context.Context, conversationID int32, content string, attachments []store.Attachment) (*store.UserMessage, []*store.EngineResponse, error) {
	message, err := d.ingestor.RecordUserMessage(ctx, conversationID, content, attachments)
	if err != nil {
		return nil, nil, err
	}

	turns, err := d.assembler.GetConversationContext(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	engines, err := d.store.ListConversationEngines(ctx, &store.FindConversationEngine{
		ConversationID: &conversationID,
		ActiveOnly:     true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list conversation engines: %w", err)
	}
	if len(engines) == 0 {
		slog.Warn("dispatched turn has no active engines",
			"conversation_id", conversationID,
			"turn_number", message.TurnNumber,
		)
		return message, nil, nil
	}

	responses := make([]*store.EngineResponse, len(engines))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.parallelism)
	for i, engine := range engines {
		group.Go(func() error {
			result := d.callEngine(groupCtx, engine, turns)
			response, err := d.ingestor.RecordEngineResponse(groupCtx, message.ID, result)
			if err != nil {
				return fmt.Errorf("record response for %s: %w", engine.Engine, err)
			}
			responses[i] = response
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return message, nil, err
	}
	return message, responses, nil
}

// callEngine runs one caller and folds any failure into an errored result.
// An unregistered engine on the roster is itself a failure.
func (d *Dispatcher) callEngine(ctx context.Context, engine *store.ConversationEngine, turns []*TurnContext) *EngineResult {
	result := &EngineResult{
		Engine:   engine.Engine,
		Provider: engine.Provider,
	}

	caller, ok := d.callers[engine.Engine]
	if !ok {
		result.Err = fmt.Sprintf("engine %s has no registered caller", engine.Engine)
		return result
	}

	start := time.Now()
	content, err := caller.Call(ctx, turns)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		slog.Warn("engine call failed",
			"engine", engine.Engine,
			"error", err,
		)
		result.Err = err.Error()
		return result
	}
	result.Content = content
	return result
}
