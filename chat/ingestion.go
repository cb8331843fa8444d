package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/chorus/chat/splitter"
	"github.com/hrygo/chorus/internal/util"
	"github.com/hrygo/chorus/store"
)

// autoTitleMaxLen caps the auto-generated conversation title length, in runes.
const autoTitleMaxLen = 50

// Ingestor records user messages and engine responses into a conversation.
//
// It owns turn numbering (delegated atomically to the store), first-message
// auto-titling, and the markdown-to-block decomposition of engine output.
type Ingestor struct {
	store *store.Store
}

// NewIngestor creates a new Ingestor.
func NewIngestor(st *store.Store) *Ingestor {
	return &Ingestor{store: st}
}

// RecordUserMessage opens a new turn with the user's input.
//
// The store assigns the turn number atomically, so concurrent sends to the
// same conversation never produce duplicate turns. On the first turn, a
// conversation still carrying its default title is renamed to the message's
// first line; an explicit user rename is never overwritten.
func (in *Ingestor) RecordUserMessage(ctx context.Context, conversationID int32, content string, attachments []store.Attachment) (*store.UserMessage, error) {
	conversation, err := in.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	message, err := in.store.CreateUserMessage(ctx, &store.CreateUserMessage{
		UID:            shortuuid.New(),
		ConversationID: conversationID,
		Content:        content,
		Attachments:    attachments,
		CreatedTs:      time.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("create user message: %w", err)
	}
	userMessageCounter.Inc()

	if message.TurnNumber == 1 && conversation.TitleSource == store.TitleSourceDefault {
		in.autoTitle(ctx, conversation, content)
	}

	slog.Info("recorded user message",
		"conversation_id", conversationID,
		"message_id", message.ID,
		"turn_number", message.TurnNumber,
	)
	return message, nil
}

// autoTitle derives a title from the first message. Failures are logged and
// swallowed: the message itself is already persisted and titling is cosmetic.
func (in *Ingestor) autoTitle(ctx context.Context, conversation *store.Conversation, content string) {
	title := util.Truncate(util.FirstLine(content), autoTitleMaxLen)
	if title == "" {
		return
	}

	now := time.Now().Unix()
	if _, err := in.store.UpdateConversation(ctx, &store.UpdateConversation{
		ID:        conversation.ID,
		Title:     &title,
		UpdatedTs: &now,
	}); err != nil {
		slog.Warn("failed to auto-title conversation",
			"conversation_id", conversation.ID,
			"error", err,
		)
	}
}

// EngineResult is one engine's outcome for a dispatched turn.
// Exactly one of Content and Err is meaningful: a failed call carries an
// error and produces a response row with no blocks.
type EngineResult struct {
	Engine       string
	Provider     string
	Content      string
	Err          string
	LatencyMs    int64
	InputTokens  int32
	OutputTokens int32
	CostUSD      float64
}

// RecordEngineResponse persists one engine's answer to a turn.
//
// Successful content is split into typed blocks before the write; the
// response and its blocks land in a single transaction so a response is
// never observable half-split. A failed result is stored with its error
// and zero blocks, keeping the turn's engine roster complete.
func (in *Ingestor) RecordEngineResponse(ctx context.Context, userMessageID int64, result *EngineResult) (*store.EngineResponse, error) {
	message, err := in.store.GetUserMessage(ctx, userMessageID)
	if err != nil {
		return nil, fmt.Errorf("get user message: %w", err)
	}
	if message == nil {
		return nil, ErrUnknownTurn
	}

	// Responses carry full UUIDs; short IDs are reserved for the handles
	// users see (conversations, messages, folders).
	create := &store.CreateEngineResponse{
		UID:           util.GenUUID(),
		UserMessageID: userMessageID,
		Engine:        result.Engine,
		Provider:      result.Provider,
		Error:         result.Err,
		LatencyMs:     result.LatencyMs,
		InputTokens:   result.InputTokens,
		OutputTokens:  result.OutputTokens,
		CostUSD:       result.CostUSD,
		CreatedTs:     time.Now().Unix(),
	}

	status := "error"
	if result.Err == "" {
		status = "ok"
		blocks := splitter.Split(result.Content)
		create.Blocks = make([]*store.CreateResponseBlock, 0, len(blocks))
		for _, block := range blocks {
			create.Blocks = append(create.Blocks, &store.CreateResponseBlock{
				Type:     block.Type,
				Content:  block.Content,
				Metadata: block.Metadata,
			})
			responseBlockCounter.WithLabelValues(string(block.Type)).Inc()
		}
	}

	response, err := in.store.CreateEngineResponse(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("create engine response: %w", err)
	}
	engineResponseCounter.WithLabelValues(result.Engine, status).Inc()

	slog.Info("recorded engine response",
		"message_id", userMessageID,
		"engine", result.Engine,
		"blocks", len(response.Blocks),
		"failed", response.Failed(),
	)
	return response, nil
}
