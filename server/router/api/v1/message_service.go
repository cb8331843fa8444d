package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/chorus/chat"
	"github.com/hrygo/chorus/store"
)

type CreateMessageRequest struct {
	Content     string             `json:"content"`
	Attachments []store.Attachment `json:"attachments"`
	// Dispatch fans the turn out to the active engine roster. Without it the
	// message only opens a turn; responses arrive via recordResponse.
	Dispatch bool `json:"dispatch"`
}

type RecordResponseRequest struct {
	Engine       string  `json:"engine"`
	Provider     string  `json:"provider"`
	Content      string  `json:"content"`
	Error        string  `json:"error"`
	LatencyMs    int64   `json:"latency_ms"`
	InputTokens  int32   `json:"input_tokens"`
	OutputTokens int32   `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
}

func (s *APIV1Service) createMessage(c echo.Context) error {
	ctx := c.Request().Context()
	conversation, err := s.Conversations.GetConversationByUID(ctx, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}

	req := &CreateMessageRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content must not be empty")
	}

	if req.Dispatch {
		message, responses, err := s.Dispatcher.DispatchTurn(ctx, conversation.ID, req.Content, req.Attachments)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(http.StatusCreated, map[string]any{
			"message":   message,
			"responses": responses,
		})
	}

	message, err := s.Ingestor.RecordUserMessage(ctx, conversation.ID, req.Content, req.Attachments)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, message)
}

func (s *APIV1Service) listMessages(c echo.Context) error {
	ctx := c.Request().Context()
	conversation, err := s.Conversations.GetConversationByUID(ctx, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}

	messages, err := s.Store.ListUserMessages(ctx, &store.FindUserMessage{ConversationID: &conversation.ID})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, messages)
}

func (s *APIV1Service) listResponses(c echo.Context) error {
	ctx := c.Request().Context()
	messageID, err := parseID64(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid message id")
	}

	message, err := s.Store.GetUserMessage(ctx, messageID)
	if err != nil {
		return toHTTPError(err)
	}
	if message == nil {
		return echo.NewHTTPError(http.StatusNotFound, "message not found")
	}

	responses, err := s.Store.ListEngineResponses(ctx, &store.FindEngineResponse{UserMessageID: &messageID})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, responses)
}

// recordResponse ingests one engine's answer for an open turn. This is the
// push path for deployments where engine invocation happens outside chorus.
func (s *APIV1Service) recordResponse(c echo.Context) error {
	ctx := c.Request().Context()
	messageID, err := parseID64(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid message id")
	}

	req := &RecordResponseRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Engine == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "engine name must not be empty")
	}
	if req.Content == "" && req.Error == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "either content or error is required")
	}

	response, err := s.Ingestor.RecordEngineResponse(ctx, messageID, &chat.EngineResult{
		Engine:       req.Engine,
		Provider:     req.Provider,
		Content:      req.Content,
		Err:          req.Error,
		LatencyMs:    req.LatencyMs,
		InputTokens:  req.InputTokens,
		OutputTokens: req.OutputTokens,
		CostUSD:      req.CostUSD,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, response)
}
