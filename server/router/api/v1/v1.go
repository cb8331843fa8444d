// Package v1 exposes the REST surface of the chorus server.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/chorus/chat"
	"github.com/hrygo/chorus/internal/profile"
	"github.com/hrygo/chorus/store"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	Conversations *chat.ConversationService
	Ingestor      *chat.Ingestor
	Selections    *chat.SelectionManager
	Assembler     *chat.Assembler
	Dispatcher    *chat.Dispatcher
}

func NewAPIV1Service(profile *profile.Profile, st *store.Store) *APIV1Service {
	ingestor := chat.NewIngestor(st)
	assembler := chat.NewAssembler(st)
	return &APIV1Service{
		Profile:       profile,
		Store:         st,
		Conversations: chat.NewConversationService(st),
		Ingestor:      ingestor,
		Selections:    chat.NewSelectionManager(st),
		Assembler:     assembler,
		Dispatcher:    chat.NewDispatcher(st, ingestor, assembler, profile.EngineParallelism),
	}
}

// RegisterRoutes wires all handlers into the echo server.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group("/api/v1")

	g.POST("/conversations", s.createConversation)
	g.GET("/conversations", s.listConversations)
	g.GET("/conversations/:uid", s.getConversation)
	g.PATCH("/conversations/:uid", s.updateConversation)
	g.DELETE("/conversations/:uid", s.deleteConversation)

	g.GET("/conversations/:uid/engines", s.listEngines)
	g.POST("/conversations/:uid/engines", s.addEngine)
	g.DELETE("/conversations/:uid/engines/:engine", s.removeEngine)

	g.POST("/folders", s.createFolder)
	g.GET("/folders", s.listFolders)
	g.PATCH("/folders/:id", s.updateFolder)
	g.DELETE("/folders/:id", s.deleteFolder)

	g.POST("/conversations/:uid/messages", s.createMessage)
	g.GET("/conversations/:uid/messages", s.listMessages)
	g.GET("/messages/:id/responses", s.listResponses)
	g.POST("/messages/:id/responses", s.recordResponse)

	g.GET("/messages/:id/selection", s.listSelection)
	g.POST("/messages/:id/selection", s.selectBlock)
	g.DELETE("/messages/:id/selection/:blockID", s.deselectBlock)
	g.PUT("/messages/:id/selection/order", s.reorderSelection)

	g.GET("/conversations/:uid/context", s.getContext)
	g.GET("/conversations/:uid/context/:turn", s.getTurnContext)
}

// toHTTPError maps domain sentinels onto HTTP status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, chat.ErrDuplicateSelection):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrInvalidSelection), errors.Is(err, chat.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrConversationNotFound),
		errors.Is(err, chat.ErrUnknownTurn),
		errors.Is(err, chat.ErrUnknownBlock):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
