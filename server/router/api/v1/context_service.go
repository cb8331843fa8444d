package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *APIV1Service) getContext(c echo.Context) error {
	ctx := c.Request().Context()
	conversation, err := s.Conversations.GetConversationByUID(ctx, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}

	turns, err := s.Assembler.GetConversationContext(ctx, conversation.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, turns)
}

func (s *APIV1Service) getTurnContext(c echo.Context) error {
	ctx := c.Request().Context()
	conversation, err := s.Conversations.GetConversationByUID(ctx, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}

	turnNumber, err := parseID32(c.Param("turn"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid turn number")
	}

	turn, err := s.Assembler.GetTurnContext(ctx, conversation.ID, turnNumber)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, turn)
}
