package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/chorus/store"
)

type SelectBlockRequest struct {
	BlockID int64 `json:"block_id"`
}

type ReorderSelectionRequest struct {
	BlockIDs []int64 `json:"block_ids"`
}

// resolveTurn loads the message behind :id and its owning conversation ID.
func (s *APIV1Service) resolveTurn(c echo.Context) (*store.UserMessage, error) {
	messageID, err := parseID64(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid message id")
	}
	message, err := s.Store.GetUserMessage(c.Request().Context(), messageID)
	if err != nil {
		return nil, toHTTPError(err)
	}
	if message == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "message not found")
	}
	return message, nil
}

func (s *APIV1Service) listSelection(c echo.Context) error {
	message, err := s.resolveTurn(c)
	if err != nil {
		return err
	}
	selected, err := s.Selections.ListSelection(c.Request().Context(), message.ConversationID, message.ID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, selected)
}

func (s *APIV1Service) selectBlock(c echo.Context) error {
	message, err := s.resolveTurn(c)
	if err != nil {
		return err
	}

	req := &SelectBlockRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	preferred, err := s.Selections.SelectBlock(c.Request().Context(), message.ConversationID, message.ID, req.BlockID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, preferred)
}

func (s *APIV1Service) deselectBlock(c echo.Context) error {
	message, err := s.resolveTurn(c)
	if err != nil {
		return err
	}

	blockID, err := parseID64(c.Param("blockID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid block id")
	}

	if err := s.Selections.DeselectBlock(c.Request().Context(), message.ConversationID, message.ID, blockID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) reorderSelection(c echo.Context) error {
	message, err := s.resolveTurn(c)
	if err != nil {
		return err
	}

	req := &ReorderSelectionRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	if err := s.Selections.Reorder(c.Request().Context(), message.ConversationID, message.ID, req.BlockIDs); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusOK)
}
