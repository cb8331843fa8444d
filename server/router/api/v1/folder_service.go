package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/chorus/store"
)

type CreateFolderRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	ParentID  *int32 `json:"parent_id"`
	CreatorID int32  `json:"creator_id"`
}

type UpdateFolderRequest struct {
	Name     *string `json:"name"`
	Color    *string `json:"color"`
	ParentID *int32  `json:"parent_id"`
}

func (s *APIV1Service) createFolder(c echo.Context) error {
	ctx := c.Request().Context()
	req := &CreateFolderRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	folder, err := s.Conversations.CreateFolder(ctx, req.CreatorID, req.Name, req.Color, req.ParentID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, folder)
}

func (s *APIV1Service) listFolders(c echo.Context) error {
	ctx := c.Request().Context()
	find := &store.FindFolder{}
	if parent := c.QueryParam("parent"); parent != "" {
		parentID, err := parseID32(parent)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid parent id")
		}
		find.ParentID = &parentID
	}

	folders, err := s.Conversations.ListFolders(ctx, find)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, folders)
}

func (s *APIV1Service) updateFolder(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID32(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid folder id")
	}

	req := &UpdateFolderRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	folder, err := s.Conversations.UpdateFolder(ctx, &store.UpdateFolder{
		ID:       id,
		Name:     req.Name,
		Color:    req.Color,
		ParentID: req.ParentID,
	})
	if err != nil {
		return toHTTPError(err)
	}
	if folder == nil {
		return echo.NewHTTPError(http.StatusNotFound, "folder not found")
	}
	return c.JSON(http.StatusOK, folder)
}

func (s *APIV1Service) deleteFolder(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID32(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid folder id")
	}
	if err := s.Conversations.DeleteFolder(ctx, id); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
