package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/chorus/store"
)

type EngineSpec struct {
	Engine   string `json:"engine"`
	Provider string `json:"provider"`
}

type CreateConversationRequest struct {
	FolderID  *int32       `json:"folder_id"`
	Engines   []EngineSpec `json:"engines"`
	CreatorID int32        `json:"creator_id"`
}

type UpdateConversationRequest struct {
	Title    *string `json:"title"`
	Pinned   *bool   `json:"pinned"`
	Archived *bool   `json:"archived"`
	// SetFolder distinguishes "move out of any folder" (true with null
	// folder_id) from "leave the folder unchanged" (false).
	SetFolder bool   `json:"set_folder"`
	FolderID  *int32 `json:"folder_id"`
}

func (s *APIV1Service) createConversation(c echo.Context) error {
	ctx := c.Request().Context()
	req := &CreateConversationRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	engines := make([]*store.UpsertConversationEngine, 0, len(req.Engines))
	for _, spec := range req.Engines {
		if spec.Engine == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "engine name must not be empty")
		}
		engines = append(engines, &store.UpsertConversationEngine{
			Engine:   spec.Engine,
			Provider: spec.Provider,
		})
	}

	conversation, err := s.Conversations.CreateConversation(ctx, req.CreatorID, req.FolderID, engines)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, convertConversation(conversation))
}

func (s *APIV1Service) listConversations(c echo.Context) error {
	ctx := c.Request().Context()
	find := &store.FindConversation{}

	if folder := c.QueryParam("folder"); folder != "" {
		folderID, err := parseID32(folder)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid folder id")
		}
		find.FolderID = &folderID
	}
	if pinned := c.QueryParam("pinned"); pinned != "" {
		value := pinned == "true"
		find.Pinned = &value
	}
	switch c.QueryParam("state") {
	case "", "normal":
		status := store.Normal
		find.RowStatus = &status
	case "archived":
		status := store.Archived
		find.RowStatus = &status
	case "all":
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "state must be normal, archived, or all")
	}

	conversations, err := s.Conversations.ListConversations(ctx, find)
	if err != nil {
		return toHTTPError(err)
	}

	result := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		result = append(result, convertConversation(conversation))
	}
	return c.JSON(http.StatusOK, result)
}

func (s *APIV1Service) getConversation(c echo.Context) error {
	ctx := c.Request().Context()
	conversation, err := s.Conversations.GetConversationByUID(ctx, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, convertConversation(conversation))
}

func (s *APIV1Service) updateConversation(c echo.Context) error {
	ctx := c.Request().Context()
	conversation, err := s.Conversations.GetConversationByUID(ctx, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}

	req := &UpdateConversationRequest{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	if req.Title != nil {
		if conversation, err = s.Conversations.RenameConversation(ctx, conversation.ID, *req.Title); err != nil {
			return toHTTPError(err)
		}
	}
	if req.Pinned != nil {
		if conversation, err = s.Conversations.SetPinned(ctx, conversation.ID, *req.Pinned); err != nil {
			return toHTTPError(err)
		}
	}
	if req.Archived != nil {
		if conversation, err = s.Conversations.SetArchived(ctx, conversation.ID, *req.Archived); err != nil {
			return toHTTPError(err)
		}
	}
	if req.SetFolder {
		if conversation, err = s.Conversations.MoveToFolder(ctx, conversation.ID, req.FolderID); err != nil {
			return toHTTPError(err)
		}
	}
	return c.JSON(http.StatusOK, convertConversation(conversation))
}

func (s *APIV1Service) deleteConversation(c echo.Context) error {
	ctx := c.Request().Context()
	conversation, err := s.Conversations.GetConversationByUID(ctx, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}
	if err := s.Conversations.DeleteConversation(ctx, conversation.ID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) listEngines(c echo.Context) error {
	ctx := c.Request().Context()
	conversation, err := s.Conversations.GetConversationByUID(ctx, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}
	engines, err := s.Conversations.ListEngines(ctx, conversation.ID, c.QueryParam("active") == "true")
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, engines)
}

func (s *APIV1Service) addEngine(c echo.Context) error {
	ctx := c.Request().Context()
	conversation, err := s.Conversations.GetConversationByUID(ctx, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}

	req := &EngineSpec{}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Engine == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "engine name must not be empty")
	}

	participation, err := s.Conversations.AddEngine(ctx, conversation.ID, req.Engine, req.Provider)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, participation)
}

func (s *APIV1Service) removeEngine(c echo.Context) error {
	ctx := c.Request().Context()
	conversation, err := s.Conversations.GetConversationByUID(ctx, c.Param("uid"))
	if err != nil {
		return toHTTPError(err)
	}
	if err := s.Conversations.RemoveEngine(ctx, conversation.ID, c.Param("engine")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ConversationResponse is the wire shape of a conversation.
type ConversationResponse struct {
	UID       string `json:"uid"`
	Title     string `json:"title"`
	State     string `json:"state"`
	FolderID  *int32 `json:"folder_id"`
	Pinned    bool   `json:"pinned"`
	TurnCount int32  `json:"turn_count"`
	CreatedTs int64  `json:"created_ts"`
	UpdatedTs int64  `json:"updated_ts"`
}

func convertConversation(conversation *store.Conversation) *ConversationResponse {
	state := "normal"
	if conversation.RowStatus == store.Archived {
		state = "archived"
	}
	return &ConversationResponse{
		UID:       conversation.UID,
		Title:     conversation.Title,
		State:     state,
		FolderID:  conversation.FolderID,
		Pinned:    conversation.Pinned,
		TurnCount: conversation.TurnCount,
		CreatedTs: conversation.CreatedTs,
		UpdatedTs: conversation.UpdatedTs,
	}
}

func parseID32(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

func parseID64(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
