package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/damacus/iron-files/internal/browser"
	"github.com/damacus/iron-files/internal/models"
	"github.com/damacus/iron-files/internal/services"
	"github.com/damacus/iron-files/internal/transfer"
)

// Navigation actions
const (
	ActionEnter = "enter"
	ActionBack  = "back"
)

type FilesHandler struct {
	explorer *browser.Explorer
	boards   *transfer.Boards
	log      zerolog.Logger
}

func NewFilesHandler(explorer *browser.Explorer, boards *transfer.Boards, log zerolog.Logger) *FilesHandler {
	return &FilesHandler{explorer: explorer, boards: boards, log: log}
}

type listRequest struct {
	Config json.RawMessage `json:"config"`
	Prefix string          `json:"prefix"`
}

type listResponse struct {
	Response
	Objects []models.ObjectEntry `json:"objects"`
}

type navigateRequest struct {
	Config    json.RawMessage `json:"config"`
	Prefix    string          `json:"prefix"`
	Action    string          `json:"action"`
	FolderKey string          `json:"folderKey"`
}

type navigateResponse struct {
	Response
	Prefix      string               `json:"prefix"`
	Parent      string               `json:"parent"`
	Breadcrumbs []models.Breadcrumb  `json:"breadcrumbs"`
	Objects     []models.ObjectEntry `json:"objects"`
}

type createFolderRequest struct {
	Config     json.RawMessage `json:"config"`
	FolderName string          `json:"folderName"`
	Prefix     string          `json:"prefix"`
}

type createFolderResponse struct {
	Response
	Key     string               `json:"key"`
	Objects []models.ObjectEntry `json:"objects"`
}

type deleteRequest struct {
	Config json.RawMessage `json:"config"`
	Key    string          `json:"key"`
	Prefix *string         `json:"prefix"`
}

type deleteResponse struct {
	Response
	// Set only when the request named a prefix to re-list
	Objects *[]models.ObjectEntry `json:"objects,omitempty"`
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, Response{Message: message})
}

// ListFiles returns the entries of one prefix
func (h *FilesHandler) ListFiles(c echo.Context) error {
	var req listRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	cfg, err := ResolveConfig(c, req.Config)
	if err != nil {
		return Fail(c, err, "")
	}

	prefix := browser.NormalizePrefix(req.Prefix)
	objects, err := h.explorer.List(c.Request().Context(), cfg, prefix)
	if err != nil {
		return Fail(c, err, "Failed to fetch files")
	}
	h.navigated(c, prefix)

	return c.JSON(http.StatusOK, listResponse{Response: Response{Success: true}, Objects: objects})
}

// Navigate enters a folder or goes back one level, then lists the new prefix
func (h *FilesHandler) Navigate(c echo.Context) error {
	var req navigateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	cfg, err := ResolveConfig(c, req.Config)
	if err != nil {
		return Fail(c, err, "")
	}

	nav := browser.NewNavigator(req.Prefix)
	switch req.Action {
	case ActionEnter:
		if !strings.HasSuffix(req.FolderKey, services.Delimiter) {
			return badRequest(c, "folderKey must be a folder key ending with \"/\"")
		}
		nav.EnterFolder(req.FolderKey)
	case ActionBack:
		nav.GoBack()
	default:
		return badRequest(c, "action must be \"enter\" or \"back\"")
	}

	prefix := nav.Current()
	objects, err := h.explorer.List(c.Request().Context(), cfg, prefix)
	if err != nil {
		return Fail(c, err, "Failed to fetch files")
	}
	h.navigated(c, prefix)

	return c.JSON(http.StatusOK, navigateResponse{
		Response:    Response{Success: true},
		Prefix:      prefix,
		Parent:      browser.ParentPrefix(prefix),
		Breadcrumbs: browser.Breadcrumbs(prefix),
		Objects:     objects,
	})
}

// CreateFolder writes a folder marker under prefix
func (h *FilesHandler) CreateFolder(c echo.Context) error {
	var req createFolderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	cfg, err := ResolveConfig(c, req.Config)
	if err != nil {
		return Fail(c, err, "")
	}

	key, objects, err := h.explorer.CreateFolder(c.Request().Context(), cfg, browser.NormalizePrefix(req.Prefix), req.FolderName)
	if err != nil && key == "" {
		return Fail(c, err, "Failed to create folder")
	}
	resp := createFolderResponse{Response: Response{Success: true, Message: "Folder created successfully"}, Key: key, Objects: objects}
	if err != nil {
		// Created, but the re-listing failed
		resp.Message = "Folder created; refreshing the listing failed: " + err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteObject removes a single key. Folder contents are left in place.
func (h *FilesHandler) DeleteObject(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	cfg, err := ResolveConfig(c, req.Config)
	if err != nil {
		return Fail(c, err, "")
	}
	if strings.TrimSpace(req.Key) == "" {
		return badRequest(c, "Config and key are required")
	}

	ctx := c.Request().Context()
	if err := h.explorer.Delete(ctx, cfg, req.Key); err != nil {
		return Fail(c, err, "Failed to delete file")
	}

	resp := deleteResponse{Response: Response{Success: true, Message: "File deleted successfully"}}
	if req.Prefix != nil {
		objects, err := h.explorer.List(ctx, cfg, browser.NormalizePrefix(*req.Prefix))
		if err != nil {
			h.log.Warn().Err(err).Msg("re-listing after delete failed")
		} else {
			resp.Objects = &objects
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *FilesHandler) navigated(c echo.Context, prefix string) {
	if id, ok := SessionID(c); ok {
		if board, found := h.boards.Lookup(id); found {
			board.Navigate(prefix)
		}
	}
}
