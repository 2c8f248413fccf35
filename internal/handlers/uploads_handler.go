package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/damacus/iron-files/internal/browser"
	"github.com/damacus/iron-files/internal/models"
	"github.com/damacus/iron-files/internal/session"
	"github.com/damacus/iron-files/internal/transfer"
)

// filePartPrefix names the multipart fields carrying files: file-0, file-1, ...
const filePartPrefix = "file-"

type UploadsHandler struct {
	orchestrator *transfer.Orchestrator
	holder       *session.Holder
	boards       *transfer.Boards
	maxMemory    int64
	log          zerolog.Logger
}

func NewUploadsHandler(orchestrator *transfer.Orchestrator, holder *session.Holder, boards *transfer.Boards, maxMemory int64, log zerolog.Logger) *UploadsHandler {
	return &UploadsHandler{orchestrator: orchestrator, holder: holder, boards: boards, maxMemory: maxMemory, log: log}
}

type uploadResponse struct {
	Response
	Count   int                  `json:"count"`
	Failed  int                  `json:"failed"`
	Tasks   []models.UploadTask  `json:"tasks"`
	Objects []models.ObjectEntry `json:"objects"`
}

type tasksResponse struct {
	Response
	Tasks []models.UploadTask `json:"tasks"`
}

// Upload puts every file part under prefix. The answer is 200 once the batch
// ran, whatever the per-file outcomes; success is true only if all completed.
func (h *UploadsHandler) Upload(c echo.Context) error {
	req := c.Request()
	if err := req.ParseMultipartForm(h.maxMemory); err != nil {
		return badRequest(c, "Expected a multipart form")
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	cfg, err := ResolveConfig(c, json.RawMessage(req.FormValue("config")))
	if err != nil {
		return Fail(c, err, "")
	}
	prefix := browser.NormalizePrefix(req.FormValue("prefix"))

	files := filesFromForm(req.MultipartForm)
	if len(files) == 0 {
		return badRequest(c, "No files uploaded")
	}

	board := h.boards.Get(h.holder.SessionID(c))
	result := h.orchestrator.Upload(req.Context(), cfg, prefix, files, board)
	if len(result.Tasks) == 0 {
		return Fail(c, result.Err, "Failed to upload files")
	}

	resp := uploadResponse{
		Response: Response{Success: result.Success()},
		Count:    result.Completed,
		Failed:   result.Failed,
		Tasks:    result.Tasks,
		Objects:  result.Objects,
	}
	switch {
	case result.Err != nil:
		resp.Message = fmt.Sprintf("Uploaded %d of %d file(s): %v", result.Completed, len(result.Tasks), result.Err)
	case result.ListErr != nil:
		resp.Message = fmt.Sprintf("Successfully uploaded %d file(s); refreshing the listing failed", result.Completed)
	default:
		resp.Message = fmt.Sprintf("Successfully uploaded %d file(s)", result.Completed)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListUploads returns the visible tasks of the session, as the progress
// fragment when format=html is asked for.
func (h *UploadsHandler) ListUploads(c echo.Context) error {
	tasks := h.sessionTasks(c)
	if c.QueryParam("format") == "html" {
		return c.Render(http.StatusOK, "upload_progress", tasks)
	}
	return c.JSON(http.StatusOK, tasksResponse{Response: Response{Success: true}, Tasks: tasks})
}

func (h *UploadsHandler) sessionTasks(c echo.Context) []models.UploadTask {
	if id, ok := SessionID(c); ok {
		if board, found := h.boards.Lookup(id); found {
			return board.Tasks()
		}
	}
	return []models.UploadTask{}
}

// filesFromForm collects file-N parts in index order
func filesFromForm(form *multipart.Form) []transfer.File {
	if form == nil {
		return nil
	}

	type part struct {
		index  int
		name   string
		header *multipart.FileHeader
	}
	var parts []part
	for field, headers := range form.File {
		if !strings.HasPrefix(field, filePartPrefix) {
			continue
		}
		index, err := strconv.Atoi(strings.TrimPrefix(field, filePartPrefix))
		if err != nil {
			index = -1
		}
		for _, fh := range headers {
			parts = append(parts, part{index: index, name: field, header: fh})
		}
	}
	sort.SliceStable(parts, func(i, j int) bool {
		if parts[i].index != parts[j].index {
			return parts[i].index < parts[j].index
		}
		return parts[i].name < parts[j].name
	})

	files := make([]transfer.File, 0, len(parts))
	for _, p := range parts {
		fh := p.header
		files = append(files, transfer.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

