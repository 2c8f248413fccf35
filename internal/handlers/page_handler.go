package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/damacus/iron-files/internal/browser"
	"github.com/damacus/iron-files/internal/middleware"
	"github.com/damacus/iron-files/internal/models"
	"github.com/damacus/iron-files/internal/services"
	"github.com/damacus/iron-files/internal/transfer"
)

const defaultRegion = "us-east-1"

// PageData feeds both the connect page and the file manager page
type PageData struct {
	Config        *services.Configuration
	CSRFToken     string
	DefaultRegion string
	Prefix        string
	Parent        string
	Breadcrumbs   []models.Breadcrumb
	Objects       []models.ObjectEntry
	Tasks         []models.UploadTask
	Error         string
}

type PageHandler struct {
	explorer *browser.Explorer
	boards   *transfer.Boards
	log      zerolog.Logger
}

func NewPageHandler(explorer *browser.Explorer, boards *transfer.Boards, log zerolog.Logger) *PageHandler {
	return &PageHandler{explorer: explorer, boards: boards, log: log}
}

// Index shows the connect form until a configuration is saved, then the
// listing of ?prefix=. A failed listing renders the page with an error.
func (h *PageHandler) Index(c echo.Context) error {
	data := PageData{DefaultRegion: defaultRegion}
	if token, ok := c.Get(echomw.DefaultCSRFConfig.ContextKey).(string); ok {
		data.CSRFToken = token
	}

	cfg, ok := middleware.ConfigFromContext(c)
	if !ok {
		return c.Render(http.StatusOK, "connect", data)
	}

	redacted := cfg.Redacted()
	prefix := browser.NormalizePrefix(c.QueryParam("prefix"))
	data.Config = &redacted
	data.Prefix = prefix
	data.Parent = browser.ParentPrefix(prefix)
	data.Breadcrumbs = browser.Breadcrumbs(prefix)
	data.Tasks = []models.UploadTask{}

	objects, err := h.explorer.List(c.Request().Context(), cfg, prefix)
	if err != nil {
		h.log.Warn().Err(err).Str("prefix", prefix).Msg("listing for page failed")
		data.Objects = []models.ObjectEntry{}
		data.Error = "Failed to fetch files: " + err.Error()
	} else {
		data.Objects = objects
	}

	if id, ok := SessionID(c); ok {
		if board, found := h.boards.Lookup(id); found {
			board.Navigate(prefix)
			data.Tasks = board.Tasks()
		}
	}
	return c.Render(http.StatusOK, "browser", data)
}
