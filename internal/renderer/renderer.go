package renderer

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"github.com/damacus/iron-files/internal/utils"
)

//go:embed views
var views embed.FS

//go:embed static
var static embed.FS

// TemplateRenderer implements echo.Renderer
type TemplateRenderer struct {
	Templates map[string]*template.Template
}

// New creates a new TemplateRenderer with pre-parsed templates
func New() *TemplateRenderer {
	r := &TemplateRenderer{
		Templates: make(map[string]*template.Template),
	}
	r.parseTemplates()
	return r
}

// Static returns the embedded stylesheet and script assets
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Funcs are the helpers available to every template
func Funcs() template.FuncMap {
	return template.FuncMap{
		"relTime": relTime,
		"date":    utils.FormatTimestamp,
	}
}

func relTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return humanize.Time(*t)
}

func (t *TemplateRenderer) parseTemplates() {
	// Layout + page + upload progress partial
	parse := func(name, pageFile string) {
		t.Templates[name] = template.Must(template.New(name).Funcs(Funcs()).ParseFS(views,
			"views/layouts/base.html",
			"views/partials/upload_progress.html",
			"views/pages/"+pageFile,
		))
	}

	parse("connect", "connect.html")
	parse("browser", "browser.html")

	t.Templates["upload_progress"] = template.Must(template.New("upload_progress").Funcs(Funcs()).
		ParseFS(views, "views/partials/upload_progress.html"))
}

// selfExecutingTemplates lists templates that execute their own named block instead of "base"
var selfExecutingTemplates = map[string]bool{
	"upload_progress": true,
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.Templates[name]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Template not found: "+name)
	}

	if selfExecutingTemplates[name] {
		return tmpl.ExecuteTemplate(w, name, data)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}
