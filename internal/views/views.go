// Package views holds the page templates and the Fiber view engine that
// renders them.
package views

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templatesFS embed.FS

// Layout wraps every page.
const Layout = "layouts/base"

// Options configures the engine.
type Options struct {
	// MediaURL prefixes stored image paths.
	MediaURL string
	// MediaRoot is where uploads live on disk; previews are looked up there.
	MediaRoot string
	// Reload re-parses templates on every render (development only).
	Reload bool
}

// New returns an html engine over the embedded templates.
func New(opts Options) *html.Engine {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(fmt.Sprintf("views: %v", err))
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.Reload(opts.Reload)
	for name, fn := range funcs(opts) {
		engine.AddFunc(name, fn)
	}
	return engine
}

func funcs(opts Options) map[string]any {
	mediaURL := opts.MediaURL
	if mediaURL == "" {
		mediaURL = "/media"
	}
	mediaRoot := opts.MediaRoot
	if mediaRoot == "" {
		mediaRoot = service.DefaultMediaRoot
	}
	media := func(rel string) string {
		if rel == "" {
			return ""
		}
		return strings.TrimRight(mediaURL, "/") + "/" + strings.TrimLeft(rel, "/")
	}
	return map[string]any{
		"media": media,
		"preview": func(rel string) string {
			return media(service.DisplayImagePath(mediaRoot, rel))
		},
		"postURL": func(p models.Post) string {
			return service.PostPath(p.Author.Username, p.ID)
		},
		"date": func(t time.Time) string {
			return t.Format("02 Jan 2006 15:04")
		},
		"fieldErrors": func(errs models.FieldErrors, field string) []string {
			return errs[field]
		},
		"idString": func(id uint) string {
			return fmt.Sprintf("%d", id)
		},
	}
}
