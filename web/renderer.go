package web

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

// Renderer plugs pongo2 templates into echo. In debug mode templates load
// from the local directory on every request instead of the embedded copy.
type Renderer struct {
	set *pongo2.TemplateSet
}

var _ echo.Renderer = (*Renderer)(nil)

func NewRenderer(dir string, fsys fs.FS, debug bool) *Renderer {
	var loader pongo2.TemplateLoader
	if debug {
		loader = pongo2.MustNewLocalFileSystemLoader("web/" + strings.TrimSuffix(dir, "/"))
	} else {
		sub, err := fs.Sub(fsys, strings.TrimSuffix(dir, "/"))
		if err != nil {
			panic(fmt.Sprintf("embedded templates missing: %v", err))
		}
		loader = pongo2.NewFSLoader(sub)
	}
	set := pongo2.NewSet("web", loader)
	set.Debug = debug
	return &Renderer{set: set}
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	var ctx pongo2.Context
	switch d := data.(type) {
	case nil:
		ctx = pongo2.Context{}
	case pongo2.Context:
		ctx = d
	default:
		return fmt.Errorf("renderer: expected pongo2.Context, got %T", data)
	}

	tpl, err := r.set.FromCache(name)
	if err != nil {
		return fmt.Errorf("loading template %q: %w", name, err)
	}
	return tpl.ExecuteWriter(ctx, w)
}
