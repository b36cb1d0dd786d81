// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/baharkarakas/student-performance/internal/api/httpx"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"index", "register", "login", "dashboard", "upload", "preview", "predict", "result",
}

// Page is the data every template receives.
type Page struct {
	Title    string
	Username string
	Flash    *httpx.Flash
	Data     any
}

type Renderer struct {
	tmpl map[string]*template.Template
}

var funcs = template.FuncMap{
	"cell": Cell,
}

// New parses the layout with each page.
func New() (*Renderer, error) {
	r := &Renderer{tmpl: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+p+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		r.tmpl[p] = t
	}
	return r, nil
}

// Render executes page into a buffer before writing, so a template error
// still produces a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data Page) error {
	t, ok := r.tmpl[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Cell formats a table cell for display. Missing cells are blank.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	}
	return fmt.Sprint(v)
}
