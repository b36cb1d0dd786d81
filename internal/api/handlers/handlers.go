package handlers

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/student-performance/internal/api/httpx"
	"github.com/baharkarakas/student-performance/internal/api/views"
	"github.com/baharkarakas/student-performance/internal/middleware"
)

// Base is shared by the page handlers.
type Base struct {
	Views    *views.Renderer
	Sessions *middleware.SessionAuth
	Log      *slog.Logger
}

// render pops the flash cookie and renders page for the request's user.
func (b *Base) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	p := views.Page{
		Title:    title,
		Username: middleware.FromCtx(r.Context()).Username,
		Flash:    httpx.PopFlash(w, r),
		Data:     data,
	}
	b.renderPage(w, r, status, page, p)
}

func (b *Base) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, p views.Page) {
	if err := b.Views.Render(w, status, page, p); err != nil {
		b.Log.ErrorContext(r.Context(), "render", "page", page, "err", err, "request_id", middleware.RequestIDFrom(r.Context()))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (b *Base) Home(w http.ResponseWriter, r *http.Request) {
	b.render(w, r, http.StatusOK, "index", "Home", nil)
}
