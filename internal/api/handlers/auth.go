package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/baharkarakas/student-performance/internal/api/httpx"
	"github.com/baharkarakas/student-performance/internal/api/validate"
	"github.com/baharkarakas/student-performance/internal/api/views"
	"github.com/baharkarakas/student-performance/internal/apperr"
	"github.com/baharkarakas/student-performance/internal/middleware"
	"github.com/baharkarakas/student-performance/internal/models"
	"github.com/baharkarakas/student-performance/internal/services"
)

type AuthHandler struct {
	*Base
	Users    *services.UserService
	Datasets *services.DatasetService
	Training *services.TrainingService
}

type registerForm struct {
	Username string `form:"username" validate:"required,min=3,max=50"`
	Email    string `form:"email" validate:"required,email,max=100"`
	Password string `form:"password" validate:"required,maxbytes=72"`
}

type loginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", "Register", nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Redirect(w, r, "/register", httpx.FlashError, "Invalid form submission")
		return
	}
	f := registerForm{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	if err := validate.Struct(f); err != nil {
		httpx.Redirect(w, r, "/register", httpx.FlashError, err.Error())
		return
	}

	_, err := h.Users.Register(r.Context(), f.Username, f.Email, f.Password)
	if err != nil {
		if !apperr.Is(err, apperr.KindValidation) {
			h.Log.ErrorContext(r.Context(), "register", "err", err, "request_id", middleware.RequestIDFrom(r.Context()))
		}
		httpx.Redirect(w, r, "/register", httpx.FlashError, apperr.Public(err))
		return
	}
	httpx.Redirect(w, r, "/login", httpx.FlashSuccess, "Account created successfully! Please log in.")
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", "Log in", "")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f := loginForm{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}

	var u models.User
	err := validate.Struct(f)
	if err == nil {
		u, err = h.Users.Authenticate(r.Context(), f.Username, f.Password)
	}
	if err != nil {
		var verrs validate.Errs
		if !errors.As(err, &verrs) && !errors.Is(err, services.ErrInvalidCredentials) {
			h.Log.ErrorContext(r.Context(), "login", "err", err, "request_id", middleware.RequestIDFrom(r.Context()))
		}
		h.renderPage(w, r, http.StatusOK, "login", views.Page{
			Title: "Log in",
			Flash: &httpx.Flash{Level: httpx.FlashError, Message: "Invalid Username or Password!"},
			Data:  f.Username,
		})
		return
	}

	if err := h.Sessions.Issue(w, u.ID, u.Username, ""); err != nil {
		h.Log.ErrorContext(r.Context(), "issue session", "err", err)
		httpx.Redirect(w, r, "/login", httpx.FlashError, "internal error")
		return
	}
	httpx.Redirect(w, r, "/dashboard", httpx.FlashSuccess, "Login Successful!")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(w, r)
	httpx.Redirect(w, r, "/login", httpx.FlashInfo, "You have been logged out.")
}

type dashboardData struct {
	Filename string
	Rows     int
	Run      *models.TrainingRun
}

func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s := middleware.FromCtx(r.Context())
	var d dashboardData

	if s.FileID != "" {
		f, tbl, err := h.Datasets.Load(r.Context(), s.UserID, s.FileID)
		switch {
		case err == nil:
			d.Filename, d.Rows = f.Filename, tbl.Len()
			run, ok, err := h.Training.LatestRun(r.Context(), f.ID)
			if err != nil {
				h.Log.WarnContext(r.Context(), "latest run", "err", err, "file_id", f.ID)
			} else if ok {
				d.Run = &run
			}
		case apperr.Is(err, apperr.KindNotFound):
		default:
			h.Log.ErrorContext(r.Context(), "dashboard", "err", err)
		}
	}
	h.render(w, r, http.StatusOK, "dashboard", "Dashboard", d)
}
