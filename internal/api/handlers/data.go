package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/baharkarakas/student-performance/internal/api/httpx"
	"github.com/baharkarakas/student-performance/internal/apperr"
	"github.com/baharkarakas/student-performance/internal/middleware"
	"github.com/baharkarakas/student-performance/internal/services"
)

type DataHandler struct {
	*Base
	Datasets       *services.DatasetService
	MaxUploadBytes int64
}

func (h *DataHandler) UploadPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "upload", "Upload", nil)
}

func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	s := middleware.FromCtx(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			msg := fmt.Sprintf("Error processing file: upload exceeds %d bytes", h.MaxUploadBytes)
			httpx.Redirect(w, r, "/upload", httpx.FlashError, msg)
			return
		}
		httpx.Redirect(w, r, "/upload", httpx.FlashError, services.ErrNoFile.Message)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Redirect(w, r, "/upload", httpx.FlashError, services.ErrNoFile.Message)
		return
	}
	defer file.Close()

	df, err := h.Datasets.Upload(r.Context(), s.UserID, header.Filename, file)
	if err != nil {
		h.Log.WarnContext(r.Context(), "upload rejected", "err", err, "filename", header.Filename, "user_id", s.UserID)
		httpx.Redirect(w, r, "/upload", httpx.FlashError, apperr.Public(err))
		return
	}

	if err := h.Sessions.Reissue(w, r, df.ID); err != nil {
		h.Log.ErrorContext(r.Context(), "issue session", "err", err)
		httpx.Redirect(w, r, "/upload", httpx.FlashError, "internal error")
		return
	}
	httpx.Redirect(w, r, "/preview", httpx.FlashSuccess, "File uploaded and processed successfully!")
}

func (h *DataHandler) Preview(w http.ResponseWriter, r *http.Request) {
	s := middleware.FromCtx(r.Context())
	p, err := h.Datasets.Preview(r.Context(), s.UserID, s.FileID)
	if err != nil {
		httpx.Redirect(w, r, "/upload", httpx.FlashError, apperr.Public(err))
		return
	}
	h.render(w, r, http.StatusOK, "preview", "Preview", p)
}
