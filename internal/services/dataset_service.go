package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/baharkarakas/student-performance/internal/apperr"
	"github.com/baharkarakas/student-performance/internal/dataset"
	"github.com/baharkarakas/student-performance/internal/metrics"
	"github.com/baharkarakas/student-performance/internal/models"
	repo "github.com/baharkarakas/student-performance/internal/repository"
)

const PreviewRows = 100

var (
	ErrNoFile       = &apperr.Error{Kind: apperr.KindValidation, Message: "No file selected"}
	ErrBadExtension = &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid file type. Allowed: csv, xlsx"}
	ErrNoCurrent    = &apperr.Error{Kind: apperr.KindValidation, Message: "Please upload a file first"}
	ErrFileNotFound = &apperr.Error{Kind: apperr.KindNotFound, Message: "File not found"}
)

type DatasetService struct {
	files repo.DataFiles
	log   *slog.Logger
}

func NewDatasetService(files repo.DataFiles, log *slog.Logger) *DatasetService {
	return &DatasetService{files: files, log: log.With("service", "DatasetService")}
}

// Upload parses, cleans and stores one uploaded file.
func (s *DatasetService) Upload(ctx context.Context, userID, filename string, r io.Reader) (models.DataFile, error) {
	name := SafeFilename(filename)
	if name == "" {
		return models.DataFile{}, ErrNoFile
	}
	if !dataset.Allowed(name) {
		return models.DataFile{}, ErrBadExtension
	}

	raw, err := dataset.Parse(name, r)
	if err != nil {
		return models.DataFile{}, apperr.Validation("Error processing file: %v", err)
	}
	tbl := dataset.Clean(raw)
	data, err := tbl.Encode()
	if err != nil {
		return models.DataFile{}, apperr.Validation("Error processing file: %v", err)
	}

	f, err := s.files.Create(ctx, models.DataFile{UserID: userID, Filename: name, Data: data})
	if err != nil {
		return models.DataFile{}, apperr.Storage("store data file", err)
	}
	metrics.UploadsTotal.WithLabelValues(dataset.Ext(name)).Inc()
	s.log.InfoContext(ctx, "dataset uploaded", "file_id", f.ID, "rows", tbl.Len(), "columns", len(tbl.Columns))
	return f, nil
}

// Load returns the file and its table when fileID belongs to userID.
func (s *DatasetService) Load(ctx context.Context, userID, fileID string) (models.DataFile, *dataset.Table, error) {
	if fileID == "" {
		return models.DataFile{}, nil, ErrNoCurrent
	}
	f, err := s.files.GetByID(ctx, fileID)
	if errors.Is(err, repo.ErrNotFound) {
		return models.DataFile{}, nil, ErrFileNotFound
	}
	if err != nil {
		return models.DataFile{}, nil, apperr.Storage("load data file", err)
	}
	if f.UserID != userID {
		return models.DataFile{}, nil, ErrFileNotFound
	}
	tbl, err := dataset.Decode(f.Data)
	if err != nil {
		return models.DataFile{}, nil, apperr.Storage("decode data file", err)
	}
	return f, tbl, nil
}

type Preview struct {
	Filename string
	Columns  []string
	Rows     [][]any
	Total    int
}

func (s *DatasetService) Preview(ctx context.Context, userID, fileID string) (Preview, error) {
	f, tbl, err := s.Load(ctx, userID, fileID)
	if err != nil {
		return Preview{}, err
	}
	shown := tbl.Without("email").Head(PreviewRows)
	return Preview{Filename: f.Filename, Columns: shown.Columns, Rows: shown.Rows, Total: tbl.Len()}, nil
}

// SafeFilename reduces a client supplied name to a plain base name made of
// letters, digits, dot, dash and underscore.
func SafeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if len(out) > 120 {
		out = out[len(out)-120:]
	}
	return out
}
