package postgres

import (
	"context"

	"github.com/baharkarakas/student-performance/internal/models"
	"github.com/baharkarakas/student-performance/internal/repository"
	"github.com/google/uuid"
)

type dataFilesRepo struct{ db repository.DBTX }

func NewDataFiles(db repository.DBTX) repository.DataFiles {
	return &dataFilesRepo{db: db}
}

func (r *dataFilesRepo) Create(ctx context.Context, f models.DataFile) (models.DataFile, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO data_files(id, user_id, filename, data) VALUES($1,$2,$3,$4)
		 RETURNING created_at`,
		f.ID, f.UserID, f.Filename, f.Data,
	).Scan(&f.CreatedAt)
	return f, mapErr(err)
}

func (r *dataFilesRepo) GetByID(ctx context.Context, id string) (models.DataFile, error) {
	var f models.DataFile
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, filename, data, created_at FROM data_files WHERE id=$1`, id,
	).Scan(&f.ID, &f.UserID, &f.Filename, &f.Data, &f.CreatedAt)
	return f, mapErr(err)
}
