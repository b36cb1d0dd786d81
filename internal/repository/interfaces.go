package repository

import (
	"context"
	"errors"

	"github.com/baharkarakas/student-performance/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Users interface {
	Create(ctx context.Context, username, email, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

type DataFiles interface {
	Create(ctx context.Context, f models.DataFile) (models.DataFile, error)
	GetByID(ctx context.Context, id string) (models.DataFile, error)
}

type TrainingRuns interface {
	Create(ctx context.Context, r models.TrainingRun) (models.TrainingRun, error)
	LatestForFile(ctx context.Context, dataFileID string) (models.TrainingRun, error)
}
