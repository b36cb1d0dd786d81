package postgres

import (
	"errors"
	"fmt"

	repo "github.com/baharkarakas/student-performance/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repositories struct {
	Users        repo.Users
	DataFiles    repo.DataFiles
	TrainingRuns repo.TrainingRuns
}

func NewRepositories(db repo.DBTX) Repositories {
	return Repositories{
		Users:        &usersRepo{db},
		DataFiles:    &dataFilesRepo{db},
		TrainingRuns: &trainingRunsRepo{db},
	}
}

const uniqueViolation = "23505"

// mapErr translates driver errors into repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", repo.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
