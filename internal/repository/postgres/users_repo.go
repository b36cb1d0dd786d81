package postgres

import (
	"context"

	"github.com/baharkarakas/student-performance/internal/models"
	"github.com/baharkarakas/student-performance/internal/repository"
	"github.com/google/uuid"
)

type usersRepo struct{ db repository.DBTX }

func NewUsers(db repository.DBTX) repository.Users {
	return &usersRepo{db: db}
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

func (r *usersRepo) Create(ctx context.Context, username, email, hash string) (models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx,
		`INSERT INTO users(id, username, email, password_hash) VALUES($1,$2,$3,$4)
		 RETURNING `+userColumns,
		uuid.NewString(), username, email, hash,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, mapErr(err)
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *usersRepo) getBy(ctx context.Context, col, v string) (models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+col+`=$1`, v,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, mapErr(err)
}
