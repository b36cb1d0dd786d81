package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/baharkarakas/student-performance/internal/apperr"
	"github.com/baharkarakas/student-performance/internal/auth"
	"github.com/baharkarakas/student-performance/internal/models"
	repo "github.com/baharkarakas/student-performance/internal/repository"
)

var (
	ErrUsernameTaken      = &apperr.Error{Kind: apperr.KindValidation, Message: "Username already taken! Try another."}
	ErrEmailTaken         = &apperr.Error{Kind: apperr.KindValidation, Message: "Email already registered! Try logging in."}
	ErrInvalidCredentials = &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid Username or Password!"}
)

type UserService struct {
	r   repo.Users
	log *slog.Logger
}

func NewUserService(r repo.Users, log *slog.Logger) *UserService {
	return &UserService{r: r, log: log.With("service", "UserService")}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	u := models.User{Username: strings.TrimSpace(username), Email: strings.TrimSpace(email)}
	if err := u.Validate(); err != nil {
		return models.User{}, apperr.Validation("%s", err.Error())
	}

	_, err := s.r.GetByUsername(ctx, u.Username)
	switch {
	case err == nil:
		return models.User{}, ErrUsernameTaken
	case !errors.Is(err, repo.ErrNotFound):
		return models.User{}, apperr.Storage("look up user", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, apperr.Validation("password cannot be used: %v", err)
	}
	created, err := s.r.Create(ctx, u.Username, u.Email, hash)
	if errors.Is(err, repo.ErrDuplicate) {
		if strings.Contains(err.Error(), "username") {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, ErrEmailTaken
	}
	if err != nil {
		return models.User{}, apperr.Storage("create user", err)
	}
	s.log.InfoContext(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// Authenticate returns the user for valid credentials. Unknown users and
// wrong passwords produce the same error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	u, err := s.r.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, apperr.Storage("look up user", err)
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		s.log.DebugContext(ctx, "login rejected", "user_id", u.ID)
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}
