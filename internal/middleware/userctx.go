package middleware

import (
	"context"
	"time"
)

type sessionKey struct{}

// Session is the logged-in identity and current data file of a request.
type Session struct {
	UserID    string
	Username  string
	FileID    string
	TokenID   string
	ExpiresAt time.Time
}

func (s Session) LoggedIn() bool { return s.UserID != "" }

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromCtx returns the request session, or the zero Session when logged out.
func FromCtx(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionKey{}).(Session); ok {
		return s
	}
	return Session{}
}
