package middleware

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/student-performance/internal/api/httpx"
	"github.com/baharkarakas/student-performance/internal/auth"
	"github.com/baharkarakas/student-performance/internal/session"
)

const SessionCookie = "session"

// SessionAuth reads, issues and revokes the session cookie.
type SessionAuth struct {
	SM      *auth.SessionManager
	Revoker session.Revoker
	Secure  bool
	log     *slog.Logger
}

func NewSessionAuth(sm *auth.SessionManager, rv session.Revoker, secure bool, log *slog.Logger) *SessionAuth {
	return &SessionAuth{SM: sm, Revoker: rv, Secure: secure, log: log}
}

// Load puts the Session of a valid, unrevoked cookie on the request context.
// Requests without one pass through logged out.
func (m *SessionAuth) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.SM.Parse(c.Value)
		if err != nil {
			m.Clear(w)
			next.ServeHTTP(w, r)
			return
		}
		revoked, err := m.Revoker.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			m.log.WarnContext(r.Context(), "revocation check failed", "err", err, "request_id", RequestIDFrom(r.Context()))
			next.ServeHTTP(w, r)
			return
		}
		if revoked {
			m.Clear(w)
			next.ServeHTTP(w, r)
			return
		}
		s := Session{
			UserID:   claims.UserID,
			Username: claims.Username,
			FileID:   claims.FileID,
			TokenID:  claims.ID,
		}
		if claims.ExpiresAt != nil {
			s.ExpiresAt = claims.ExpiresAt.Time
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// Issue signs a new token and sets it as the session cookie.
func (m *SessionAuth) Issue(w http.ResponseWriter, userID, username, fileID string) error {
	tok, claims, err := m.SM.Issue(userID, username, fileID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    tok,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		MaxAge:   int(m.SM.TTL().Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Reissue replaces the request's session token with one carrying fileID and
// revokes the old token id.
func (m *SessionAuth) Reissue(w http.ResponseWriter, r *http.Request, fileID string) error {
	s := FromCtx(r.Context())
	if err := m.Issue(w, s.UserID, s.Username, fileID); err != nil {
		return err
	}
	if s.TokenID != "" {
		if err := m.Revoker.Revoke(r.Context(), s.TokenID, s.ExpiresAt); err != nil {
			m.log.ErrorContext(r.Context(), "revoke replaced session", "err", err, "user_id", s.UserID)
		}
	}
	return nil
}

func (m *SessionAuth) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Logout revokes the request's token until it expires and clears the cookie.
func (m *SessionAuth) Logout(w http.ResponseWriter, r *http.Request) {
	if s := FromCtx(r.Context()); s.TokenID != "" {
		if err := m.Revoker.Revoke(r.Context(), s.TokenID, s.ExpiresAt); err != nil {
			m.log.ErrorContext(r.Context(), "revoke session", "err", err, "user_id", s.UserID)
		}
	}
	m.Clear(w)
}

// RequireLogin redirects logged out requests to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromCtx(r.Context()).LoggedIn() {
			httpx.SetFlash(w, httpx.FlashInfo, "Please log in first.")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
