package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid session token")

// SessionManager signs and parses the session cookie token. The token is
// the only place the logged-in user and current data file are kept.
type SessionManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(secret, issuer string, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"usr"`
	FileID   string `json:"fid,omitempty"`
	jwt.RegisteredClaims
}

func (sm *SessionManager) TTL() time.Duration { return sm.ttl }

// Issue signs a fresh token with a new token id.
func (sm *SessionManager) Issue(userID, username, fileID string) (string, *Claims, error) {
	now := sm.now()
	c := &Claims{
		UserID:   userID,
		Username: username,
		FileID:   fileID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    sm.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(sm.secret)
	if err != nil {
		return "", nil, err
	}
	return tok, c, nil
}

func (sm *SessionManager) Parse(tokenStr string) (*Claims, error) {
	c := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, c, func(t *jwt.Token) (any, error) {
		return sm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sm.issuer),
		jwt.WithTimeFunc(sm.now),
	)
	if err != nil || c.UserID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}
