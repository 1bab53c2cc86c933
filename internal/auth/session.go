package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// SessionCookie is the cookie name the console frontend sends.
const SessionCookie = "console_session"

// ErrNoSession means the token is absent, unknown or expired; callers treat
// all three the same.
var ErrNoSession = errors.New("no valid session")

// Session identifies an authenticated console user.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStore resolves opaque tokens to sessions. Session issuance lives
// here too so operators and tests can mint tokens; login flows are not this
// service's job.
type SessionStore interface {
	GetSession(ctx context.Context, token string) (*Session, error)
	Issue(ctx context.Context, userID, userName string, ttl time.Duration) (*Session, error)
	Revoke(ctx context.Context, token string) error
}

// TokenFromRequest extracts the session token from the Authorization bearer
// header, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
