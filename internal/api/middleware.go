package api

import (
	"net/http"

	"github.com/oakline/taskconsole/internal/apperr"
	"github.com/oakline/taskconsole/internal/auth"
)

// RequireSession resolves the caller's session before the handler runs;
// requests without a valid session are rejected before any database access.
func RequireSession(store auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.GetSession(r.Context(), auth.TokenFromRequest(r))
			if err != nil || sess == nil {
				writeErr(w, r, apperr.Unauthorized())
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}
