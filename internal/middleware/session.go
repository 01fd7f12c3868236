package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const contextKeyUser contextKey = "user"

// SessionReader resolves a session ID to the user it belongs to.
type SessionReader interface {
	CurrentUser(ctx context.Context, sessionID string) (string, error)
}

// Session resolves the session cookie to a user and stores it in the request
// context. Requests without a usable session continue anonymously. A nil
// reader disables the lookup.
func Session(sessions SessionReader, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions == nil {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessions.CurrentUser(r.Context(), cookie.Value)
			if err != nil {
				slog.Warn("session: lookup failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the session user, or "" for anonymous requests.
func UserFromContext(ctx context.Context) string {
	v, _ := ctx.Value(contextKeyUser).(string)
	return v
}
