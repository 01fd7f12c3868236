package middleware

import (
	"net/http"
	"strings"

	"github.com/mobilityp/errorsender/internal/auth"
)

// AdminToken guards admin routes with a bearer token checked against a
// bcrypt hash. With no hash configured the routes answer 404.
func AdminToken(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hash == "" {
				http.NotFound(w, r)
				return
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || !auth.Verify(hash, token) {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
