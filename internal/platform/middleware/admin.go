package middleware

import (
	"net/http"

	"deedbook/pkg/secrets"
)

// RequireAdminToken guards the admin surface with an X-Admin-Token header
// verified against a bcrypt hash from config. An empty hash disables the
// surface entirely.
func RequireAdminToken(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			token := r.Header.Get("X-Admin-Token")
			if token == "" || secrets.Verify(token, tokenHash) != nil {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
