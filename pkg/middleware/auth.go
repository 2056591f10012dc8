// pkg/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/terang55/rainbow-rich-auth-server/pkg/hash"
)

// BasicAuth protects a handler with a single username and password.
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			userOK := hash.ConstantTimeEqual(user, username)
			passOK := hash.ConstantTimeEqual(pass, password)
			if !ok || !userOK || !passOK {
				w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
