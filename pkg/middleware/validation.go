// pkg/middleware/validation.go

package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

const maxBodySize = 1 << 20

// ErrorResponse is the body written when a request is rejected before it
// reaches a handler.
type ErrorResponse struct {
	Error string      `json:"error"`
	Field string      `json:"field,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

// ValidateRequest rejects POST and PUT requests that are not JSON or have no
// body, and caps the body size.
func ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.Contains(contentType, "application/json") {
				render.Status(r, http.StatusUnsupportedMediaType)
				render.JSON(w, r, ErrorResponse{Error: "Invalid Content-Type, expected application/json"})
				return
			}

			if r.ContentLength == 0 {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, ErrorResponse{Error: "Request body cannot be empty"})
				return
			}
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

		next.ServeHTTP(w, r)
	})
}
