package middleware

import (
	"crypto/subtle"
	"net/http"

	"address-rest-api/pkg/apierror"
)

// NewAdminKeyMiddleware guards administrative routes with a shared
// key supplied in the X-Admin-Key header. An empty configured key
// disables the guard (development mode).
func NewAdminKeyMiddleware(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
				writeError(w, apierror.Unauthorized("Invalid or missing admin key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}
