// Package middleware provides HTTP middleware for access-key authentication.
package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AuthHeader carries the shared access key
const AuthHeader = "X-Auth-Key"

// RequireKey creates middleware that rejects requests whose X-Auth-Key does not match key.
// An empty key disables the check. Paths in open are served without a key, as are
// CORS preflight requests.
func RequireKey(key string, open ...string) func(http.Handler) http.Handler {
	public := make(map[string]bool, len(open))
	for _, p := range open {
		public[p] = true
	}

	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			presented := r.Header.Get(AuthHeader)
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
