package notehubtest

import (
	"net/http"
	"strings"
)

// AuthMiddleware rejects requests that do not carry "Authorization: Bearer <token>".
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			got := strings.TrimPrefix(auth, "Bearer ")
			if !strings.HasPrefix(auth, "Bearer ") || got == "" || got != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("Invalid or missing token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
