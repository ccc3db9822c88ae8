package middleware

import (
	"errors"
	"net/http"

	"gatitown/internal/authz"
	"gatitown/internal/platform/httpx"
)

// RequireAdmin corta el request antes de llegar al handler si no hay sesión (401)
// o si la sesión no es ADMIN (403).
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := GetClaims(r.Context())
		if err := authz.RequireAdmin(claims); err != nil {
			if errors.Is(err, authz.ErrUnauthenticated) {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			httpx.WriteError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
