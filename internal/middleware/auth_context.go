package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gatitown/internal/platform/httpx"
	"gatitown/internal/platform/logger"
	"gatitown/internal/ports/auth"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// AuthContext:
// - Si verifier != nil, toma el id de sesión de la cookie (o de un Bearer) y setea claims.
// - Si verifier == nil => modo dev: X-Debug-User-ID (+ X-Debug-Role opcional) setean claims.
// - Si no hay claims, el request sigue igual; los handlers decidirán si exigen auth.
// - Si el verifier falla por algo que no es auth.ErrInvalidSession, responde 500.
func AuthContext(verifier auth.SessionVerifier, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Dev mode: permitir inyectar user sin verifier
			if verifier == nil {
				if uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID")); uid != "" {
					claims := auth.Claims{
						UserID: uid,
						Role:   auth.Role(strings.ToUpper(strings.TrimSpace(r.Header.Get("X-Debug-Role")))),
					}
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			sessionID := SessionID(r)
			if sessionID == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), sessionID)
			switch {
			case errors.Is(err, auth.ErrInvalidSession):
				// No cortamos aquí. El handler (o RequireAdmin) decide 401/403.
				next.ServeHTTP(w, r)
				return
			case err != nil:
				log.Error("session verification failed", map[string]any{
					"err":        err,
					"request_id": chimw.GetReqID(r.Context()),
				})
				httpx.WriteError(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// SessionID lee el id de sesión: primero la cookie, después Authorization: Bearer.
func SessionID(r *http.Request) string {
	if c, err := r.Cookie(auth.SessionCookieName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
