package accounts

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gatitown/internal/middleware"
	"gatitown/internal/platform/httpx"
	"gatitown/internal/platform/logger"
	"gatitown/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

type HandlerOptions struct {
	CookieSecure bool
	Logger       logger.Logger
}

func RegisterRoutes(r chi.Router, svc *Service, opts HandlerOptions) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r.Route("/api/auth", func(ar chi.Router) {
		ar.Post("/login", loginHandler(svc, opts.CookieSecure, log))
		ar.Post("/logout", logoutHandler(svc, opts.CookieSecure, log))
		ar.Get("/me", meHandler(svc, log))
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      auth.Role `json:"role"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
}

type loginResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

// loginHandler godoc
// @Summary  Login de administrador
// @Tags     auth
// @Accept   json
// @Produce  json
// @Success  200 {object} loginResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Router   /api/auth/login [post]
func loginHandler(svc *Service, secure bool, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		sess, u, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				httpx.WriteError(w, http.StatusBadRequest, "email and password required")
			case errors.Is(err, ErrInvalidCredentials):
				httpx.WriteError(w, http.StatusBadRequest, "invalid credentials")
			default:
				log.Error("login failed", map[string]any{"err": err})
				httpx.WriteError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		http.SetCookie(w, sessionCookie(sess.ID, sess.ExpiresAt, secure))
		httpx.WriteJSON(w, http.StatusOK, loginResponse{
			Message: "login ok",
			User:    toUserResponse(u),
		})
	}
}

// logoutHandler invalida la sesión (si había), borra la cookie y redirige al inicio.
//
// @Summary  Cerrar sesión
// @Tags     auth
// @Success  302
// @Router   /api/auth/logout [post]
func logoutHandler(svc *Service, secure bool, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID := middleware.SessionID(r); sessionID != "" {
			if err := svc.Logout(r.Context(), sessionID); err != nil {
				// la cookie se borra igual
				log.Error("logout failed", map[string]any{"err": err})
			}
		}

		http.SetCookie(w, blankSessionCookie(secure))
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// meHandler godoc
// @Summary  Usuario de la sesión actual
// @Tags     auth
// @Produce  json
// @Success  200 {object} userResponse
// @Failure  401 {object} httpx.ErrorResponse
// @Failure  500 {object} httpx.ErrorResponse
// @Router   /api/auth/me [get]
func meHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.Authenticated() {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		u, err := svc.GetUser(r.Context(), claims.UserID)
		switch {
		case errors.Is(err, ErrNotFound):
			// modo dev: claims sin usuario real detrás
			httpx.WriteJSON(w, http.StatusOK, userResponse{ID: claims.UserID, Email: claims.Email, Name: claims.Name, Role: claims.Role})
			return
		case err != nil:
			log.Error("get current user failed", map[string]any{"err": err, "user_id": claims.UserID})
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func sessionCookie(value string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func blankSessionCookie(secure bool) *http.Cookie {
	c := sessionCookie("", time.Unix(0, 0), secure)
	c.MaxAge = -1
	return c
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	}
}
