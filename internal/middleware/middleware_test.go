package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gatitown/internal/platform/logger"
	"gatitown/internal/ports/auth"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	sessions map[string]auth.Claims
	err      error
	calls    int
}

func (f *fakeVerifier) Verify(ctx context.Context, sessionID string) (auth.Claims, error) {
	f.calls++
	if f.err != nil {
		return auth.Claims{}, f.err
	}
	c, ok := f.sessions[sessionID]
	if !ok {
		return auth.Claims{}, auth.ErrInvalidSession
	}
	return c, nil
}

// captureClaims devuelve un handler que guarda las claims del request.
func captureClaims(got *auth.Claims, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *found = GetClaims(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthContextDevHeaders(t *testing.T) {
	var got auth.Claims
	var found bool
	h := AuthContext(nil, nil)(captureClaims(&got, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "u1")
	req.Header.Set("X-Debug-Role", "admin")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, found)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, auth.RoleAdmin, got.Role)

	found = false
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, found)
}

func TestAuthContextCookieAndBearer(t *testing.T) {
	v := &fakeVerifier{sessions: map[string]auth.Claims{
		"s1": {UserID: "u1", Role: auth.RoleAdmin, SessionID: "s1"},
	}}

	var got auth.Claims
	var found bool
	h := AuthContext(v, nil)(captureClaims(&got, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "s1"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, found)
	assert.Equal(t, "u1", got.UserID)

	found = false
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer s1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, found)
	assert.Equal(t, "s1", got.SessionID)

	// con verifier, los headers dev se ignoran
	found = false
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "intruso")
	req.Header.Set("X-Debug-Role", "ADMIN")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, found)
	assert.Equal(t, 2, v.calls)
}

func TestAuthContextInvalidSessionContinuesAnonymous(t *testing.T) {
	v := &fakeVerifier{sessions: map[string]auth.Claims{}}

	var got auth.Claims
	var found bool
	h := AuthContext(v, nil)(captureClaims(&got, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "vencida"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, found)
}

func TestAuthContextVerifierFailureIsInternalError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})
	v := &fakeVerifier{err: errors.New("get session: connection refused")}

	called := false
	h := AuthContext(v, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "s1"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal error")
	assert.False(t, called)
	assert.Contains(t, buf.String(), "connection refused")
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("BEARER  abc "))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken(""))
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAdmin(ok)

	cases := []struct {
		name   string
		claims *auth.Claims
		want   int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"empty claims", &auth.Claims{}, http.StatusUnauthorized},
		{"user", &auth.Claims{UserID: "u1", Role: auth.RoleUser}, http.StatusForbidden},
		{"admin", &auth.Claims{UserID: "u1", Role: auth.RoleAdmin}, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), *tc.claims))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestRequestLoggerLevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})

	h := chimw.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/public/cats/x", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"path":"/api/public/cats/x"`)
	assert.Contains(t, out, `"request_id"`)
}
