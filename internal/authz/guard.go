// Package authz concentra el chequeo de rol que antes se repetía en cada endpoint admin.
package authz

import (
	"errors"

	"gatitown/internal/ports/auth"
)

var (
	ErrUnauthenticated = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
)

// RequireAdmin falla con ErrUnauthenticated si no hay sesión y con ErrForbidden
// si la sesión existe pero no es ADMIN.
func RequireAdmin(c auth.Claims) error {
	if !c.Authenticated() {
		return ErrUnauthenticated
	}
	if c.Role != auth.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
