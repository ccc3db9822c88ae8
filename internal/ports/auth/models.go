package auth

import "strings"

// Role es el rol de una cuenta.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Claims representa la identidad resuelta a partir de la sesión.
type Claims struct {
	UserID    string
	Email     string
	Name      string
	Role      Role
	SessionID string
}

// Authenticated indica si hay un usuario detrás de los claims.
func (c Claims) Authenticated() bool {
	return strings.TrimSpace(c.UserID) != ""
}

func (c Claims) IsAdmin() bool {
	return c.Authenticated() && c.Role == RoleAdmin
}

// SessionCookieName es la cookie donde viaja el id de sesión.
const SessionCookieName = "auth_session"
