package accounts

import (
	"time"

	"gatitown/internal/ports/auth"
)

// User es una cuenta administrativa. Nunca se crea desde endpoints públicos.
type User struct {
	ID           string
	Email        string // único, en minúsculas
	Name         string
	PasswordHash string
	Role         auth.Role
	AvatarURL    *string

	CreatedAt time.Time
}

// Session liga un id opaco (el valor de la cookie) a un usuario.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
