package auth

import (
	"context"
	"errors"
)

// ErrInvalidSession: sesión inexistente, vencida o sin usuario. Es el único error
// que deja seguir el request como anónimo; cualquier otro es una falla del store.
var ErrInvalidSession = errors.New("invalid session")

// SessionVerifier valida un identificador de sesión y devuelve claims o error.
type SessionVerifier interface {
	Verify(ctx context.Context, sessionID string) (Claims, error)
}
