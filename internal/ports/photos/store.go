package photos

import (
	"context"
	"io"
)

// Store guarda los bytes de una foto y devuelve la URL pública con la que se sirve.
// name ya viene generado por el caller (uuid + extensión), el store no lo cambia.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}
