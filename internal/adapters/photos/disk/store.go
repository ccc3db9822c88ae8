// Package disk guarda las fotos en un directorio local servido como estático.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidName = errors.New("invalid file name")

type Store struct {
	dir          string
	publicPrefix string
}

// New crea el directorio si no existe. publicPrefix es el path HTTP bajo el
// que el router sirve dir (p.ej. "/uploads/cats").
func New(dir, publicPrefix string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("disk store: dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("disk store: %w", err)
	}
	return &Store{
		dir:          dir,
		publicPrefix: "/" + strings.Trim(strings.TrimSpace(publicPrefix), "/"),
	}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save escribe a un temporal y renombra, así nunca se sirve un archivo a medias.
func (s *Store) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close photo: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("chmod photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("rename photo: %w", err)
	}

	return s.publicPrefix + "/" + name, nil
}
