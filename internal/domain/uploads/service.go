package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"gatitown/internal/platform/logger"
	"gatitown/internal/ports/photos"

	"github.com/google/uuid"
)

var (
	ErrEmpty           = errors.New("no file uploaded")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

const DefaultMaxBytes int64 = 5 << 20

// extensiones por content type detectado; jpeg se guarda como .jpg
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

type Options struct {
	MaxBytes int64
	Logger   logger.Logger
}

type Service struct {
	store    photos.Store
	maxBytes int64
	log      logger.Logger
	newID    func() string
}

func NewService(store photos.Store, opts Options) *Service {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:    store,
		maxBytes: maxBytes,
		log:      log.With(map[string]any{"component": "uploads"}),
		newID:    uuid.NewString,
	}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Upload lee la foto completa, detecta el tipo por contenido (no por el header
// del cliente) y la guarda con un nombre nuevo. Devuelve la URL pública.
func (s *Service) Upload(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := s.newID() + "." + ext
	url, err := s.store.Save(ctx, name, contentType, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}

	s.log.Info("cat photo uploaded", map[string]any{
		"name":  name,
		"bytes": len(data),
		"type":  contentType,
	})
	return url, nil
}
