package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"gatitown/internal/domain/cats"
)

type catRepo struct {
	mu   sync.RWMutex
	byID map[string]cats.Cat
}

func NewCatRepo() cats.Repository {
	return &catRepo{
		byID: make(map[string]cats.Cat),
	}
}

func (r *catRepo) Create(ctx context.Context, c cats.Cat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("cat id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("cat already exists")
	}
	r.byID[c.ID] = clone(c)
	return nil
}

func (r *catRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return cats.Cat{}, cats.ErrNotFound
	}
	return clone(c), nil
}

func (r *catRepo) List(ctx context.Context, f cats.Filter) ([]cats.Cat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]cats.Cat, 0)
	for _, c := range r.byID {
		if f.ReviewStatus != "" && c.ReviewStatus != f.ReviewStatus {
			continue
		}
		if f.AdoptionStatus != "" && c.AdoptionStatus != f.AdoptionStatus {
			continue
		}
		out = append(out, clone(c))
	}

	// created_at desc; el id desempata para que el orden sea estable
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *catRepo) UpdateReviewStatus(ctx context.Context, id string, status cats.ReviewStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return cats.ErrNotFound
	}
	switch c.ReviewStatus {
	case status:
		return nil
	case cats.ReviewPending:
	default:
		return cats.ErrBadState
	}
	c.ReviewStatus = status
	r.byID[id] = c
	return nil
}

func (r *catRepo) UpdateAdoptionStatus(ctx context.Context, id string, status cats.AdoptionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return cats.ErrNotFound
	}
	c.AdoptionStatus = status
	r.byID[id] = c
	return nil
}

// clone evita que el caller modifique las fotos guardadas por referencia.
func clone(c cats.Cat) cats.Cat {
	if c.Photos != nil {
		photos := make([]cats.Photo, len(c.Photos))
		copy(photos, c.Photos)
		c.Photos = photos
	}
	return c
}
