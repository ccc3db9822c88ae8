package cats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gatitown/internal/authz"
	"gatitown/internal/platform/logger"
	"gatitown/internal/platform/metrics"
	"gatitown/internal/ports/auth"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("cat not found")
	ErrBadState     = errors.New("invalid state")
)

const (
	DefaultCity         = "Tijuana"
	DefaultUploadPrefix = "/uploads/cats"
)

type Options struct {
	City         string
	UploadPrefix string
	Logger       logger.Logger
	Metrics      *metrics.Workflow
}

type Service struct {
	repo      Repository
	validator *Validator
	log       logger.Logger
	metrics   *metrics.Workflow
	now       func() time.Time
}

func NewService(repo Repository, opts Options) *Service {
	city := strings.TrimSpace(opts.City)
	if city == "" {
		city = DefaultCity
	}
	prefix := strings.TrimSpace(opts.UploadPrefix)
	if prefix == "" {
		prefix = DefaultUploadPrefix
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Service{
		repo:      repo,
		validator: NewValidator(city, prefix),
		log:       log.With(map[string]any{"component": "cats"}),
		metrics:   opts.Metrics,
		now:       time.Now,
	}
}

// Submit valida una publicación pública y la guarda como PENDING/AVAILABLE.
// Si la validación falla devuelve *ValidationError y no se persiste nada.
func (s *Service) Submit(ctx context.Context, p Payload) (Cat, error) {
	c, err := s.validator.Validate(p)
	if err != nil {
		s.metrics.Submission(false)
		return Cat{}, err
	}

	c.ID = uuid.NewString()
	c.CreatedAt = s.now()
	for i := range c.Photos {
		c.Photos[i].ID = uuid.NewString()
		c.Photos[i].CatID = c.ID
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Cat{}, fmt.Errorf("create cat: %w", err)
	}

	s.metrics.Submission(true)
	s.log.Info("cat submitted for review", map[string]any{"cat_id": c.ID})
	return c, nil
}

// ListAvailable es la vista pública: APPROVED + AVAILABLE.
func (s *Service) ListAvailable(ctx context.Context) ([]Cat, error) {
	return s.list(ctx, Filter{ReviewStatus: ReviewApproved, AdoptionStatus: AdoptionAvailable})
}

// GetPublic devuelve un gato solo si aparece en la vista pública.
func (s *Service) GetPublic(ctx context.Context, id string) (Cat, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return Cat{}, err
	}
	if c.ReviewStatus != ReviewApproved || c.AdoptionStatus != AdoptionAvailable {
		return Cat{}, ErrNotFound
	}
	return c, nil
}

func (s *Service) ListPending(ctx context.Context, caller auth.Claims) ([]Cat, error) {
	if err := authz.RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.list(ctx, Filter{ReviewStatus: ReviewPending})
}

// ListApproved incluye cualquier estado de adopción.
func (s *Service) ListApproved(ctx context.Context, caller auth.Claims) ([]Cat, error) {
	if err := authz.RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.list(ctx, Filter{ReviewStatus: ReviewApproved})
}

// Stats resume las dos listas admin en contadores.
type Stats struct {
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Adopted   int `json:"adopted"`
}

func (s *Service) Stats(ctx context.Context, caller auth.Claims) (Stats, error) {
	pending, err := s.ListPending(ctx, caller)
	if err != nil {
		return Stats{}, err
	}
	approved, err := s.ListApproved(ctx, caller)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{Pending: len(pending), Approved: len(approved)}
	for _, c := range approved {
		switch c.AdoptionStatus {
		case AdoptionAvailable:
			st.Available++
		case AdoptionReserved:
			st.Reserved++
		case AdoptionAdopted:
			st.Adopted++
		}
	}
	return st, nil
}

// Review aplica la decisión del admin: PENDING -> APPROVED | REJECTED.
// Repetir la misma decisión es idempotente; cambiar una decisión ya tomada es ErrBadState.
func (s *Service) Review(ctx context.Context, caller auth.Claims, catID string, action ReviewAction) (Cat, error) {
	if err := authz.RequireAdmin(caller); err != nil {
		return Cat{}, err
	}

	action = ReviewAction(strings.TrimSpace(string(action)))

	var target ReviewStatus
	switch action {
	case ActionApprove:
		target = ReviewApproved
	case ActionReject:
		target = ReviewRejected
	default:
		return Cat{}, &ValidationError{Fields: []FieldError{
			{Field: "action", Message: "must be one of: approve, reject"},
		}}
	}

	c, err := s.get(ctx, catID)
	if err != nil {
		return Cat{}, err
	}

	// Idempotente
	if c.ReviewStatus == target {
		return c, nil
	}
	if c.ReviewStatus != ReviewPending {
		return Cat{}, ErrBadState
	}

	if err := s.repo.UpdateReviewStatus(ctx, c.ID, target); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return Cat{}, ErrNotFound
		case errors.Is(err, ErrBadState):
			// otra revisión llegó primero
			return Cat{}, ErrBadState
		}
		return Cat{}, fmt.Errorf("update review status: %w", err)
	}
	c.ReviewStatus = target

	s.metrics.Review(string(action))
	s.log.Info("cat reviewed", map[string]any{
		"cat_id":   c.ID,
		"status":   string(target),
		"admin_id": caller.UserID,
	})
	return c, nil
}

// SetAdoptionStatus cambia la disponibilidad en cualquier dirección.
func (s *Service) SetAdoptionStatus(ctx context.Context, caller auth.Claims, catID string, status AdoptionStatus) (Cat, error) {
	if err := authz.RequireAdmin(caller); err != nil {
		return Cat{}, err
	}

	status = AdoptionStatus(strings.TrimSpace(string(status)))
	if !status.Valid() {
		return Cat{}, &ValidationError{Fields: []FieldError{
			{Field: "adoptionStatus", Message: "must be one of: AVAILABLE, RESERVED, ADOPTED"},
		}}
	}

	c, err := s.get(ctx, catID)
	if err != nil {
		return Cat{}, err
	}

	// No se bloquea, pero queda registrado: un gato sin aprobar no debería cambiar de estado.
	if c.ReviewStatus != ReviewApproved {
		s.log.Warn("adoption status changed on non-approved cat", map[string]any{
			"cat_id":        c.ID,
			"review_status": string(c.ReviewStatus),
			"admin_id":      caller.UserID,
		})
	}

	if c.AdoptionStatus == status {
		return c, nil
	}

	if err := s.repo.UpdateAdoptionStatus(ctx, c.ID, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Cat{}, ErrNotFound
		}
		return Cat{}, fmt.Errorf("update adoption status: %w", err)
	}
	c.AdoptionStatus = status

	s.metrics.AdoptionChange(string(status))
	s.log.Info("adoption status changed", map[string]any{
		"cat_id":   c.ID,
		"status":   string(status),
		"admin_id": caller.UserID,
	})
	return c, nil
}

func (s *Service) get(ctx context.Context, id string) (Cat, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Cat{}, ErrInvalidInput
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Cat{}, ErrNotFound
		}
		return Cat{}, fmt.Errorf("get cat: %w", err)
	}
	return withOrderedPhotos(c), nil
}

func (s *Service) list(ctx context.Context, f Filter) ([]Cat, error) {
	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list cats: %w", err)
	}

	out := make([]Cat, 0, len(items))
	for _, c := range items {
		out = append(out, withOrderedPhotos(c))
	}

	// El repo ya ordena, pero el contrato de la vista es created_at desc.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// withOrderedPhotos deja la foto principal primero y exactamente una marcada.
// Si ninguna está marcada, la primera pasa a ser la principal.
func withOrderedPhotos(c Cat) Cat {
	if len(c.Photos) == 0 {
		return c
	}

	primary, _ := c.PrimaryPhoto()
	photos := make([]Photo, 0, len(c.Photos))
	primary.IsPrimary = true
	photos = append(photos, primary)

	skipped := false
	for _, p := range c.Photos {
		if !skipped && p.ID == primary.ID && p.URL == primary.URL {
			skipped = true
			continue
		}
		p.IsPrimary = false
		photos = append(photos, p)
	}

	c.Photos = photos
	return c
}
