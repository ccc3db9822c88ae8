package cats

import "context"

// Filter selecciona gatos por estado. Campos vacíos no filtran.
type Filter struct {
	ReviewStatus   ReviewStatus
	AdoptionStatus AdoptionStatus
}

// Repository es el gateway de persistencia. Las implementaciones devuelven
// las listas ordenadas por created_at desc y cada gato con sus fotos.
type Repository interface {
	// Create guarda el gato y sus fotos juntos.
	Create(ctx context.Context, c Cat) error
	GetByID(ctx context.Context, id string) (Cat, error)
	List(ctx context.Context, f Filter) ([]Cat, error)

	// Updates atómicos de un solo registro. Devuelven ErrNotFound si no existe.
	// UpdateReviewStatus solo aplica sobre PENDING: si el gato ya tiene otra
	// decisión devuelve ErrBadState; si ya tiene la misma, nil.
	UpdateReviewStatus(ctx context.Context, id string, status ReviewStatus) error
	UpdateAdoptionStatus(ctx context.Context, id string, status AdoptionStatus) error
}
