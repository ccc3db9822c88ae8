package cats

import "time"

// Sex define el sexo del gato.
// @Enum MALE, FEMALE, UNKNOWN
type Sex string

const (
	SexMale    Sex = "MALE"
	SexFemale  Sex = "FEMALE"
	SexUnknown Sex = "UNKNOWN"
)

// ReviewStatus es el estado de moderación de una publicación.
// PENDING es el inicial; APPROVED y REJECTED son terminales.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// AdoptionStatus es la disponibilidad del gato. Se puede pasar de cualquiera a cualquiera.
type AdoptionStatus string

const (
	AdoptionAvailable AdoptionStatus = "AVAILABLE"
	AdoptionReserved  AdoptionStatus = "RESERVED"
	AdoptionAdopted   AdoptionStatus = "ADOPTED"
)

func (s AdoptionStatus) Valid() bool {
	switch s {
	case AdoptionAvailable, AdoptionReserved, AdoptionAdopted:
		return true
	}
	return false
}

// ReviewAction es la decisión del admin sobre una publicación.
type ReviewAction string

const (
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
)

// Cat representa un gato publicado para adopción.
type Cat struct {
	ID string

	Name         string
	AgeMonths    *int // nil = desconocida (distinto de 0)
	Sex          Sex
	Neighborhood string
	City         string

	ShortDescription string
	FullDescription  string

	Sterilized       bool
	VaccinesUpToDate bool
	Dewormed         bool

	// Rescatista: texto libre, no es una cuenta del sistema.
	RescuerName  string
	RescuerPhone string
	RescuerEmail *string

	ReviewStatus   ReviewStatus
	AdoptionStatus AdoptionStatus

	Photos []Photo

	CreatedAt time.Time
}

// Photo pertenece a un único Cat y se borra con él.
type Photo struct {
	ID        string
	CatID     string
	URL       string
	IsPrimary bool
}

// PrimaryPhoto devuelve la foto marcada como principal o, si ninguna lo está, la primera.
func (c Cat) PrimaryPhoto() (Photo, bool) {
	if len(c.Photos) == 0 {
		return Photo{}, false
	}
	for _, p := range c.Photos {
		if p.IsPrimary {
			return p, true
		}
	}
	return c.Photos[0], true
}
