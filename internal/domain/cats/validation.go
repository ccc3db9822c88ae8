package cats

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describe un campo inválido de la publicación.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError junta todos los campos inválidos, nunca solo el primero.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has indica si el campo tiene al menos un error.
func (e *ValidationError) Has(field string) bool {
	if e == nil {
		return false
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Message devuelve el mensaje del campo o "" si no falló.
func (e *ValidationError) Message(field string) string {
	if e == nil {
		return ""
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

// Payload es el body crudo de una publicación pública, sin tipar.
type Payload map[string]json.RawMessage

// Submission es el payload ya tipado, antes de convertirse en Cat.
type Submission struct {
	Name             string `json:"name" validate:"required,min=2,max=50"`
	AgeMonths        *int   `json:"ageMonths" validate:"omitempty,min=0,max=360"`
	Sex              string `json:"sex" validate:"required,oneof=MALE FEMALE UNKNOWN"`
	Neighborhood     string `json:"neighborhood" validate:"required,min=2,max=100"`
	ShortDescription string `json:"shortDescription" validate:"required,min=10,max=200"`
	FullDescription  string `json:"fullDescription" validate:"required,min=20,max=2000"`

	Sterilized       *bool `json:"sterilized"`
	VaccinesUpToDate *bool `json:"vaccinesUpToDate"`
	Dewormed         *bool `json:"dewormed"`

	RescuerName  string `json:"rescuerName" validate:"required,min=2,max=100"`
	RescuerPhone string `json:"rescuerPhone" validate:"required,min=8,max=30"`
	RescuerEmail string `json:"rescuerEmail" validate:"omitempty,email"`

	PrimaryPhotoURL string `json:"primaryPhotoUrl" validate:"required,photo_url"`
}

type fieldTarget struct {
	key     string
	target  any
	typeMsg string
}

// Validator convierte un Payload en un Cat listo para guardar. No tiene efectos.
type Validator struct {
	city         string
	uploadPrefix string
	v            *validator.Validate
}

// NewValidator: city es la ciudad fija del deploy; uploadPrefix el path local
// bajo el que se sirven las fotos subidas (p.ej. "/uploads/cats").
func NewValidator(city, uploadPrefix string) *Validator {
	val := &Validator{
		city:         strings.TrimSpace(city),
		uploadPrefix: "/" + strings.Trim(strings.TrimSpace(uploadPrefix), "/"),
		v:            validator.New(),
	}

	// Reportar errores con el nombre JSON del campo, no el del struct.
	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = val.v.RegisterValidation("photo_url", func(fl validator.FieldLevel) bool {
		return val.isPhotoURL(fl.Field().String())
	})

	return val
}

// Validate revisa todas las reglas a la vez. Si algo falla devuelve *ValidationError
// con todos los campos inválidos y un Cat vacío.
func (val *Validator) Validate(p Payload) (Cat, error) {
	var s Submission
	var age *float64
	failed := map[string]string{}

	// Decode campo por campo para poder reportar todos los errores de tipo,
	// encoding/json solo devuelve el primero.
	targets := []fieldTarget{
		{"name", &s.Name, "must be a string"},
		{"ageMonths", &age, "must be an integer"},
		{"sex", &s.Sex, "must be a string"},
		{"neighborhood", &s.Neighborhood, "must be a string"},
		{"shortDescription", &s.ShortDescription, "must be a string"},
		{"fullDescription", &s.FullDescription, "must be a string"},
		{"sterilized", &s.Sterilized, "must be a boolean"},
		{"vaccinesUpToDate", &s.VaccinesUpToDate, "must be a boolean"},
		{"dewormed", &s.Dewormed, "must be a boolean"},
		{"rescuerName", &s.RescuerName, "must be a string"},
		{"rescuerPhone", &s.RescuerPhone, "must be a string"},
		{"rescuerEmail", &s.RescuerEmail, "must be a string"},
		{"primaryPhotoUrl", &s.PrimaryPhotoURL, "must be a string"},
	}
	for _, t := range targets {
		raw, ok := p[t.key]
		if !ok || isJSONNull(raw) {
			continue
		}
		if err := json.Unmarshal(raw, t.target); err != nil {
			failed[t.key] = t.typeMsg
		}
	}

	// 12.0 es un entero válido; 12.5 no
	if age != nil {
		if n, ok := wholeNumber(*age); ok {
			s.AgeMonths = &n
		} else {
			failed["ageMonths"] = "must be an integer"
		}
	}

	s.Name = strings.TrimSpace(s.Name)
	s.Sex = strings.TrimSpace(s.Sex)
	s.Neighborhood = strings.TrimSpace(s.Neighborhood)
	s.ShortDescription = strings.TrimSpace(s.ShortDescription)
	s.FullDescription = strings.TrimSpace(s.FullDescription)
	s.RescuerName = strings.TrimSpace(s.RescuerName)
	s.RescuerPhone = strings.TrimSpace(s.RescuerPhone)
	s.RescuerEmail = strings.TrimSpace(s.RescuerEmail)
	s.PrimaryPhotoURL = strings.TrimSpace(s.PrimaryPhotoURL)

	if err := val.v.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Cat{}, fmt.Errorf("validate submission: %w", err)
		}
		for _, fe := range verrs {
			if _, ok := failed[fe.Field()]; ok {
				// el error de tipo es más útil que "is required"
				continue
			}
			failed[fe.Field()] = messageFor(fe)
		}
	}

	if len(failed) > 0 {
		return Cat{}, newValidationError(failed, targetsOrder(targets))
	}

	return val.toCat(s), nil
}

func (val *Validator) toCat(s Submission) Cat {
	var email *string
	if s.RescuerEmail != "" {
		e := s.RescuerEmail
		email = &e
	}

	return Cat{
		Name:             s.Name,
		AgeMonths:        s.AgeMonths,
		Sex:              Sex(s.Sex),
		Neighborhood:     s.Neighborhood,
		City:             val.city,
		ShortDescription: s.ShortDescription,
		FullDescription:  s.FullDescription,
		Sterilized:       derefBool(s.Sterilized),
		VaccinesUpToDate: derefBool(s.VaccinesUpToDate),
		Dewormed:         derefBool(s.Dewormed),
		RescuerName:      s.RescuerName,
		RescuerPhone:     s.RescuerPhone,
		RescuerEmail:     email,
		ReviewStatus:     ReviewPending,
		AdoptionStatus:   AdoptionAvailable,
		Photos: []Photo{
			{URL: s.PrimaryPhotoURL, IsPrimary: true},
		},
	}
}

// isPhotoURL acepta URLs http(s) absolutas o paths locales bajo el prefijo de uploads.
func (val *Validator) isPhotoURL(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}

	if strings.HasPrefix(v, "/") {
		if strings.Contains(v, "..") {
			return false
		}
		rest := strings.TrimPrefix(v, val.uploadPrefix+"/")
		return rest != v && rest != "" && !strings.Contains(rest, "/")
	}

	u, err := url.ParseRequestURI(v)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

func messageFor(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Param() == "0" {
			return "must not be negative"
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "email":
		return "must be a valid email address"
	case "photo_url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

func newValidationError(failed map[string]string, order []string) *ValidationError {
	rank := make(map[string]int, len(order))
	for i, k := range order {
		rank[k] = i
	}

	out := make([]FieldError, 0, len(failed))
	for field, msg := range failed {
		out = append(out, FieldError{Field: field, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, okI := rank[out[i].Field]
		rj, okJ := rank[out[j].Field]
		if okI && okJ {
			return ri < rj
		}
		if okI != okJ {
			return okI
		}
		return out[i].Field < out[j].Field
	})
	return &ValidationError{Fields: out}
}

func targetsOrder(ts []fieldTarget) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.key)
	}
	return out
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

// wholeNumber convierte v a int si no tiene parte decimal. Fuera de rango se
// satura, así las reglas de min/max siguen reportando el error correcto.
func wholeNumber(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Trunc(v) != v {
		return 0, false
	}
	if math.Abs(v) > math.MaxInt32 {
		v = math.Copysign(math.MaxInt32, v)
	}
	return int(v), true
}
