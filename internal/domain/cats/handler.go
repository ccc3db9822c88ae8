package cats

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gatitown/internal/authz"
	"gatitown/internal/middleware"
	"gatitown/internal/platform/httpx"
	"gatitown/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}

	// Públicas
	r.Route("/api/public/cats", func(pr chi.Router) {
		pr.Post("/submit", submitCatHandler(svc, log))
		pr.Get("/", listAvailableHandler(svc, log))
		pr.Get("/{catID}", getPublicCatHandler(svc, log))
	})

	// Admin: el middleware corta antes; el servicio vuelve a chequear el rol.
	r.Route("/api/admin/cats", func(ar chi.Router) {
		ar.Use(middleware.RequireAdmin)

		ar.Get("/pending", listPendingHandler(svc, log))
		ar.Get("/approved", listApprovedHandler(svc, log))
		ar.Get("/stats", statsHandler(svc, log))
		ar.Patch("/{catID}/review", reviewHandler(svc, log))
		ar.Patch("/{catID}/adoption-status", adoptionStatusHandler(svc, log))
	})
}

type photoResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
}

type catResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	AgeMonths        *int            `json:"ageMonths"`
	Sex              Sex             `json:"sex"`
	Neighborhood     string          `json:"neighborhood"`
	City             string          `json:"city"`
	ShortDescription string          `json:"shortDescription"`
	FullDescription  string          `json:"fullDescription"`
	Sterilized       bool            `json:"sterilized"`
	VaccinesUpToDate bool            `json:"vaccinesUpToDate"`
	Dewormed         bool            `json:"dewormed"`
	RescuerName      string          `json:"rescuerName"`
	RescuerPhone     string          `json:"rescuerPhone"`
	RescuerEmail     *string         `json:"rescuerEmail"`
	ReviewStatus     ReviewStatus    `json:"reviewStatus"`
	AdoptionStatus   AdoptionStatus  `json:"adoptionStatus"`
	Photos           []photoResponse `json:"photos"`
	CreatedAt        time.Time       `json:"createdAt"`
}

type submitResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type reviewRequest struct {
	Action ReviewAction `json:"action"`
}

type adoptionStatusRequest struct {
	AdoptionStatus AdoptionStatus `json:"adoptionStatus"`
}

type catActionResponse struct {
	Message string      `json:"message"`
	Cat     catResponse `json:"cat"`
}

// submitCatHandler godoc
// @Summary  Publicar un gato para revisión
// @Tags     public
// @Accept   json
// @Produce  json
// @Success  201 {object} submitResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Router   /api/public/cats/submit [post]
func submitCatHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p == nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		c, err := svc.Submit(r.Context(), p)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, submitResponse{
			Message: "cat submitted for review",
			ID:      c.ID,
		})
	}
}

// listAvailableHandler godoc
// @Summary  Gatos disponibles para adopción
// @Tags     public
// @Produce  json
// @Success  200 {array} catResponse
// @Router   /api/public/cats [get]
func listAvailableHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAvailable(r.Context())
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toCatResponses(items))
	}
}

// getPublicCatHandler godoc
// @Summary  Detalle público de un gato
// @Tags     public
// @Produce  json
// @Param    catID path string true "Cat ID"
// @Success  200 {object} catResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /api/public/cats/{catID} [get]
func getPublicCatHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.GetPublic(r.Context(), chi.URLParam(r, "catID"))
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toCatResponse(c))
	}
}

// listPendingHandler godoc
// @Summary  Publicaciones pendientes de revisión
// @Tags     admin
// @Produce  json
// @Success  200 {array}  catResponse
// @Failure  401 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Router   /api/admin/cats/pending [get]
func listPendingHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())
		items, err := svc.ListPending(r.Context(), claims)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toCatResponses(items))
	}
}

// listApprovedHandler godoc
// @Summary  Gatos aprobados (cualquier estado de adopción)
// @Tags     admin
// @Produce  json
// @Success  200 {array}  catResponse
// @Failure  401 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Router   /api/admin/cats/approved [get]
func listApprovedHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())
		items, err := svc.ListApproved(r.Context(), claims)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toCatResponses(items))
	}
}

// statsHandler godoc
// @Summary  Contadores del panel admin
// @Tags     admin
// @Produce  json
// @Success  200 {object} Stats
// @Failure  401 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Router   /api/admin/cats/stats [get]
func statsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())
		st, err := svc.Stats(r.Context(), claims)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, st)
	}
}

// reviewHandler godoc
// @Summary  Aprobar o rechazar una publicación
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    catID   path string        true "Cat ID"
// @Param    request body reviewRequest true "Body"
// @Success  200 {object} catActionResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  401 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Failure  409 {object} httpx.ErrorResponse
// @Router   /api/admin/cats/{catID}/review [patch]
func reviewHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		claims, _ := middleware.GetClaims(r.Context())
		c, err := svc.Review(r.Context(), claims, chi.URLParam(r, "catID"), req.Action)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		msg := "Cat approved successfully"
		if c.ReviewStatus == ReviewRejected {
			msg = "Cat rejected successfully"
		}
		httpx.WriteJSON(w, http.StatusOK, catActionResponse{Message: msg, Cat: toCatResponse(c)})
	}
}

// adoptionStatusHandler godoc
// @Summary  Cambiar el estado de adopción
// @Tags     admin
// @Accept   json
// @Produce  json
// @Param    catID   path string                true "Cat ID"
// @Param    request body adoptionStatusRequest true "Body"
// @Success  200 {object} catActionResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Failure  401 {object} httpx.ErrorResponse
// @Failure  403 {object} httpx.ErrorResponse
// @Failure  404 {object} httpx.ErrorResponse
// @Router   /api/admin/cats/{catID}/adoption-status [patch]
func adoptionStatusHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adoptionStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid json")
			return
		}

		claims, _ := middleware.GetClaims(r.Context())
		c, err := svc.SetAdoptionStatus(r.Context(), claims, chi.URLParam(r, "catID"), req.AdoptionStatus)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, catActionResponse{
			Message: "Adoption status updated",
			Cat:     toCatResponse(c),
		})
	}
}

// writeServiceError traduce errores del dominio a status HTTP.
// Los errores internos se loguean completos y al cliente le llega un mensaje genérico.
func writeServiceError(w http.ResponseWriter, log logger.Logger, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:   "Validation failed",
			Details: verr.Fields,
		})
	case errors.Is(err, authz.ErrUnauthenticated):
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, authz.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "cat not found")
	case errors.Is(err, ErrBadState):
		httpx.WriteError(w, http.StatusConflict, "cat already reviewed")
	default:
		log.Error("cats request failed", map[string]any{"err": err})
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func toCatResponses(items []Cat) []catResponse {
	out := make([]catResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toCatResponse(c))
	}
	return out
}

func toCatResponse(c Cat) catResponse {
	photos := make([]photoResponse, 0, len(c.Photos))
	for _, p := range c.Photos {
		photos = append(photos, photoResponse{ID: p.ID, URL: p.URL, IsPrimary: p.IsPrimary})
	}
	return catResponse{
		ID:               c.ID,
		Name:             c.Name,
		AgeMonths:        c.AgeMonths,
		Sex:              c.Sex,
		Neighborhood:     c.Neighborhood,
		City:             c.City,
		ShortDescription: c.ShortDescription,
		FullDescription:  c.FullDescription,
		Sterilized:       c.Sterilized,
		VaccinesUpToDate: c.VaccinesUpToDate,
		Dewormed:         c.Dewormed,
		RescuerName:      c.RescuerName,
		RescuerPhone:     c.RescuerPhone,
		RescuerEmail:     c.RescuerEmail,
		ReviewStatus:     c.ReviewStatus,
		AdoptionStatus:   c.AdoptionStatus,
		Photos:           photos,
		CreatedAt:        c.CreatedAt,
	}
}
