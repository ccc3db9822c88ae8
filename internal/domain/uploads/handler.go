package uploads

import (
	"errors"
	"mime"
	"net/http"

	"gatitown/internal/platform/httpx"
	"gatitown/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// margen para boundaries y headers del multipart
const multipartOverhead = 1 << 20

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	if log == nil {
		log = logger.Nop()
	}
	r.Post("/api/uploads/cat-photo", uploadCatPhotoHandler(svc, log))
}

type uploadResponse struct {
	URL string `json:"url"`
}

// uploadCatPhotoHandler godoc
// @Summary  Subir foto de gato
// @Tags     public
// @Accept   multipart/form-data
// @Produce  json
// @Param    file formData file true "JPEG, PNG o WEBP (máx 5MB)"
// @Success  200 {object} uploadResponse
// @Failure  400 {object} httpx.ErrorResponse
// @Router   /api/uploads/cat-photo [post]
func uploadCatPhotoHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			httpx.WriteError(w, http.StatusBadRequest, "Content-Type must be multipart/form-data")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, svc.MaxBytes()+multipartOverhead)
		if err := r.ParseMultipartForm(svc.MaxBytes()); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				httpx.WriteError(w, http.StatusBadRequest, "file too large")
				return
			}
			httpx.WriteError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "no file uploaded")
			return
		}
		defer file.Close()

		url, err := svc.Upload(r.Context(), file)
		if err != nil {
			switch {
			case errors.Is(err, ErrEmpty):
				httpx.WriteError(w, http.StatusBadRequest, "no file uploaded")
			case errors.Is(err, ErrTooLarge):
				httpx.WriteError(w, http.StatusBadRequest, "file too large")
			case errors.Is(err, ErrUnsupportedType):
				httpx.WriteError(w, http.StatusBadRequest, "only JPEG, PNG and WEBP images are allowed")
			default:
				log.Error("photo upload failed", map[string]any{"err": err})
				httpx.WriteError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		httpx.WriteJSON(w, http.StatusOK, uploadResponse{URL: url})
	}
}
