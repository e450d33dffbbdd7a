package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mfauzirahman/rawatoko/internal/auth"
	"github.com/mfauzirahman/rawatoko/internal/domain"
	"github.com/mfauzirahman/rawatoko/internal/storage"
)

// photoURLTTL bounds how long a handed-out photo link stays valid.
const photoURLTTL = 15 * time.Minute

// =============================================================================
// Handler Configuration
// =============================================================================

// PhotoHandler resolves photo references to access URLs.
type PhotoHandler struct {
	photos storage.PhotoStore
	logger *slog.Logger
}

// NewPhotoHandler creates a new PhotoHandler.
func NewPhotoHandler(photos storage.PhotoStore, logger *slog.Logger) *PhotoHandler {
	return &PhotoHandler{
		photos: photos,
		logger: logger,
	}
}

// RegisterRoutes registers photo routes with the provided mux.
func (h *PhotoHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("GET /api/photos/{ref...}", requireActor(http.HandlerFunc(h.Show)))
}

// =============================================================================
// GET /api/photos/{ref...} - Resolve Photo Reference
// =============================================================================

// Show redirects to a short-lived URL for the referenced photo.
func (h *PhotoHandler) Show(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	ref := r.PathValue("ref")
	url, err := h.photos.URL(r.Context(), ref, photoURLTTL)
	if err != nil {
		ErrorResponse(w, r, h.logger, photoError(err, ref))
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// photoError translates storage errors into domain errors for the response
// mapper.
func photoError(err error, ref string) error {
	const op = "photo.show"

	switch {
	case storage.IsNotFound(err):
		return domain.NotFound(op, "photo", ref)
	case storage.IsInvalidRef(err):
		return domain.Invalid(op, "invalid photo reference")
	case storage.IsAccessDenied(err):
		return domain.Errorf(domain.EFORBIDDEN, op, "access to photo denied")
	default:
		return domain.Internal(err, op, "failed to resolve photo")
	}
}
