package handler

import (
	"log/slog"
	"net/http"

	"github.com/mfauzirahman/rawatoko/internal/auth"
	"github.com/mfauzirahman/rawatoko/internal/repository"
)

// =============================================================================
// Response Types
// =============================================================================

// StoreResponse is the wire form of one store.
type StoreResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// =============================================================================
// Handler Configuration
// =============================================================================

// StoreHandler handles store reference data requests.
type StoreHandler struct {
	stores repository.StoreRepository
	logger *slog.Logger
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(stores repository.StoreRepository, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{
		stores: stores,
		logger: logger,
	}
}

// RegisterRoutes registers store routes with the provided mux.
func (h *StoreHandler) RegisterRoutes(mux *http.ServeMux, requireActor func(http.Handler) http.Handler) {
	mux.Handle("GET /api/stores", requireActor(http.HandlerFunc(h.Index)))
	mux.Handle("GET /api/stores/{id}", requireActor(http.HandlerFunc(h.Show)))
}

// =============================================================================
// GET /api/stores - List Stores
// =============================================================================

// Index returns all known stores.
func (h *StoreHandler) Index(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	stores, err := h.stores.List(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]StoreResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, StoreResponse{ID: s.ID, Name: s.Name, Address: s.Address})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stores": out})
}

// =============================================================================
// GET /api/stores/{id} - Show Store
// =============================================================================

// Show returns one store by its code.
func (h *StoreHandler) Show(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetActorFromRequest(r)
	if actor == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	store, err := h.stores.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, StoreResponse{ID: store.ID, Name: store.Name, Address: store.Address})
}
