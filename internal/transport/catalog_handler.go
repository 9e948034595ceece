package transport

import (
	"net/http"

	"maid-market/internal/middleware"
	"maid-market/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateListingRequest represents the listing creation payload
type CreateListingRequest struct {
	ProviderID string   `json:"providerId" validate:"required"`
	ServiceID  string   `json:"serviceId" validate:"required"`
	Title      string   `json:"title" validate:"required,max=200"`
	BasePrice  *float64 `json:"basePrice" validate:"required,gt=0"`
	Details    string   `json:"details" validate:"max=2000"`
}

// CatalogHandler serves services, providers and listings
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/services", h.ListServices)
	r.Get("/api/providers", h.ListProviders)
	r.Get("/api/listings", h.ListListings)
	r.Post("/api/listings", h.CreateListing)
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, services)
}

func (h *CatalogHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.catalog.ListProviders(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, providers)
}

func (h *CatalogHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.catalog.ListListings(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, listings)
}

// CreateListing handles listing creation
func (h *CatalogHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Listing validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	listing, err := h.catalog.CreateListing(r.Context(), service.CreateListingInput{
		ProviderID: req.ProviderID,
		ServiceID:  req.ServiceID,
		Title:      req.Title,
		BasePrice:  *req.BasePrice,
		Details:    req.Details,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, listing)
}
