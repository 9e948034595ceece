package transport

import (
	"context"
	"net/http"

	"maid-market/internal/middleware"
	"maid-market/internal/realtime"
	"maid-market/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateOfferRequest represents the offer creation payload
type CreateOfferRequest struct {
	ListingID  string   `json:"listingId" validate:"required"`
	CustomerID string   `json:"customerId" validate:"required"`
	Scope      string   `json:"scope" validate:"required,max=2000"`
	Price      *float64 `json:"price" validate:"required"`
}

// AddMessageRequest represents a counter message. Presence of by and text
// is checked by the service after the offer status, so a closed offer
// reports a conflict first.
type AddMessageRequest struct {
	By    string   `json:"by"`
	Text  string   `json:"text" validate:"max=2000"`
	Price *float64 `json:"price"`
}

// OfferHandler exposes the negotiation engine
type OfferHandler struct {
	offers service.OfferService
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewOfferHandler creates a new OfferHandler. hub may be nil, which disables
// the websocket route.
func NewOfferHandler(offers service.OfferService, hub *realtime.Hub, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{offers: offers, hub: hub, logger: logger}
}

// RegisterRoutes registers offer routes
func (h *OfferHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/offers", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Post("/message", h.AddMessage)
			r.Post("/accept", h.Accept)
			r.Post("/decline", h.Decline)
			if h.hub != nil {
				r.Get("/ws", h.Subscribe)
			}
		})
	})
}

func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	offers, err := h.offers.List(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, offers)
}

func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	offer, err := h.offers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, offer)
}

// Create opens a negotiation on a listing
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOfferRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Offer validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	offer, err := h.offers.Create(r.Context(), req.ListingID, req.CustomerID, req.Scope, *req.Price)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, offer)
}

// AddMessage appends a counter message to an open offer
func (h *OfferHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	var req AddMessageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Message validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	offer, err := h.offers.AddMessage(r.Context(), chi.URLParam(r, "id"), req.By, req.Text, req.Price)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, offer)
}

// Accept closes the offer and returns it with the new booking
func (h *OfferHandler) Accept(w http.ResponseWriter, r *http.Request) {
	result, err := h.offers.Accept(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *OfferHandler) Decline(w http.ResponseWriter, r *http.Request) {
	offer, err := h.offers.Decline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, offer)
}

// Subscribe upgrades to a websocket that receives every change to the offer
func (h *OfferHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	offer, err := h.offers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	snapshot := func(ctx context.Context) (any, error) {
		return h.offers.Get(ctx, offer.ID)
	}
	if err := h.hub.Serve(w, r, offer.ID, snapshot); err != nil {
		h.logger.Debug("Websocket upgrade failed", zap.String("offer_id", offer.ID), zap.Error(err))
	}
}
