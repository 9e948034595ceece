package transport

import (
	"net/http"

	"maid-market/internal/middleware"
	"maid-market/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RecordReviewRequest represents the review payload
type RecordReviewRequest struct {
	BookingID  string `json:"bookingId" validate:"required"`
	CustomerID string `json:"customerId" validate:"required"`
	ProviderID string `json:"providerId" validate:"required"`
	Rating     *int   `json:"rating" validate:"required,gte=1,lte=5"`
	Text       string `json:"text" validate:"max=2000"`
}

// ReviewHandler records and lists reviews
type ReviewHandler struct {
	reviews service.ReviewService
	logger  *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviews service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// RegisterRoutes registers review routes
func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/reviews", h.Record)
	r.Get("/api/reviews/{providerId}", h.ListByProvider)
}

// Record stores a review and updates the provider rating
func (h *ReviewHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordReviewRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Review validation failed", zap.Error(err))
		middleware.RespondWithRequestError(w, err)
		return
	}

	review, err := h.reviews.RecordReview(r.Context(), req.BookingID, req.CustomerID, req.ProviderID, *req.Rating, req.Text)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) ListByProvider(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListByProvider(r.Context(), chi.URLParam(r, "providerId"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, reviews)
}
