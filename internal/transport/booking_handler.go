package transport

import (
	"net/http"

	"maid-market/internal/middleware"
	"maid-market/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BookingHandler lists bookings
type BookingHandler struct {
	bookings service.BookingService
	logger   *zap.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookings service.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// RegisterRoutes registers booking routes
func (h *BookingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/bookings", h.List)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.List(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, bookings)
}
