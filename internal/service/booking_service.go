package service

import (
	"context"
	"fmt"

	"maid-market/internal/domain"
	"maid-market/internal/repository"

	"github.com/google/uuid"
)

// BookingService materializes bookings from accepted offers and lists them
type BookingService interface {
	// Create derives a confirmed booking from an accepted offer. It does not persist it.
	Create(offer *domain.Offer) (*domain.Booking, error)
	List(ctx context.Context) ([]*domain.Booking, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	obs         Observers
}

// NewBookingService creates a new instance of BookingService
func NewBookingService(bookingRepo repository.BookingRepository, obs Observers) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		obs:         obs.withDefaults(),
	}
}

func (s *bookingService) Create(offer *domain.Offer) (*domain.Booking, error) {
	if offer == nil {
		return nil, fmt.Errorf("%w: offer is required", domain.ErrInvalidArgument)
	}
	if offer.Status != domain.OfferStatusAccepted {
		return nil, fmt.Errorf("%w: offer %s is %s, not accepted", domain.ErrInvalidArgument, offer.ID, offer.Status)
	}

	return &domain.Booking{
		ID:         uuid.New().String(),
		ListingID:  offer.ListingID,
		OfferID:    offer.ID,
		CustomerID: offer.CustomerID,
		ProviderID: offer.ProviderID,
		Date:       s.obs.Now(),
		Price:      offer.Price,
		Status:     domain.BookingStatusConfirmed,
	}, nil
}

func (s *bookingService) List(ctx context.Context) ([]*domain.Booking, error) {
	bookings, err := s.bookingRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}
