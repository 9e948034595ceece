package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"maid-market/internal/domain"
	"maid-market/internal/events"
	"maid-market/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AcceptResult is the outcome of accepting an offer
type AcceptResult struct {
	Offer   *domain.Offer   `json:"offer"`
	Booking *domain.Booking `json:"booking"`
}

// OfferService owns the negotiation lifecycle of offers
type OfferService interface {
	Create(ctx context.Context, listingID, customerID, scope string, price float64) (*domain.Offer, error)
	AddMessage(ctx context.Context, offerID, by, text string, price *float64) (*domain.Offer, error)
	Accept(ctx context.Context, offerID string) (*AcceptResult, error)
	Decline(ctx context.Context, offerID string) (*domain.Offer, error)
	List(ctx context.Context) ([]*domain.Offer, error)
	Get(ctx context.Context, offerID string) (*domain.Offer, error)
}

type offerService struct {
	listingRepo repository.ListingRepository
	offerRepo   repository.OfferRepository
	bookings    BookingService
	locks       *keyedMutex
	obs         Observers
}

// NewOfferService creates a new instance of OfferService
func NewOfferService(
	listingRepo repository.ListingRepository,
	offerRepo repository.OfferRepository,
	bookings BookingService,
	obs Observers,
) OfferService {
	return &offerService{
		listingRepo: listingRepo,
		offerRepo:   offerRepo,
		bookings:    bookings,
		locks:       newKeyedMutex(),
		obs:         obs.withDefaults(),
	}
}

func validPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// Create opens a negotiation on a listing
func (s *offerService) Create(ctx context.Context, listingID, customerID, scope string, price float64) (*domain.Offer, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}

	customerID = strings.TrimSpace(customerID)
	scope = strings.TrimSpace(scope)
	if customerID == "" || scope == "" {
		return nil, fmt.Errorf("%w: customerId and scope are required", domain.ErrInvalidArgument)
	}
	if !validPrice(price) {
		return nil, fmt.Errorf("%w: price must be a non-negative number", domain.ErrInvalidArgument)
	}

	now := s.obs.Now()
	offer := &domain.Offer{
		ID:         uuid.New().String(),
		ListingID:  listing.ID,
		CustomerID: customerID,
		ProviderID: listing.ProviderID,
		Scope:      scope,
		Price:      price,
		Status:     domain.OfferStatusOpen,
		Messages: []domain.Message{{
			By:   domain.SenderSystem,
			Text: fmt.Sprintf("Proposed: ₹%s — %s", formatPrice(price), scope),
			At:   now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.obs.Logger.Info("Offer created",
		zap.String("offer_id", offer.ID),
		zap.String("listing_id", offer.ListingID),
		zap.Float64("price", offer.Price),
	)
	s.obs.Metrics.OfferCreated()
	s.obs.publish(ctx, events.SubjectOfferCreated, events.OfferEvent{Offer: offer.Clone()})

	return offer, nil
}

// loadOpen fetches an offer and rejects it unless it can still move to next.
// Callers must hold the offer lock.
func (s *offerService) loadOpen(ctx context.Context, offerID string, next domain.OfferStatus) (*domain.Offer, error) {
	offer, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}
	if !offer.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: offer %s is %s", domain.ErrConflict, offer.ID, offer.Status)
	}
	return offer, nil
}

// AddMessage appends a counter message. A non-nil price replaces the current price.
func (s *offerService) AddMessage(ctx context.Context, offerID, by, text string, price *float64) (*domain.Offer, error) {
	unlock := s.locks.Lock(offerID)
	defer unlock()

	offer, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}
	if offer.Status != domain.OfferStatusOpen {
		return nil, fmt.Errorf("%w: offer %s is %s", domain.ErrConflict, offer.ID, offer.Status)
	}

	text = strings.TrimSpace(text)
	if strings.TrimSpace(by) == "" || text == "" {
		return nil, fmt.Errorf("%w: by and text are required", domain.ErrInvalidArgument)
	}
	role, err := domain.ParseSenderRole(by)
	if err != nil {
		return nil, err
	}
	if price != nil && !validPrice(*price) {
		return nil, fmt.Errorf("%w: price must be a non-negative number", domain.ErrInvalidArgument)
	}

	now := s.obs.Now()
	msg := domain.Message{By: role, Text: text, At: now}
	if price != nil {
		p := *price
		msg.Price = &p
		offer.Price = p
	}
	offer.Messages = append(offer.Messages, msg)
	offer.UpdatedAt = now

	if err := s.offerRepo.Update(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	s.obs.Logger.Info("Offer message added",
		zap.String("offer_id", offer.ID),
		zap.String("by", string(role)),
		zap.Bool("counter_price", price != nil),
	)
	s.obs.publish(ctx, events.SubjectOfferMessage, events.OfferEvent{Offer: offer.Clone()})

	return offer, nil
}

// Accept closes the negotiation and creates the booking
func (s *offerService) Accept(ctx context.Context, offerID string) (*AcceptResult, error) {
	unlock := s.locks.Lock(offerID)
	defer unlock()

	offer, err := s.loadOpen(ctx, offerID, domain.OfferStatusAccepted)
	if err != nil {
		return nil, err
	}

	accepted := offer.Clone()
	accepted.Status = domain.OfferStatusAccepted
	accepted.UpdatedAt = s.obs.Now()

	booking, err := s.bookings.Create(accepted)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := s.offerRepo.AcceptWithBooking(ctx, accepted, booking); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: offer %s already has a booking", domain.ErrConflict, offerID)
		}
		return nil, fmt.Errorf("failed to save accepted offer: %w", err)
	}

	s.obs.Logger.Info("Offer accepted",
		zap.String("offer_id", accepted.ID),
		zap.String("booking_id", booking.ID),
		zap.Float64("price", booking.Price),
	)
	s.obs.Metrics.OfferTransitioned(string(domain.OfferStatusAccepted))
	s.obs.Metrics.BookingCreated()
	s.obs.publish(ctx, events.SubjectOfferAccepted, events.OfferEvent{Offer: accepted.Clone(), Booking: booking})

	return &AcceptResult{Offer: accepted, Booking: booking}, nil
}

// Decline closes the negotiation without a booking
func (s *offerService) Decline(ctx context.Context, offerID string) (*domain.Offer, error) {
	unlock := s.locks.Lock(offerID)
	defer unlock()

	offer, err := s.loadOpen(ctx, offerID, domain.OfferStatusDeclined)
	if err != nil {
		return nil, err
	}

	offer.Status = domain.OfferStatusDeclined
	offer.UpdatedAt = s.obs.Now()
	if err := s.offerRepo.Update(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	s.obs.Logger.Info("Offer declined", zap.String("offer_id", offer.ID))
	s.obs.Metrics.OfferTransitioned(string(domain.OfferStatusDeclined))
	s.obs.publish(ctx, events.SubjectOfferDeclined, events.OfferEvent{Offer: offer.Clone()})

	return offer, nil
}

func (s *offerService) List(ctx context.Context) ([]*domain.Offer, error) {
	offers, err := s.offerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

func (s *offerService) Get(ctx context.Context, offerID string) (*domain.Offer, error) {
	offer, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find offer: %w", err)
	}
	return offer, nil
}
