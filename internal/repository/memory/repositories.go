package memory

import (
	"context"

	"maid-market/internal/domain"
	"maid-market/internal/repository"
)

var (
	_ repository.ServiceRepository  = (*ServiceRepository)(nil)
	_ repository.ProviderRepository = (*ProviderRepository)(nil)
	_ repository.ListingRepository  = (*ListingRepository)(nil)
	_ repository.OfferRepository    = (*OfferRepository)(nil)
	_ repository.BookingRepository  = (*BookingRepository)(nil)
	_ repository.ReviewRepository   = (*ReviewRepository)(nil)
	_ repository.UserRepository     = (*UserRepository)(nil)
)

// ServiceRepository is the in-memory repository.ServiceRepository
type ServiceRepository struct{ s *Store }

func (r *ServiceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Service, 0, len(r.s.services))
	for _, svc := range r.s.services {
		cp := *svc
		cp.Categories = cloneStrings(svc.Categories)
		out = append(out, &cp)
	}
	return out, nil
}

// ProviderRepository is the in-memory repository.ProviderRepository
type ProviderRepository struct{ s *Store }

func (r *ProviderRepository) List(ctx context.Context) ([]*domain.Provider, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Provider, 0, len(r.s.providerOrder))
	for _, id := range r.s.providerOrder {
		out = append(out, cloneProvider(r.s.providers[id]))
	}
	return out, nil
}

func (r *ProviderRepository) FindByID(ctx context.Context, id string) (*domain.Provider, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.providers[id]
	if !ok {
		return nil, repository.ErrProviderNotFound
	}
	return cloneProvider(p), nil
}

func (r *ProviderRepository) UpdateRating(ctx context.Context, id string, avg float64, count int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.setRating(id, avg, count)
}

// ListingRepository is the in-memory repository.ListingRepository
type ListingRepository struct{ s *Store }

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.putListing(listing)
	return nil
}

func (r *ListingRepository) List(ctx context.Context) ([]*domain.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Listing, 0, len(r.s.listingOrder))
	for _, id := range r.s.listingOrder {
		cp := *r.s.listings[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, repository.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

// OfferRepository is the in-memory repository.OfferRepository
type OfferRepository struct{ s *Store }

func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.offers[offer.ID]; !exists {
		r.s.offerOrder = append(r.s.offerOrder, offer.ID)
	}
	r.s.offers[offer.ID] = offer.Clone()
	return nil
}

func (r *OfferRepository) Update(ctx context.Context, offer *domain.Offer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.offers[offer.ID]; !exists {
		return repository.ErrOfferNotFound
	}
	r.s.offers[offer.ID] = offer.Clone()
	return nil
}

// AcceptWithBooking writes the offer and its booking under one store lock
func (r *OfferRepository) AcceptWithBooking(ctx context.Context, offer *domain.Offer, booking *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.offers[offer.ID]; !exists {
		return repository.ErrOfferNotFound
	}
	if _, exists := r.s.bookingByOffer[booking.OfferID]; exists {
		return repository.ErrBookingAlreadyExists
	}
	r.s.putBooking(booking)
	r.s.offers[offer.ID] = offer.Clone()
	return nil
}

func (r *OfferRepository) List(ctx context.Context) ([]*domain.Offer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Offer, 0, len(r.s.offerOrder))
	for _, id := range r.s.offerOrder {
		out = append(out, r.s.offers[id].Clone())
	}
	return out, nil
}

func (r *OfferRepository) FindByID(ctx context.Context, id string) (*domain.Offer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.offers[id]
	if !ok {
		return nil, repository.ErrOfferNotFound
	}
	return o.Clone(), nil
}

// BookingRepository is the in-memory repository.BookingRepository
type BookingRepository struct{ s *Store }

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.bookingByOffer[booking.OfferID]; exists {
		return repository.ErrBookingAlreadyExists
	}
	r.s.putBooking(booking)
	return nil
}

func (r *BookingRepository) List(ctx context.Context) ([]*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Booking, 0, len(r.s.bookingOrder))
	for _, id := range r.s.bookingOrder {
		cp := *r.s.bookings[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *BookingRepository) FindByOfferID(ctx context.Context, offerID string) (*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.bookingByOffer[offerID]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *r.s.bookings[id]
	return &cp, nil
}

// ReviewRepository is the in-memory repository.ReviewRepository
type ReviewRepository struct{ s *Store }

// Record appends the review and rewrites the provider rating under one store lock
func (r *ReviewRepository) Record(ctx context.Context, review *domain.Review) (domain.RatingSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *review
	r.s.reviews[review.ID] = &cp
	r.s.reviewsByProvider[review.ProviderID] = append(r.s.reviewsByProvider[review.ProviderID], review.ID)

	ids := r.s.reviewsByProvider[review.ProviderID]
	all := make([]*domain.Review, 0, len(ids))
	for _, id := range ids {
		all = append(all, r.s.reviews[id])
	}

	var summary domain.RatingSummary
	summary.Avg, summary.Count = domain.AverageRating(all)
	summary.ProviderUpdated = r.s.setRating(review.ProviderID, summary.Avg, summary.Count) == nil
	return summary, nil
}

func (r *ReviewRepository) ListByProvider(ctx context.Context, providerID string) ([]*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := r.s.reviewsByProvider[providerID]
	out := make([]*domain.Review, 0, len(ids))
	for _, id := range ids {
		cp := *r.s.reviews[id]
		out = append(out, &cp)
	}
	return out, nil
}

// UserRepository is the in-memory repository.UserRepository
type UserRepository struct{ s *Store }

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Phone == user.Phone {
			return repository.ErrUserAlreadyExists
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
