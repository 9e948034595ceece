// Package memory implements the repository interfaces on top of in-process
// maps. It is the default storage driver and carries the demo seed data.
package memory

import (
	"sync"

	"maid-market/internal/domain"
	"maid-market/internal/repository"
)

// Store holds every table. All repositories returned by a Store share one
// RWMutex, so a single write never becomes partially visible.
type Store struct {
	mu sync.RWMutex

	users    map[string]*domain.User
	services []*domain.Service

	// maps plus insertion order so List results are stable
	providers      map[string]*domain.Provider
	providerOrder  []string
	listings       map[string]*domain.Listing
	listingOrder   []string
	offers         map[string]*domain.Offer
	offerOrder     []string
	bookings       map[string]*domain.Booking
	bookingOrder   []string
	bookingByOffer map[string]string

	reviews map[string]*domain.Review
	// provider id -> review ids in insertion order
	reviewsByProvider map[string][]string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:             make(map[string]*domain.User),
		providers:         make(map[string]*domain.Provider),
		listings:          make(map[string]*domain.Listing),
		offers:            make(map[string]*domain.Offer),
		bookings:          make(map[string]*domain.Booking),
		bookingByOffer:    make(map[string]string),
		reviews:           make(map[string]*domain.Review),
		reviewsByProvider: make(map[string][]string),
	}
}

// NewSeededStore creates a store populated with the demo catalog
func NewSeededStore() *Store {
	s := NewStore()
	s.Seed()
	return s
}

// Seed loads the demo users, services, provider and listing
func (s *Store) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range []*domain.User{
		{ID: "u-cust-1", Role: domain.RoleCustomer, Name: "Rahul Customer", Phone: "9000000001"},
		{ID: "u-help-1", Role: domain.RoleHelper, Name: "Asha Helper", Phone: "9000000002"},
	} {
		s.users[u.ID] = u
	}

	s.services = []*domain.Service{
		{ID: "svc-clean", Name: "House Cleaning", Categories: []string{"Home"}},
		{ID: "svc-cook", Name: "Cooking", Categories: []string{"Home"}},
		{ID: "svc-baby", Name: "Babysitting", Categories: []string{"Care"}},
		{ID: "svc-elder", Name: "Elderly Care", Categories: []string{"Care"}},
		{ID: "svc-patient", Name: "Patient Care", Categories: []string{"Care"}},
	}

	s.putProvider(&domain.Provider{
		ID:          "p-1",
		UserID:      "u-help-1",
		FullName:    "Asha Devi",
		Skills:      []string{"House Cleaning", "Cooking"},
		Locations:   []string{"Bengaluru", "Whitefield"},
		BaseRate:    350,
		RatingAvg:   4.7,
		RatingCount: 12,
	})

	s.putListing(&domain.Listing{
		ID:         "l-1",
		ProviderID: "p-1",
		ServiceID:  "svc-clean",
		Title:      "Deep Cleaning (2BHK)",
		BasePrice:  1500,
		Details:    "All rooms, bathrooms, kitchen. Supplies included.",
	})
}

// AddProvider inserts or replaces a provider profile
func (s *Store) AddProvider(p *domain.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putProvider(p)
}

func (s *Store) putProvider(p *domain.Provider) {
	if _, exists := s.providers[p.ID]; !exists {
		s.providerOrder = append(s.providerOrder, p.ID)
	}
	cp := *p
	s.providers[p.ID] = &cp
}

func (s *Store) putListing(l *domain.Listing) {
	if _, exists := s.listings[l.ID]; !exists {
		s.listingOrder = append(s.listingOrder, l.ID)
	}
	cp := *l
	s.listings[l.ID] = &cp
}

func (s *Store) putBooking(b *domain.Booking) {
	cp := *b
	s.bookings[b.ID] = &cp
	s.bookingOrder = append(s.bookingOrder, b.ID)
	s.bookingByOffer[b.OfferID] = b.ID
}

func (s *Store) setRating(providerID string, avg float64, count int) error {
	p, ok := s.providers[providerID]
	if !ok {
		return repository.ErrProviderNotFound
	}
	p.RatingAvg = avg
	p.RatingCount = count
	return nil
}

// Services returns the service repository view
func (s *Store) Services() *ServiceRepository { return &ServiceRepository{s: s} }

// Providers returns the provider repository view
func (s *Store) Providers() *ProviderRepository { return &ProviderRepository{s: s} }

// Listings returns the listing repository view
func (s *Store) Listings() *ListingRepository { return &ListingRepository{s: s} }

// Offers returns the offer repository view
func (s *Store) Offers() *OfferRepository { return &OfferRepository{s: s} }

// Bookings returns the booking repository view
func (s *Store) Bookings() *BookingRepository { return &BookingRepository{s: s} }

// Reviews returns the review repository view
func (s *Store) Reviews() *ReviewRepository { return &ReviewRepository{s: s} }

// Users returns the user repository view
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneProvider(p *domain.Provider) *domain.Provider {
	cp := *p
	cp.Skills = cloneStrings(p.Skills)
	cp.Locations = cloneStrings(p.Locations)
	return &cp
}
