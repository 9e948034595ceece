package service

import (
	"context"
	"sync"
	"time"

	"maid-market/internal/events"
	"maid-market/internal/repository/memory"
)

// recordingPublisher captures published subjects in order
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []any
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

var _ events.Publisher = (*recordingPublisher)(nil)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	bookings  BookingService
	offers    OfferService
	reviews   ReviewService
	catalog   CatalogService
}

func newFixture() *fixture {
	store := memory.NewSeededStore()
	pub := &recordingPublisher{}
	obs := Observers{Publisher: pub, Now: func() time.Time { return fixedNow }}

	bookings := NewBookingService(store.Bookings(), obs)
	catalog := NewCatalogService(store.Services(), store.Providers(), store.Listings(), nil, 0, obs)
	return &fixture{
		store:     store,
		publisher: pub,
		bookings:  bookings,
		offers:    NewOfferService(store.Listings(), store.Offers(), bookings, obs),
		reviews:   NewReviewService(store.Reviews(), catalog, obs),
		catalog:   catalog,
	}
}

func ptr(f float64) *float64 { return &f }
