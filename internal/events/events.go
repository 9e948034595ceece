// Package events publishes domain events after successful state changes.
// Publishing is best effort: a failed publish never undoes a mutation.
package events

import (
	"context"
	"errors"

	"maid-market/internal/domain"
)

// Subjects
const (
	SubjectListingCreated = "listing.created"
	SubjectOfferCreated   = "offer.created"
	SubjectOfferMessage   = "offer.message"
	SubjectOfferAccepted  = "offer.accepted"
	SubjectOfferDeclined  = "offer.declined"
	SubjectReviewRecorded = "review.recorded"
)

// Publisher delivers an event payload on a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// OfferEvent is the payload of every offer.* subject. Booking is set only
// for offer.accepted.
type OfferEvent struct {
	Offer   *domain.Offer   `json:"offer"`
	Booking *domain.Booking `json:"booking,omitempty"`
}

// ReviewEvent is the payload of review.recorded
type ReviewEvent struct {
	Review      *domain.Review `json:"review"`
	RatingAvg   float64        `json:"ratingAvg"`
	RatingCount int            `json:"ratingCount"`
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Multi fans an event out to several publishers and joins their errors
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, subject string, payload any) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, subject, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
