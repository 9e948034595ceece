package domain

import (
	"math"
	"time"
)

// BookingStatus is the lifecycle state of a booking. Only confirmed is
// produced today.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
)

// Booking is a confirmed engagement created when an offer is accepted
type Booking struct {
	ID         string        `json:"id" db:"id"`
	ListingID  string        `json:"listingId" db:"listing_id"`
	OfferID    string        `json:"offerId" db:"offer_id"`
	CustomerID string        `json:"customerId" db:"customer_id"`
	ProviderID string        `json:"providerId" db:"provider_id"`
	Date       time.Time     `json:"date" db:"date"`
	Price      float64       `json:"price" db:"price"`
	Status     BookingStatus `json:"status" db:"status"`
}

// Review is a post-booking rating attributed to a provider
type Review struct {
	ID         string    `json:"id" db:"id"`
	BookingID  string    `json:"bookingId" db:"booking_id"`
	CustomerID string    `json:"customerId" db:"customer_id"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	Rating     int       `json:"rating" db:"rating"`
	Text       string    `json:"text" db:"text"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)

// RatingSummary is a provider's rating aggregate after a review is recorded.
// ProviderUpdated is false when the review names a provider with no profile.
type RatingSummary struct {
	Avg             float64
	Count           int
	ProviderUpdated bool
}

// AverageRating returns the mean rating rounded to two decimals and the count
func AverageRating(reviews []*Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return math.Round(avg*100) / 100, len(reviews)
}
