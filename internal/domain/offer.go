package domain

import (
	"fmt"
	"strings"
	"time"
)

// OfferStatus is the negotiation state of an offer
type OfferStatus string

const (
	OfferStatusOpen     OfferStatus = "open"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusDeclined OfferStatus = "declined"
)

// IsValid reports whether s is one of the defined statuses
func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusOpen, OfferStatusAccepted, OfferStatusDeclined:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s
func (s OfferStatus) IsTerminal() bool {
	return s == OfferStatusAccepted || s == OfferStatusDeclined
}

// CanTransition reports whether an offer in status s may move to next.
// Only open offers move, and only to a terminal status.
func (s OfferStatus) CanTransition(next OfferStatus) bool {
	switch s {
	case OfferStatusOpen:
		return next == OfferStatusAccepted || next == OfferStatusDeclined
	default:
		return false
	}
}

// SenderRole identifies who authored a message in an offer thread
type SenderRole string

const (
	SenderCustomer SenderRole = "customer"
	SenderProvider SenderRole = "provider"
	SenderSystem   SenderRole = "system"
)

// ParseSenderRole normalizes a client supplied role. "helper" is the user role
// name for providers and is accepted as an alias. The system role cannot be
// claimed by a client.
func ParseSenderRole(raw string) (SenderRole, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "customer":
		return SenderCustomer, nil
	case "provider", "helper":
		return SenderProvider, nil
	default:
		return "", fmt.Errorf("%w: unknown sender role %q", ErrInvalidArgument, raw)
	}
}

// Message is one entry in an offer's negotiation thread
type Message struct {
	By    SenderRole `json:"by"`
	Text  string     `json:"text"`
	At    time.Time  `json:"at"`
	Price *float64   `json:"price,omitempty"`
}

// Offer is a negotiation thread between a customer and a provider over a listing
type Offer struct {
	ID         string      `json:"id"`
	ListingID  string      `json:"listingId"`
	CustomerID string      `json:"customerId"`
	ProviderID string      `json:"providerId"`
	Scope      string      `json:"scope"`
	Price      float64     `json:"price"`
	Status     OfferStatus `json:"status"`
	Messages   []Message   `json:"messages"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Clone returns a deep copy of the offer
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	c := *o
	c.Messages = make([]Message, len(o.Messages))
	for i, m := range o.Messages {
		if m.Price != nil {
			p := *m.Price
			m.Price = &p
		}
		c.Messages[i] = m
	}
	return &c
}
