package service

import (
	"testing"
	"time"

	"maid-market/internal/domain"
	"maid-market/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingService_CreateFromAcceptedOffer(t *testing.T) {
	svc := NewBookingService(memory.NewStore().Bookings(), Observers{Now: func() time.Time { return fixedNow }})

	booking, err := svc.Create(&domain.Offer{
		ID:         "o-1",
		ListingID:  "l-1",
		CustomerID: "u-cust-1",
		ProviderID: "p-1",
		Price:      950,
		Status:     domain.OfferStatusAccepted,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "o-1", booking.OfferID)
	assert.Equal(t, "l-1", booking.ListingID)
	assert.Equal(t, "u-cust-1", booking.CustomerID)
	assert.Equal(t, "p-1", booking.ProviderID)
	assert.Equal(t, 950.0, booking.Price)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, fixedNow, booking.Date)
}

func TestBookingService_RequiresAcceptedOffer(t *testing.T) {
	svc := NewBookingService(memory.NewStore().Bookings(), Observers{})

	for _, status := range []domain.OfferStatus{domain.OfferStatusOpen, domain.OfferStatusDeclined} {
		_, err := svc.Create(&domain.Offer{ID: "o-1", Status: status})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, status)
	}

	_, err := svc.Create(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
