package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from, to OfferStatus
		want     bool
	}{
		{OfferStatusOpen, OfferStatusAccepted, true},
		{OfferStatusOpen, OfferStatusDeclined, true},
		{OfferStatusOpen, OfferStatusOpen, false},
		{OfferStatusAccepted, OfferStatusDeclined, false},
		{OfferStatusAccepted, OfferStatusOpen, false},
		{OfferStatusDeclined, OfferStatusAccepted, false},
		{OfferStatusDeclined, OfferStatusOpen, false},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestOfferStatus_IsTerminal(t *testing.T) {
	assert.False(t, OfferStatusOpen.IsTerminal())
	assert.True(t, OfferStatusAccepted.IsTerminal())
	assert.True(t, OfferStatusDeclined.IsTerminal())
	assert.False(t, OfferStatus("pending").IsValid())
}

func TestParseSenderRole(t *testing.T) {
	role, err := ParseSenderRole("helper")
	require.NoError(t, err)
	assert.Equal(t, SenderProvider, role)

	role, err = ParseSenderRole(" Customer ")
	require.NoError(t, err)
	assert.Equal(t, SenderCustomer, role)

	_, err = ParseSenderRole("system")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = ParseSenderRole("")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestOffer_CloneIsDeep(t *testing.T) {
	price := 1000.0
	o := &Offer{ID: "o-1", Messages: []Message{{By: SenderCustomer, Text: "hi", Price: &price}}}

	c := o.Clone()
	c.Messages[0].Text = "changed"
	*c.Messages[0].Price = 1

	assert.Equal(t, "hi", o.Messages[0].Text)
	assert.Equal(t, 1000.0, *o.Messages[0].Price)
	assert.Nil(t, (*Offer)(nil).Clone())
}
