package valueobject

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, OrderStatusNotStarted.CanTransitionTo(OrderStatusInProgress))
	assert.True(t, OrderStatusNotStarted.CanTransitionTo(OrderStatusFulfilled))
	assert.True(t, OrderStatusFulfilled.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusInProgress.CanTransitionTo(OrderStatusNotStarted))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusInProgress))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusCancelled))
}

func TestOfferStatus_Terminal(t *testing.T) {
	assert.False(t, OfferStatusActive.IsTerminal())
	for _, s := range []OfferStatus{OfferStatusAccepted, OfferStatusRejected, OfferStatusCounteroffered, OfferStatusMerged} {
		assert.True(t, s.IsTerminal())
		assert.True(t, OfferStatusActive.CanTransitionTo(s))
		assert.False(t, s.CanTransitionTo(OfferStatusAccepted))
	}
}

func TestParseResolution(t *testing.T) {
	r, err := ParseResolution("cancel")
	assert.NoError(t, err)
	assert.Equal(t, OfferStatusRejected, r.OfferStatus())
	assert.Equal(t, "offer.cancelled", r.AuditAction())
	assert.True(t, r.CounterpartyOnly())

	_, err = ParseResolution("counter")
	assert.Error(t, err)
}

func TestNewSeller(t *testing.T) {
	id := uuid.New()

	s, err := NewSeller(&id, nil)
	assert.NoError(t, err)
	assert.True(t, s.IsUser())
	assert.Nil(t, s.OrganizationID())

	_, err = NewSeller(&id, &id)
	assert.Error(t, err)
	_, err = NewSeller(nil, nil)
	assert.Error(t, err)

	assert.NotEqual(t, UserSeller(id), OrganizationSeller(id))
}

func TestNewPaymentType(t *testing.T) {
	p, err := NewPaymentType("")
	assert.NoError(t, err)
	assert.Equal(t, PaymentTypeOneTime, p)

	_, err = NewPaymentType("monthly")
	assert.Error(t, err)
}
