package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTerms() OfferTerms {
	return OfferTerms{Title: "Поставка кирпича", Cost: 100, PaymentType: valueobject.PaymentTypeOneTime}
}

func TestNewOffer_DefaultsPaymentType(t *testing.T) {
	terms := testTerms()
	terms.PaymentType = ""

	offer, err := NewOffer(uuid.New(), uuid.New(), valueobject.PartyCustomer, terms, nil)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentTypeOneTime, offer.Terms.PaymentType)
	assert.Equal(t, valueobject.OfferStatusActive, offer.Status)
}

func TestNewOffer_Validation(t *testing.T) {
	cases := map[string]func(*OfferTerms){
		"short title":         func(t *OfferTerms) { t.Title = "a" },
		"negative cost":       func(t *OfferTerms) { t.Cost = -1 },
		"bad payment":         func(t *OfferTerms) { t.PaymentType = "weekly" },
		"negative collateral": func(t *OfferTerms) { c := int64(-5); t.Collateral = &c },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			terms := testTerms()
			mutate(&terms)
			_, err := NewOffer(uuid.New(), uuid.New(), valueobject.PartyCustomer, terms, nil)
			assert.True(t, apperror.Is(err, apperror.ErrCodeValidation))
		})
	}
}

func TestOffer_TransitionsOnlyFromActive(t *testing.T) {
	offer, err := NewOffer(uuid.New(), uuid.New(), valueobject.PartySeller, testTerms(), nil)
	require.NoError(t, err)

	require.NoError(t, offer.Accept())
	assert.Equal(t, valueobject.OfferStatusAccepted, offer.Status)

	err = offer.Reject()
	assert.True(t, apperror.Is(err, apperror.ErrCodeAlreadyClosed))
	assert.Equal(t, valueobject.OfferStatusAccepted, offer.Status)
}

func TestOffer_ResolveCancelIsReject(t *testing.T) {
	offer, err := NewOffer(uuid.New(), uuid.New(), valueobject.PartySeller, testTerms(), nil)
	require.NoError(t, err)

	require.NoError(t, offer.Resolve(valueobject.ResolutionCancel))
	assert.Equal(t, valueobject.OfferStatusRejected, offer.Status)
}

func TestNewOfferSession_SelfTrade(t *testing.T) {
	id := uuid.New()
	_, err := NewOfferSession(id, valueobject.UserSeller(id))
	assert.True(t, apperror.Is(err, apperror.ErrCodeSelfTrade))

	// Организация с тем же UUID считается другим продавцом.
	session, err := NewOfferSession(id, valueobject.OrganizationSeller(id))
	require.NoError(t, err)
	assert.True(t, session.IsActive())
}

func TestOfferSession_CloseOnce(t *testing.T) {
	session, err := NewOfferSession(uuid.New(), valueobject.UserSeller(uuid.New()))
	require.NoError(t, err)

	require.NoError(t, session.Close())
	assert.True(t, apperror.Is(session.Close(), apperror.ErrCodeAlreadyClosed))
}
