package offer_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/ignatzorin/offer-engine/internal/usecase/offer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counteroffer(f *fixture, sessionID, actorID uuid.UUID, t entity.OfferTerms, listings ...entity.ListingCommitment) (*offer.SessionView, error) {
	return offer.NewSubmitCounterofferUseCase(f.deps).Execute(context.Background(), offer.CounterofferInput{
		SessionID: sessionID,
		ActorID:   actorID,
		Terms:     t,
		Listings:  listings,
	})
}

func TestCounteroffer_AdvancesChain(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, "Кирпич", 100)

	got, err := counteroffer(f, view.Session.ID, f.manager, terms("Кирпич", 120))
	require.NoError(t, err)
	require.Len(t, got.Offers, 2)
	assert.Equal(t, valueobject.OfferStatusCounteroffered, got.Offers[0].Status)
	assert.Equal(t, valueobject.OfferStatusActive, got.Offers[1].Status)
	assert.Equal(t, valueobject.PartySeller, got.Offers[1].ActorSide)

	// Повтор тех же условий допустим и просто продвигает цепочку.
	got, err = counteroffer(f, view.Session.ID, f.customer, terms("Кирпич", 120))
	require.NoError(t, err)
	assert.Len(t, got.Offers, 3)
	assert.Contains(t, f.notifier.types(), entity.EventOfferCounteroffered)

	// Теперь принимает продавец.
	res, err := f.resolve(view.Session.ID, f.manager, valueobject.ResolutionAccept)
	require.NoError(t, err)
	assert.Equal(t, got.Current().ID, res.Offer.ID)
}

func TestCounteroffer_OwnOfferRejected(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, "Кирпич", 100)

	_, err := counteroffer(f, view.Session.ID, f.customer, terms("Кирпич", 90))
	assert.True(t, apperror.Is(err, apperror.ErrCodeUnauthorized))

	_, err = counteroffer(f, view.Session.ID, uuid.New(), terms("Кирпич", 90))
	assert.True(t, apperror.Is(err, apperror.ErrCodeUnauthorized))
}

func TestCounteroffer_ClosedSession(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, "Кирпич", 100)
	_, err := f.resolve(view.Session.ID, f.manager, valueobject.ResolutionReject)
	require.NoError(t, err)

	_, err = counteroffer(f, view.Session.ID, f.manager, terms("Кирпич", 90))
	assert.True(t, apperror.Is(err, apperror.ErrCodeAlreadyClosed))
}

func TestCounteroffer_InsufficientAfterAcceptance(t *testing.T) {
	f := newFixture(t)
	listing := f.store.AddListing(f.seller, "Кирпич", 5)
	first := f.open(t, "Первая", 100, entity.ListingCommitment{ListingID: listing.ID, Quantity: 3})
	second := f.open(t, "Вторая", 100)

	_, err := f.resolve(first.Session.ID, f.manager, valueobject.ResolutionAccept)
	require.NoError(t, err)
	require.Equal(t, 2, f.store.Quantity(listing.ID))

	_, err = counteroffer(f, second.Session.ID, f.manager, terms("Вторая", 100), entity.ListingCommitment{ListingID: listing.ID, Quantity: 3})
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidQuantity))

	got, err := offer.NewGetSessionUseCase(f.deps).Execute(context.Background(), second.Session.ID, f.customer)
	require.NoError(t, err)
	assert.Len(t, got.Offers, 1)
	assert.True(t, got.Current().IsActive())
}

func TestCounteroffer_InvalidService(t *testing.T) {
	f := newFixture(t)
	view := f.open(t, "Кирпич", 100)
	foreign := f.store.AddService(valueobject.UserSeller(uuid.New()), "Доставка")

	next := terms("Кирпич", 100)
	next.ServiceID = &foreign.ID
	_, err := counteroffer(f, view.Session.ID, f.manager, next)
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidService))
}
