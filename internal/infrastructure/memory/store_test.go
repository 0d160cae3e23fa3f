package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTx_RollbackOnError(t *testing.T) {
	store := NewStore()
	listing := store.AddListing(valueobject.UserSeller(uuid.New()), "Доски", 5)
	session, err := entity.NewOfferSession(uuid.New(), listing.Seller)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Repositories) error {
		require.NoError(t, tx.Sessions.Create(ctx, session))
		require.NoError(t, tx.Listings.Debit(ctx, listing.ID, 3))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Repositories().Sessions.FindByID(context.Background(), session.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 5, store.Quantity(listing.ID))
}

func TestWithinTx_CommitVisibleAfterwards(t *testing.T) {
	store := NewStore()
	listing := store.AddListing(valueobject.UserSeller(uuid.New()), "Доски", 5)

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Repositories) error {
		return tx.Listings.Debit(ctx, listing.ID, 2)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, store.Quantity(listing.ID))
}

func TestListings_DebitGuard(t *testing.T) {
	store := NewStore()
	listing := store.AddListing(valueobject.UserSeller(uuid.New()), "Доски", 2)
	repos := store.Repositories()

	err := repos.Listings.Debit(context.Background(), listing.ID, 3)
	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidQuantity))
	assert.Equal(t, 2, store.Quantity(listing.ID))
}

func TestOffers_ChainOrder(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	session, err := entity.NewOfferSession(uuid.New(), valueobject.UserSeller(uuid.New()))
	require.NoError(t, err)
	require.NoError(t, repos.Sessions.Create(ctx, session))

	terms := entity.OfferTerms{Title: "Первое", PaymentType: valueobject.PaymentTypeOneTime}
	first, err := entity.NewOffer(session.ID, session.CustomerID, valueobject.PartyCustomer, terms, nil)
	require.NoError(t, err)
	terms.Title = "Второе"
	second, err := entity.NewOffer(session.ID, session.Seller.ID, valueobject.PartySeller, terms, nil)
	require.NoError(t, err)
	second.CreatedAt = first.CreatedAt

	require.NoError(t, repos.Offers.Create(ctx, first))
	require.NoError(t, repos.Offers.Create(ctx, second))

	latest, err := repos.Offers.FindLatestBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestOrders_OnePerSession(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	sessionID := uuid.New()

	first := &entity.Order{ID: uuid.New(), OfferSessionID: &sessionID}
	second := &entity.Order{ID: uuid.New(), OfferSessionID: &sessionID}

	require.NoError(t, repos.Orders.Create(context.Background(), first))
	err := repos.Orders.Create(context.Background(), second)
	assert.True(t, apperror.Is(err, apperror.ErrCodeConflict))
}

func TestPermissions(t *testing.T) {
	store := NewStore()
	manager := uuid.New()
	org := store.AddOrganization("ООО Ромашка", manager)

	ok, err := store.Repositories().Permissions.CanManageOrganization(context.Background(), manager, org.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Repositories().Permissions.CanManageOrganization(context.Background(), uuid.New(), org.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
