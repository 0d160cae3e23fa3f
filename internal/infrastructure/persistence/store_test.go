package persistence

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/db"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSellerRow(t *testing.T) {
	id := uuid.New()

	s, err := sellerRow{SellerOrgID: &id}.seller()
	require.NoError(t, err)
	assert.Equal(t, valueobject.OrganizationSeller(id), s)
	assert.Equal(t, "seller_org_id", sellerColumn(s))

	s, err = sellerRow{SellerUserID: &id}.seller()
	require.NoError(t, err)
	assert.Equal(t, "seller_user_id", sellerColumn(s))

	_, err = sellerRow{SellerUserID: &id, SellerOrgID: &id}.seller()
	assert.True(t, apperror.Is(err, apperror.ErrCodeValidation))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: pqUniqueViolation}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

// openTestDB подключается к базе из TEST_DATABASE_URL и накатывает миграции.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL не задан")
	}

	ctx := context.Background()
	conn, err := db.NewPostgres(ctx, db.PoolConfig{DSN: dsn, MaxOpenConns: 5, MaxIdleConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.RunMigrations(ctx, conn, "../../../migrations"))
	return conn
}

func seedListing(t *testing.T, conn *sqlx.DB, sellerID uuid.UUID, qty int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := conn.Exec(`
		INSERT INTO market_listings (id, seller_user_id, title, quantity_available)
		VALUES ($1, $2, 'Лот', $3)
	`, id, sellerID, qty)
	require.NoError(t, err)
	return id
}

func TestStore_DebitAndRollback(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	seller := uuid.New()
	listingID := seedListing(t, conn, seller, 3)

	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		require.NoError(t, tx.Listings.Debit(ctx, listingID, 2))
		return apperror.New(apperror.ErrCodeConflict, "откат")
	})
	require.Error(t, err)

	listing, err := store.Repositories().Listings.FindByID(ctx, listingID)
	require.NoError(t, err)
	assert.Equal(t, 3, listing.QuantityAvailable)

	err = store.Repositories().Listings.Debit(ctx, listingID, 4)
	assert.Equal(t, apperror.ErrCodeInvalidQuantity, apperror.CodeOf(err))

	require.NoError(t, store.Repositories().Listings.Debit(ctx, listingID, 3))
	listing, err = store.Repositories().Listings.FindByID(ctx, listingID)
	require.NoError(t, err)
	assert.Equal(t, 0, listing.QuantityAvailable)
}

func TestStore_SessionOfferOrderRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	sellerID := uuid.New()
	listingID := seedListing(t, conn, sellerID, 10)

	session, err := entity.NewOfferSession(uuid.New(), valueobject.UserSeller(sellerID))
	require.NoError(t, err)
	offer, err := entity.NewOffer(session.ID, session.CustomerID, valueobject.PartyCustomer,
		entity.OfferTerms{Title: "Поставка", Cost: 500},
		[]entity.ListingCommitment{{ListingID: listingID, Quantity: 2}},
	)
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		if err := tx.Sessions.Create(ctx, session); err != nil {
			return err
		}
		return tx.Offers.Create(ctx, offer)
	})
	require.NoError(t, err)

	latest, err := store.Repositories().Offers.FindLatestBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, offer.ID, latest.ID)
	assert.Equal(t, valueobject.PaymentTypeOneTime, latest.Terms.PaymentType)
	require.Len(t, latest.Listings, 1)
	assert.Equal(t, 2, latest.Listings[0].Quantity)

	require.NoError(t, latest.Accept())
	order, err := entity.NewOrderFromOffer(session, latest)
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		if err := tx.Offers.UpdateStatus(ctx, latest); err != nil {
			return err
		}
		return tx.Orders.Create(ctx, order)
	})
	require.NoError(t, err)

	exists, err := store.Repositories().Orders.ExistsForSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	duplicate, err := entity.NewOrderFromOffer(session, latest)
	require.NoError(t, err)
	err = store.Repositories().Orders.Create(ctx, duplicate)
	assert.Equal(t, apperror.ErrCodeConflict, apperror.CodeOf(err))

	open, err := store.Repositories().Orders.ListOpenBySeller(ctx, valueobject.UserSeller(sellerID))
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Len(t, open[0].Listings, 1)
}
