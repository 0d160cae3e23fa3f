package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

type ListingRepository struct {
	db sqlx.ExtContext
}

func (r *ListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.MarketListing, error) {
	var row listingRow
	query := `
		SELECT id, seller_user_id, seller_org_id, title, quantity_available, status, created_at, updated_at
		FROM market_listings WHERE id = $1
	`
	if err := getOne(ctx, r.db, &row, apperror.ErrListingNotFound, "не удалось получить лот", query, id); err != nil {
		return nil, err
	}
	return row.toEntity()
}

// Debit списывает остаток одним условным UPDATE: остаток не уходит в минус
// даже при гонке с другим процессом.
func (r *ListingRepository) Debit(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperror.Newf(apperror.ErrCodeInvalidQuantity, "некорректное количество по лоту %s", id)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE market_listings
		SET quantity_available = quantity_available - $2, updated_at = NOW()
		WHERE id = $1 AND quantity_available >= $2
	`, id, quantity)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось списать остаток лота")
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return apperror.Newf(apperror.ErrCodeInvalidQuantity, "недостаточно товара по лоту %s", id)
}

func (r *ListingRepository) Release(ctx context.Context, id uuid.UUID, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE market_listings
		SET quantity_available = quantity_available + $2, updated_at = NOW()
		WHERE id = $1
	`, id, quantity)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось вернуть остаток лота")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) ArchiveBySeller(ctx context.Context, seller valueobject.Seller) (int, error) {
	query := fmt.Sprintf(`
		UPDATE market_listings
		SET status = $2, updated_at = NOW()
		WHERE %s = $1 AND status = $3
	`, sellerColumn(seller))

	res, err := r.db.ExecContext(ctx, query,
		seller.ID,
		string(valueobject.ListingStatusArchived),
		string(valueobject.ListingStatusActive),
	)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось архивировать лоты продавца")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось архивировать лоты продавца")
	}
	return int(n), nil
}
