package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const offerColumns = `id, session_id, actor_id, actor_side, title, description, cost, payment_type, collateral, service_id, status, created_at, updated_at`

type OfferRepository struct {
	db sqlx.ExtContext
}

func (r *OfferRepository) Create(ctx context.Context, offer *entity.Offer) error {
	query := `
		INSERT INTO offers (id, session_id, actor_id, actor_side, title, description, cost, payment_type, collateral, service_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		offer.ID,
		offer.SessionID,
		offer.ActorID,
		string(offer.ActorSide),
		offer.Terms.Title,
		offer.Terms.Description,
		offer.Terms.Cost,
		string(offer.Terms.PaymentType),
		offer.Terms.Collateral,
		offer.Terms.ServiceID,
		string(offer.Status),
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Wrap(err, apperror.ErrCodeInvalidSessionState, "в сессии уже есть активное предложение")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать предложение")
	}

	for _, l := range offer.Listings {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO offer_listings (offer_id, listing_id, quantity) VALUES ($1, $2, $3)`,
			offer.ID, l.ListingID, l.Quantity,
		)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить лоты предложения")
		}
	}
	return nil
}

func (r *OfferRepository) UpdateStatus(ctx context.Context, offer *entity.Offer) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE offers SET status = $2, updated_at = $3 WHERE id = $1`,
		offer.ID, string(offer.Status), offer.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить статус предложения")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrOfferNotFound
	}
	return nil
}

func (r *OfferRepository) FindLatestBySession(ctx context.Context, sessionID uuid.UUID) (*entity.Offer, error) {
	var row offerRow
	query := `SELECT ` + offerColumns + ` FROM offers WHERE session_id = $1 ORDER BY seq DESC LIMIT 1`
	if err := getOne(ctx, r.db, &row, apperror.ErrOfferNotFound, "не удалось получить текущее предложение", query, sessionID); err != nil {
		return nil, err
	}

	offer := row.toEntity()
	if err := r.attachListings(ctx, []*entity.Offer{offer}); err != nil {
		return nil, err
	}
	return offer, nil
}

// ListBySession возвращает цепочку предложений в порядке создания.
func (r *OfferRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*entity.Offer, error) {
	var rows []offerRow
	query := `SELECT ` + offerColumns + ` FROM offers WHERE session_id = $1 ORDER BY seq`
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, sessionID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложения сессии")
	}

	offers := make([]*entity.Offer, 0, len(rows))
	for _, row := range rows {
		offers = append(offers, row.toEntity())
	}
	if err := r.attachListings(ctx, offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// attachListings загружает лоты всех предложений одним запросом.
func (r *OfferRepository) attachListings(ctx context.Context, offers []*entity.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	ids := make([]string, 0, len(offers))
	byID := make(map[uuid.UUID]*entity.Offer, len(offers))
	for _, o := range offers {
		ids = append(ids, o.ID.String())
		byID[o.ID] = o
	}

	var rows []commitmentRow
	query := `
		SELECT offer_id AS owner_id, listing_id, quantity
		FROM offer_listings
		WHERE offer_id = ANY($1::uuid[])
		ORDER BY listing_id
	`
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, pq.StringArray(ids)); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить лоты предложений")
	}

	for _, row := range rows {
		o := byID[row.OwnerID]
		o.Listings = append(o.Listings, entity.ListingCommitment{ListingID: row.ListingID, Quantity: row.Quantity})
	}
	return nil
}
