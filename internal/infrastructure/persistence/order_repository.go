package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const orderColumns = `id, offer_session_id, offer_id, customer_id, seller_user_id, seller_org_id,
	title, description, cost, payment_type, collateral, service_id, status, created_at, updated_at`

type OrderRepository struct {
	db sqlx.ExtContext
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (id, offer_session_id, offer_id, customer_id, seller_user_id, seller_org_id,
			title, description, cost, payment_type, collateral, service_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.OfferSessionID,
		order.OfferID,
		order.CustomerID,
		order.Seller.UserID(),
		order.Seller.OrganizationID(),
		order.Terms.Title,
		order.Terms.Description,
		order.Terms.Cost,
		string(order.Terms.PaymentType),
		order.Terms.Collateral,
		order.Terms.ServiceID,
		string(order.Status),
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Wrap(err, apperror.ErrCodeConflict, "по сессии уже создан заказ")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать заказ")
	}

	for _, l := range order.Listings {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO order_listings (order_id, listing_id, quantity, released_at) VALUES ($1, $2, $3, $4)`,
			order.ID, l.ListingID, l.Quantity, l.ReleasedAt,
		)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить лоты заказа")
		}
	}
	return nil
}

// Update сохраняет статус заказа и отметки о возврате лотов в остаток.
func (r *OrderRepository) Update(ctx context.Context, order *entity.Order) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		order.ID, string(order.Status), order.UpdatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить заказ")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrOrderNotFound
	}

	for _, l := range order.Listings {
		if l.ReleasedAt == nil {
			continue
		}
		_, err := r.db.ExecContext(ctx,
			`UPDATE order_listings SET released_at = $3 WHERE order_id = $1 AND listing_id = $2 AND released_at IS NULL`,
			order.ID, l.ListingID, l.ReleasedAt,
		)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить лоты заказа")
		}
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.find(ctx, id, "")
}

func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.find(ctx, id, " FOR UPDATE")
}

func (r *OrderRepository) find(ctx context.Context, id uuid.UUID, lock string) (*entity.Order, error) {
	var row orderRow
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1` + lock
	if err := getOne(ctx, r.db, &row, apperror.ErrOrderNotFound, "не удалось получить заказ", query, id); err != nil {
		return nil, err
	}

	order, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	if err := r.attachListings(ctx, []*entity.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) ExistsForSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists, `SELECT EXISTS(SELECT 1 FROM orders WHERE offer_session_id = $1)`, sessionID)
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить наличие заказа по сессии")
	}
	return exists, nil
}

func (r *OrderRepository) ListOpenBySeller(ctx context.Context, seller valueobject.Seller) ([]*entity.Order, error) {
	var rows []orderRow
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE %s = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at
	`, orderColumns, sellerColumn(seller))

	err := sqlx.SelectContext(ctx, r.db, &rows, query,
		seller.ID,
		string(valueobject.OrderStatusCancelled),
		string(valueobject.OrderStatusFulfilled),
	)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить открытые заказы продавца")
	}

	orders := make([]*entity.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := r.attachListings(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) attachListings(ctx context.Context, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	byID := make(map[uuid.UUID]*entity.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID.String())
		byID[o.ID] = o
	}

	var rows []commitmentRow
	query := `
		SELECT order_id AS owner_id, listing_id, quantity, released_at
		FROM order_listings
		WHERE order_id = ANY($1::uuid[])
		ORDER BY listing_id
	`
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, pq.StringArray(ids)); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить лоты заказов")
	}

	for _, row := range rows {
		o := byID[row.OwnerID]
		o.Listings = append(o.Listings, entity.OrderListing{
			ListingID:  row.ListingID,
			Quantity:   row.Quantity,
			ReleasedAt: row.ReleasedAt,
		})
	}
	return nil
}
