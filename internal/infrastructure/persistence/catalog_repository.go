package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

type ServiceRepository struct {
	db sqlx.ExtContext
}

func (r *ServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	var row struct {
		ID    uuid.UUID `db:"id"`
		Title string    `db:"title"`
		sellerRow
	}
	query := `SELECT id, title, seller_user_id, seller_org_id FROM services WHERE id = $1`
	if err := getOne(ctx, r.db, &row, apperror.ErrServiceNotFound, "не удалось получить услугу", query, id); err != nil {
		return nil, err
	}

	seller, err := row.seller()
	if err != nil {
		return nil, err
	}
	return &entity.Service{ID: row.ID, Seller: seller, Title: row.Title}, nil
}

type ContractRepository struct {
	db sqlx.ExtContext
}

func (r *ContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PublicContract, error) {
	var row struct {
		ID         uuid.UUID `db:"id"`
		CustomerID uuid.UUID `db:"customer_id"`
		Status     string    `db:"status"`
		CreatedAt  time.Time `db:"created_at"`
		termsRow
	}
	query := `
		SELECT id, customer_id, title, description, cost, payment_type, collateral, service_id, status, created_at
		FROM public_contracts WHERE id = $1
	`
	if err := getOne(ctx, r.db, &row, apperror.ErrContractNotFound, "не удалось получить публичный контракт", query, id); err != nil {
		return nil, err
	}

	return &entity.PublicContract{
		ID:         row.ID,
		CustomerID: row.CustomerID,
		Terms:      row.terms(),
		Status:     entity.ContractStatus(row.Status),
		CreatedAt:  row.CreatedAt,
	}, nil
}
