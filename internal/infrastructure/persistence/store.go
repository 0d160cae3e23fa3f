package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store реализует repository.Store поверх PostgreSQL.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Repositories() repository.Repositories {
	return newRepositories(s.db)
}

// WithinTx выполняет fn внутри транзакции с уровнем READ COMMITTED.
// Строки, прочитанные через FOR UPDATE, остаются заблокированными до коммита.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось начать транзакцию")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return apperror.Wrap(err, apperror.ErrCodeConflict, "конфликт при фиксации транзакции")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось зафиксировать транзакцию")
	}
	return nil
}

func newRepositories(db sqlx.ExtContext) repository.Repositories {
	orgs := &OrganizationRepository{db: db}
	return repository.Repositories{
		Sessions:      &SessionRepository{db: db},
		Offers:        &OfferRepository{db: db},
		Orders:        &OrderRepository{db: db},
		Listings:      &ListingRepository{db: db},
		Organizations: orgs,
		Permissions:   orgs,
		Services:      &ServiceRepository{db: db},
		Contracts:     &ContractRepository{db: db},
		Audit:         &AuditRepository{db: db},
	}
}

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// getOne читает одну строку и подменяет sql.ErrNoRows доменной ошибкой.
func getOne(ctx context.Context, db sqlx.QueryerContext, dest interface{}, notFound error, op string, query string, args ...interface{}) error {
	if err := sqlx.GetContext(ctx, db, dest, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, op)
	}
	return nil
}

// sellerColumn возвращает колонку, в которой хранится продавец данного вида.
func sellerColumn(seller valueobject.Seller) string {
	if seller.IsOrganization() {
		return "seller_org_id"
	}
	return "seller_user_id"
}
