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

const sessionColumns = `id, customer_id, seller_user_id, seller_org_id, status, thread_id, contract_id, created_at, updated_at`

type SessionRepository struct {
	db sqlx.ExtContext
}

func (r *SessionRepository) Create(ctx context.Context, session *entity.OfferSession) error {
	query := `
		INSERT INTO offer_sessions (id, customer_id, seller_user_id, seller_org_id, status, thread_id, contract_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.CustomerID,
		session.Seller.UserID(),
		session.Seller.OrganizationID(),
		string(session.Status),
		session.ThreadID,
		session.ContractID,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Wrap(err, apperror.ErrCodeConflict, "сессия уже существует")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать сессию предложений")
	}
	return nil
}

func (r *SessionRepository) Update(ctx context.Context, session *entity.OfferSession) error {
	query := `
		UPDATE offer_sessions
		SET status = $2, thread_id = COALESCE($3, thread_id), updated_at = $4
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, session.ID, string(session.Status), session.ThreadID, session.UpdatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить сессию предложений")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) SetThread(ctx context.Context, id uuid.UUID, threadID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE offer_sessions SET thread_id = $2 WHERE id = $1`, id, threadID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить ветку обсуждения")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.OfferSession, error) {
	return r.find(ctx, id, "")
}

func (r *SessionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.OfferSession, error) {
	return r.find(ctx, id, " FOR UPDATE")
}

func (r *SessionRepository) find(ctx context.Context, id uuid.UUID, lock string) (*entity.OfferSession, error) {
	var row sessionRow
	query := `SELECT ` + sessionColumns + ` FROM offer_sessions WHERE id = $1` + lock
	if err := getOne(ctx, r.db, &row, apperror.ErrSessionNotFound, "не удалось получить сессию предложений", query, id); err != nil {
		return nil, err
	}
	return row.toEntity()
}

func (r *SessionRepository) ListActiveBySeller(ctx context.Context, seller valueobject.Seller) ([]*entity.OfferSession, error) {
	var rows []sessionRow
	query := fmt.Sprintf(`
		SELECT %s FROM offer_sessions
		WHERE %s = $1 AND status = $2
		ORDER BY created_at
	`, sessionColumns, sellerColumn(seller))

	if err := sqlx.SelectContext(ctx, r.db, &rows, query, seller.ID, string(valueobject.SessionStatusActive)); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить активные сессии продавца")
	}

	sessions := make([]*entity.OfferSession, 0, len(rows))
	for _, row := range rows {
		s, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
