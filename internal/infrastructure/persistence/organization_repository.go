package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

type organizationRow struct {
	ID         uuid.UUID  `db:"id"`
	Name       string     `db:"name"`
	ArchivedAt *time.Time `db:"archived_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

// OrganizationRepository также отвечает на вопросы о правах участников организации.
type OrganizationRepository struct {
	db sqlx.ExtContext
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Organization, error) {
	var row organizationRow
	query := `SELECT id, name, archived_at, created_at FROM organizations WHERE id = $1`
	if err := getOne(ctx, r.db, &row, apperror.ErrOrganizationNotFound, "не удалось получить организацию", query, id); err != nil {
		return nil, err
	}
	return &entity.Organization{
		ID:         row.ID,
		Name:       row.Name,
		ArchivedAt: row.ArchivedAt,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// Archive проставляет archived_at один раз; повторный вызов не меняет дату.
func (r *OrganizationRepository) Archive(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE organizations SET archived_at = COALESCE(archived_at, $2) WHERE id = $1`,
		id, at,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось архивировать организацию")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrOrganizationNotFound
	}
	return nil
}

func (r *OrganizationRepository) ListManagerIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `
		SELECT user_id FROM organization_members
		WHERE organization_id = $1 AND can_manage
		ORDER BY user_id
	`
	if err := sqlx.SelectContext(ctx, r.db, &ids, query, organizationID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить менеджеров организации")
	}
	return ids, nil
}

func (r *OrganizationRepository) CanManageOrganization(ctx context.Context, userID, organizationID uuid.UUID) (bool, error) {
	var ok bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM organization_members
			WHERE organization_id = $1 AND user_id = $2 AND can_manage
		)
	`
	if err := sqlx.GetContext(ctx, r.db, &ok, query, organizationID, userID); err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить права в организации")
	}
	return ok, nil
}
