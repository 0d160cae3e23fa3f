package persistence

import (
	"context"
	"encoding/json"

	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type AuditRepository struct {
	db sqlx.ExtContext
}

func (r *AuditRepository) Record(ctx context.Context, entry *entity.AuditEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать метаданные аудита")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, action, actor_id, subject_type, subject_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.Action, entry.ActorID, entry.SubjectType, entry.SubjectID, raw, entry.CreatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось записать событие аудита")
	}
	return nil
}

func (r *AuditRepository) RecordMerge(ctx context.Context, record *entity.MergeRecord) error {
	sources := make([]string, 0, len(record.SourceSessionIDs))
	for _, id := range record.SourceSessionIDs {
		sources = append(sources, id.String())
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO offer_merges (id, merged_session_id, merged_offer_id, source_session_ids, combined_cost, requester_id, created_at)
		VALUES ($1, $2, $3, $4::uuid[], $5, $6, $7)
	`, record.ID, record.MergedSessionID, record.MergedOfferID, pq.StringArray(sources), record.CombinedCost, record.RequesterID, record.CreatedAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить запись об объединении")
	}
	return nil
}
