package offer

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/metrics"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/ignatzorin/offer-engine/internal/tracing"
	"github.com/ignatzorin/offer-engine/internal/usecase/common"
	"github.com/ignatzorin/offer-engine/internal/usecase/listing"
	"github.com/ignatzorin/offer-engine/internal/validation"
	"go.opentelemetry.io/otel/attribute"
)

type MergeSessionsInput struct {
	SessionIDs  []uuid.UUID
	RequesterID uuid.UUID
}

type MergeResult struct {
	Session *entity.OfferSession
	Offer   *entity.Offer
	Record  *entity.MergeRecord
}

// MergeSessionsUseCase объединяет активные сессии одного покупателя с одним продавцом
// в новую сессию. Исходные сессии закрываются, их предложения получают статус merged.
// Всё выполняется одной транзакцией.
type MergeSessionsUseCase struct {
	deps Deps
}

func NewMergeSessionsUseCase(deps Deps) *MergeSessionsUseCase {
	return &MergeSessionsUseCase{deps: deps}
}

func (uc *MergeSessionsUseCase) Execute(ctx context.Context, input MergeSessionsInput) (result *MergeResult, err error) {
	ids := dedupe(input.SessionIDs)
	ctx, span := tracing.Start(ctx, "offer.merge", attribute.Int("sessions", len(ids)))
	defer func() { tracing.End(span, err) }()

	if len(ids) < 2 {
		return nil, apperror.New(apperror.ErrCodeTooFewSessions, "для объединения нужно не менее двух сессий")
	}
	if len(ids) > validation.MaxMergeSessions {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "за раз можно объединить не более %d сессий", validation.MaxMergeSessions)
	}

	repos := uc.deps.Store.Repositories()
	sessions := make([]*entity.OfferSession, 0, len(ids))
	for _, id := range ids {
		session, err := repos.Sessions.FindByID(ctx, id)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.Newf(apperror.ErrCodeInvalidSessionState, "сессия %s не найдена", id)
			}
			return nil, common.Wrap(err, "не удалось получить сессию")
		}
		sessions = append(sessions, session)
	}
	if err := checkMergeable(sessions); err != nil {
		return nil, err
	}

	customerID, seller := sessions[0].CustomerID, sessions[0].Seller
	side, err := common.ResolveParty(ctx, repos.Permissions, customerID, seller, input.RequesterID)
	if err != nil {
		return nil, err
	}

	err = uc.deps.Locks.WithLock(ctx, seller, func(ctx context.Context) error {
		return uc.deps.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			res, err := uc.merge(ctx, tx, ids, input.RequesterID, side)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsMerged.Add(float64(len(ids)))
	uc.deps.attachThread(ctx, result.Session, result.Offer.Terms.Title)

	ev := entity.NewSessionEvent(entity.EventOffersMerged, input.RequesterID, result.Session, result.Offer)
	ev.Payload["source_session_ids"] = result.Record.SourceSessionIDs
	common.Notify(ctx, uc.deps.Notifier, ev)

	return result, nil
}

func (uc *MergeSessionsUseCase) merge(ctx context.Context, tx repository.Repositories, ids []uuid.UUID, requesterID uuid.UUID, side valueobject.Party) (*MergeResult, error) {
	// Строки блокируются в порядке id, чтобы встречные объединения не взаимоблокировались.
	lockOrder := append([]uuid.UUID(nil), ids...)
	sort.Slice(lockOrder, func(i, j int) bool { return lockOrder[i].String() < lockOrder[j].String() })

	byID := make(map[uuid.UUID]*entity.OfferSession, len(ids))
	for _, id := range lockOrder {
		session, err := tx.Sessions.FindByIDForUpdate(ctx, id)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.Newf(apperror.ErrCodeInvalidSessionState, "сессия %s не найдена", id)
			}
			return nil, common.Wrap(err, "не удалось получить сессию")
		}
		byID[id] = session
	}

	sessions := make([]*entity.OfferSession, 0, len(ids))
	offers := make([]*entity.Offer, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, byID[id])
	}
	if err := checkMergeable(sessions); err != nil {
		return nil, err
	}
	for _, session := range sessions {
		offer, err := tx.Offers.FindLatestBySession(ctx, session.ID)
		if err != nil {
			return nil, common.Wrap(err, "не удалось получить текущее предложение")
		}
		if !offer.IsActive() {
			return nil, apperror.Newf(apperror.ErrCodeInvalidSessionState, "у сессии %s нет активного предложения", session.ID)
		}
		offers = append(offers, offer)
	}

	customerID, seller := sessions[0].CustomerID, sessions[0].Seller
	var union []entity.ListingCommitment
	for _, offer := range offers {
		union = append(union, offer.Listings...)
	}
	verified, err := listing.NewVerifier(tx.Listings, tx.Organizations).VerifyForSeller(ctx, customerID, seller, union)
	if err != nil {
		return nil, err
	}

	merged, err := entity.NewOfferSession(customerID, seller)
	if err != nil {
		return nil, err
	}
	mergedOffer, err := entity.NewOffer(merged.ID, requesterID, side, combineTerms(offers), verified.Commitments())
	if err != nil {
		return nil, err
	}
	if err := tx.Sessions.Create(ctx, merged); err != nil {
		return nil, common.Wrap(err, "не удалось создать сессию")
	}
	if err := tx.Offers.Create(ctx, mergedOffer); err != nil {
		return nil, common.Wrap(err, "не удалось создать предложение")
	}

	for i, session := range sessions {
		if err := offers[i].MarkMerged(); err != nil {
			return nil, err
		}
		if err := tx.Offers.UpdateStatus(ctx, offers[i]); err != nil {
			return nil, common.Wrap(err, "не удалось обновить предложение")
		}
		if err := session.Close(); err != nil {
			return nil, err
		}
		if err := tx.Sessions.Update(ctx, session); err != nil {
			return nil, common.Wrap(err, "не удалось закрыть сессию")
		}
		entry := entity.NewAuditEntry(entity.AuditActionMerged, requesterID, entity.AuditSubjectSession, session.ID, map[string]interface{}{
			"offer_id":          offers[i].ID,
			"merged_session_id": merged.ID,
		})
		if err := tx.Audit.Record(ctx, entry); err != nil {
			return nil, common.Wrap(err, "не удалось записать аудит")
		}
	}

	record := &entity.MergeRecord{
		ID:               uuid.New(),
		MergedSessionID:  merged.ID,
		MergedOfferID:    mergedOffer.ID,
		SourceSessionIDs: append([]uuid.UUID(nil), ids...),
		CombinedCost:     mergedOffer.Terms.Cost,
		RequesterID:      requesterID,
		CreatedAt:        time.Now(),
	}
	if err := tx.Audit.RecordMerge(ctx, record); err != nil {
		return nil, common.Wrap(err, "не удалось записать объединение")
	}
	entry := entity.NewAuditEntry(entity.AuditActionMerged, requesterID, entity.AuditSubjectSession, merged.ID, map[string]interface{}{
		"source_session_ids": record.SourceSessionIDs,
		"merged_offer_id":    mergedOffer.ID,
		"combined_cost":      record.CombinedCost,
	})
	if err := tx.Audit.Record(ctx, entry); err != nil {
		return nil, common.Wrap(err, "не удалось записать аудит")
	}

	return &MergeResult{Session: merged, Offer: mergedOffer, Record: record}, nil
}

// checkMergeable: сессии существуют, активны, у одного покупателя и одного продавца.
func checkMergeable(sessions []*entity.OfferSession) error {
	first := sessions[0]
	for _, s := range sessions {
		if !s.IsActive() {
			return apperror.Newf(apperror.ErrCodeInvalidSessionState, "сессия %s закрыта", s.ID)
		}
		if s.CustomerID != first.CustomerID {
			return apperror.New(apperror.ErrCodeInvalidSessionState, "сессии принадлежат разным покупателям")
		}
	}
	for _, s := range sessions {
		if s.Seller != first.Seller {
			return apperror.New(apperror.ErrCodeMixedSellers, "объединять можно только сессии одного продавца")
		}
	}
	return nil
}

// combineTerms суммирует стоимость и залог. Тип оплаты и услуга сохраняются,
// только если совпадают у всех предложений.
func combineTerms(offers []*entity.Offer) entity.OfferTerms {
	first := offers[0].Terms
	combined := entity.OfferTerms{
		PaymentType: first.PaymentType,
		ServiceID:   first.ServiceID,
	}

	titles := make([]string, 0, len(offers))
	var descriptions []string
	for _, offer := range offers {
		t := offer.Terms
		combined.Cost += t.Cost
		titles = append(titles, t.Title)
		if t.Description != "" {
			descriptions = append(descriptions, t.Description)
		}
		if t.Collateral != nil {
			sum := *t.Collateral
			if combined.Collateral != nil {
				sum += *combined.Collateral
			}
			combined.Collateral = &sum
		}
		if t.PaymentType != first.PaymentType {
			combined.PaymentType = valueobject.PaymentTypeOneTime
		}
		if !sameID(t.ServiceID, first.ServiceID) {
			combined.ServiceID = nil
		}
	}

	combined.Title = truncate(strings.Join(titles, " + "), validation.MaxOfferTitleLength)
	combined.Description = truncate(strings.Join(descriptions, "\n\n"), validation.MaxOfferDescriptionLength)
	return combined
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
