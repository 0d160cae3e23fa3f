package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/metrics"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/ignatzorin/offer-engine/internal/usecase/common"
)

// Fulfillment создаёт заказы из принятых предложений и возвращает товар в остаток при отмене.
// Методы работают внутри транзакции вызывающего и под его блокировкой продавца.
type Fulfillment struct{}

func NewFulfillment() *Fulfillment {
	return &Fulfillment{}
}

// Materialize создаёт единственный заказ по сессии и списывает остатки лотов.
func (f *Fulfillment) Materialize(ctx context.Context, tx repository.Repositories, session *entity.OfferSession, offer *entity.Offer, actorID uuid.UUID) (*entity.Order, error) {
	exists, err := tx.Orders.ExistsForSession(ctx, session.ID)
	if err != nil {
		return nil, common.Wrap(err, "не удалось проверить заказ по сессии")
	}
	if exists {
		return nil, apperror.New(apperror.ErrCodeConflict, "по сессии уже создан заказ")
	}

	order, err := entity.NewOrderFromOffer(session, offer)
	if err != nil {
		return nil, err
	}

	for _, l := range order.Listings {
		if err := tx.Listings.Debit(ctx, l.ListingID, l.Quantity); err != nil {
			return nil, common.Wrap(err, "не удалось списать остаток лота")
		}
	}

	if err := tx.Orders.Create(ctx, order); err != nil {
		return nil, common.Wrap(err, "не удалось создать заказ")
	}

	entry := entity.NewAuditEntry(entity.AuditActionOrderCreated, actorID, entity.AuditSubjectOrder, order.ID, map[string]interface{}{
		"session_id": session.ID,
		"offer_id":   offer.ID,
		"cost":       order.Terms.Cost,
	})
	if err := tx.Audit.Record(ctx, entry); err != nil {
		return nil, common.Wrap(err, "не удалось записать аудит")
	}

	metrics.OrdersCreated.Inc()
	return order, nil
}

// Cancel отменяет заказ и возвращает невозвращённые позиции ровно один раз.
// Для уже отменённого заказа ничего не делает и возвращает changed=false.
func (f *Fulfillment) Cancel(ctx context.Context, tx repository.Repositories, order *entity.Order, actorID uuid.UUID, reason string) (released int, changed bool, err error) {
	if !order.Cancel() {
		return 0, false, nil
	}

	now := time.Now()
	for _, l := range order.PendingReleases() {
		if err := tx.Listings.Release(ctx, l.ListingID, l.Quantity); err != nil {
			return 0, false, common.Wrap(err, "не удалось вернуть остаток лота")
		}
		order.MarkReleased(l.ListingID, now)
		released += l.Quantity
	}

	if err := tx.Orders.Update(ctx, order); err != nil {
		return 0, false, common.Wrap(err, "не удалось обновить заказ")
	}

	metadata := map[string]interface{}{"released_units": released}
	if reason != "" {
		metadata["reason"] = reason
	}
	entry := entity.NewAuditEntry(entity.AuditActionOrderCancelled, actorID, entity.AuditSubjectOrder, order.ID, metadata)
	if err := tx.Audit.Record(ctx, entry); err != nil {
		return 0, false, common.Wrap(err, "не удалось записать аудит")
	}

	return released, true, nil
}
