package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/logger"
	"github.com/ignatzorin/offer-engine/internal/metrics"
	"github.com/ignatzorin/offer-engine/internal/tracing"
	"github.com/ignatzorin/offer-engine/internal/usecase/common"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const archiveReason = "organization_archived"

type ArchiveSellerInput struct {
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
}

type ArchiveSellerResult struct {
	OrganizationID   uuid.UUID
	CancelledOrders  []uuid.UUID
	RejectedSessions []uuid.UUID
	ArchivedListings int
	ReleasedUnits    int
}

// ArchiveSellerUseCase архивирует организацию: отменяет открытые заказы,
// отклоняет активные сессии и снимает лоты с продажи одной транзакцией.
type ArchiveSellerUseCase struct {
	store       repository.Store
	locks       repository.SellerLocker
	fulfillment *Fulfillment
	notifier    repository.Notifier
}

func NewArchiveSellerUseCase(store repository.Store, locks repository.SellerLocker, fulfillment *Fulfillment, notifier repository.Notifier) *ArchiveSellerUseCase {
	return &ArchiveSellerUseCase{
		store:       store,
		locks:       locks,
		fulfillment: fulfillment,
		notifier:    notifier,
	}
}

func (uc *ArchiveSellerUseCase) Execute(ctx context.Context, input ArchiveSellerInput) (result *ArchiveSellerResult, err error) {
	ctx, span := tracing.Start(ctx, "seller.archive", attribute.String("organization_id", input.OrganizationID.String()))
	defer func() { tracing.End(span, err) }()

	repos := uc.store.Repositories()
	if _, err := repos.Organizations.FindByID(ctx, input.OrganizationID); err != nil {
		return nil, err
	}
	seller := valueobject.OrganizationSeller(input.OrganizationID)
	if err := common.EnsureSellerSide(ctx, repos.Permissions, seller, input.ActorID); err != nil {
		return nil, err
	}

	result = &ArchiveSellerResult{OrganizationID: input.OrganizationID}
	var events []entity.Event

	err = uc.locks.WithLock(ctx, seller, func(ctx context.Context) error {
		return uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			result.CancelledOrders, result.RejectedSessions = nil, nil
			result.ReleasedUnits = 0
			events = events[:0]

			if err := tx.Organizations.Archive(ctx, input.OrganizationID, time.Now()); err != nil {
				return common.Wrap(err, "не удалось архивировать организацию")
			}

			orders, err := tx.Orders.ListOpenBySeller(ctx, seller)
			if err != nil {
				return common.Wrap(err, "не удалось получить заказы организации")
			}
			for _, order := range orders {
				released, changed, err := uc.fulfillment.Cancel(ctx, tx, order, input.ActorID, archiveReason)
				if err != nil {
					return err
				}
				if changed {
					result.CancelledOrders = append(result.CancelledOrders, order.ID)
					result.ReleasedUnits += released
					events = append(events, entity.NewOrderEvent(entity.EventOrderCancelled, input.ActorID, order))
				}
			}

			sessions, err := tx.Sessions.ListActiveBySeller(ctx, seller)
			if err != nil {
				return common.Wrap(err, "не удалось получить сессии организации")
			}
			for _, session := range sessions {
				offer, err := rejectSession(ctx, tx, session, input.ActorID)
				if err != nil {
					return err
				}
				result.RejectedSessions = append(result.RejectedSessions, session.ID)
				events = append(events, entity.NewSessionEvent(entity.EventOfferRejected, input.ActorID, session, offer))
			}

			result.ArchivedListings, err = tx.Listings.ArchiveBySeller(ctx, seller)
			if err != nil {
				return common.Wrap(err, "не удалось архивировать лоты")
			}

			entry := entity.NewAuditEntry(entity.AuditActionSellerArchived, input.ActorID, entity.AuditSubjectOrganization, input.OrganizationID, map[string]interface{}{
				"cancelled_orders":  len(result.CancelledOrders),
				"rejected_sessions": len(result.RejectedSessions),
				"archived_listings": result.ArchivedListings,
			})
			return common.Wrap(tx.Audit.Record(ctx, entry), "не удалось записать аудит")
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.InventoryReleased.Add(float64(result.ReleasedUnits))
	logger.Log.WithFields(logrus.Fields{
		"organization_id":   input.OrganizationID,
		"cancelled_orders":  len(result.CancelledOrders),
		"rejected_sessions": len(result.RejectedSessions),
		"archived_listings": result.ArchivedListings,
	}).Info("организация архивирована")

	common.Notify(ctx, uc.notifier, events...)
	return result, nil
}

// rejectSession принудительно отклоняет текущее предложение и закрывает сессию.
func rejectSession(ctx context.Context, tx repository.Repositories, session *entity.OfferSession, actorID uuid.UUID) (*entity.Offer, error) {
	offer, err := tx.Offers.FindLatestBySession(ctx, session.ID)
	if err != nil {
		return nil, common.Wrap(err, "не удалось получить предложение")
	}
	if offer.IsActive() {
		if err := offer.Reject(); err != nil {
			return nil, err
		}
		if err := tx.Offers.UpdateStatus(ctx, offer); err != nil {
			return nil, common.Wrap(err, "не удалось обновить предложение")
		}
		metrics.OfferTransitions.WithLabelValues(string(offer.Status)).Inc()
	}
	if err := session.Close(); err != nil {
		return nil, err
	}
	if err := tx.Sessions.Update(ctx, session); err != nil {
		return nil, common.Wrap(err, "не удалось закрыть сессию")
	}

	entry := entity.NewAuditEntry(valueobject.ResolutionReject.AuditAction(), actorID, entity.AuditSubjectSession, session.ID, map[string]interface{}{
		"offer_id": offer.ID,
		"reason":   archiveReason,
	})
	if err := tx.Audit.Record(ctx, entry); err != nil {
		return nil, common.Wrap(err, "не удалось записать аудит")
	}
	return offer, nil
}
