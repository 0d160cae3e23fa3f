package offer

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/metrics"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/ignatzorin/offer-engine/internal/tracing"
	"github.com/ignatzorin/offer-engine/internal/usecase/common"
	"github.com/ignatzorin/offer-engine/internal/usecase/listing"
	"go.opentelemetry.io/otel/attribute"
)

type ResolveOfferInput struct {
	SessionID  uuid.UUID
	ActorID    uuid.UUID
	Resolution valueobject.Resolution
}

type ResolveOfferResult struct {
	Session *entity.OfferSession
	Offer   *entity.Offer
	// Order заполняется только при принятии.
	Order *entity.Order
}

var resolutionEvents = map[valueobject.Resolution]entity.EventType{
	valueobject.ResolutionAccept: entity.EventOfferAccepted,
	valueobject.ResolutionReject: entity.EventOfferRejected,
	valueobject.ResolutionCancel: entity.EventOfferCancelled,
}

// ResolveOfferUseCase принимает или отклоняет текущее предложение и закрывает сессию.
// Принятие под блокировкой продавца перепроверяет лоты, списывает остатки и создаёт заказ
// в той же транзакции, что и закрытие сессии.
type ResolveOfferUseCase struct {
	deps Deps
}

func NewResolveOfferUseCase(deps Deps) *ResolveOfferUseCase {
	return &ResolveOfferUseCase{deps: deps}
}

func (uc *ResolveOfferUseCase) Execute(ctx context.Context, input ResolveOfferInput) (result *ResolveOfferResult, err error) {
	ctx, span := tracing.Start(ctx, "offer.resolve",
		attribute.String("session_id", input.SessionID.String()),
		attribute.String("resolution", string(input.Resolution)))
	defer func() { tracing.End(span, err) }()

	if _, err := valueobject.ParseResolution(string(input.Resolution)); err != nil {
		return nil, err
	}

	repos := uc.deps.Store.Repositories()
	session, err := repos.Sessions.FindByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := session.EnsureActive(); err != nil {
		return nil, err
	}
	current, err := repos.Offers.FindLatestBySession(ctx, session.ID)
	if err != nil {
		return nil, common.Wrap(err, "не удалось получить текущее предложение")
	}

	side, err := common.ResolveParty(ctx, repos.Permissions, session.CustomerID, session.Seller, input.ActorID)
	if err != nil {
		return nil, err
	}
	if input.Resolution.CounterpartyOnly() && side == current.ActorSide {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "решение по предложению принимает другая сторона")
	}

	accept := input.Resolution == valueobject.ResolutionAccept
	result = &ResolveOfferResult{}

	err = uc.deps.withSellerLock(ctx, session.Seller, accept, func(ctx context.Context) error {
		return uc.deps.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			locked, cur, err := ensureCurrent(ctx, tx, session.ID, current.ID)
			if err != nil {
				return err
			}

			if accept {
				if err := ensureSellerAvailable(ctx, tx, locked.Seller); err != nil {
					return err
				}
				verified, err := listing.NewVerifier(tx.Listings, tx.Organizations).VerifyForSeller(ctx, locked.CustomerID, locked.Seller, cur.Listings)
				if err != nil {
					return err
				}
				cur.Listings = verified.Commitments()
			}

			if err := cur.Resolve(input.Resolution); err != nil {
				return err
			}
			if err := locked.Close(); err != nil {
				return err
			}
			if err := tx.Offers.UpdateStatus(ctx, cur); err != nil {
				return common.Wrap(err, "не удалось обновить предложение")
			}
			if err := tx.Sessions.Update(ctx, locked); err != nil {
				return common.Wrap(err, "не удалось закрыть сессию")
			}

			entry := entity.NewAuditEntry(input.Resolution.AuditAction(), input.ActorID, entity.AuditSubjectSession, locked.ID, map[string]interface{}{
				"offer_id":   cur.ID,
				"resolution": input.Resolution,
				"status":     cur.Status,
			})
			if err := tx.Audit.Record(ctx, entry); err != nil {
				return common.Wrap(err, "не удалось записать аудит")
			}

			if accept {
				created, err := uc.deps.Fulfillment.Materialize(ctx, tx, locked, cur, input.ActorID)
				if err != nil {
					return err
				}
				result.Order = created
			}

			result.Session, result.Offer = locked, cur
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.OfferTransitions.WithLabelValues(string(result.Offer.Status)).Inc()
	if result.Order != nil {
		uc.deps.renameThread(ctx, result.Session, "Заказ "+result.Order.ID.String())
	}
	common.Notify(ctx, uc.deps.Notifier, entity.NewSessionEvent(resolutionEvents[input.Resolution], input.ActorID, result.Session, result.Offer))

	return result, nil
}
