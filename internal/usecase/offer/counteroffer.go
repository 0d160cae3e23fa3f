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

type CounterofferInput struct {
	SessionID uuid.UUID
	ActorID   uuid.UUID
	Terms     entity.OfferTerms
	Listings  []entity.ListingCommitment
}

// SubmitCounterofferUseCase принимает встречное предложение стороны, не делавшей текущее.
// Условия могут совпадать с текущими.
type SubmitCounterofferUseCase struct {
	deps Deps
}

func NewSubmitCounterofferUseCase(deps Deps) *SubmitCounterofferUseCase {
	return &SubmitCounterofferUseCase{deps: deps}
}

func (uc *SubmitCounterofferUseCase) Execute(ctx context.Context, input CounterofferInput) (view *SessionView, err error) {
	ctx, span := tracing.Start(ctx, "offer.counteroffer", attribute.String("session_id", input.SessionID.String()))
	defer func() { tracing.End(span, err) }()

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
	if side == current.ActorSide {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "нельзя отвечать на собственное предложение")
	}
	if err := listing.ValidateItems(input.Listings); err != nil {
		return nil, err
	}
	if err := ensureService(ctx, repos.Services, input.Terms.ServiceID, session.Seller); err != nil {
		return nil, err
	}

	next, err := entity.NewOffer(session.ID, input.ActorID, side, input.Terms, nil)
	if err != nil {
		return nil, err
	}

	err = uc.deps.withSellerLock(ctx, session.Seller, len(input.Listings) > 0, func(ctx context.Context) error {
		return uc.deps.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			locked, cur, err := ensureCurrent(ctx, tx, session.ID, current.ID)
			if err != nil {
				return err
			}
			if err := ensureSellerAvailable(ctx, tx, locked.Seller); err != nil {
				return err
			}
			verified, err := listing.NewVerifier(tx.Listings, tx.Organizations).VerifyForSeller(ctx, locked.CustomerID, locked.Seller, input.Listings)
			if err != nil {
				return err
			}
			next.Listings = verified.Commitments()

			if err := cur.MarkCounteroffered(); err != nil {
				return err
			}
			if err := tx.Offers.UpdateStatus(ctx, cur); err != nil {
				return common.Wrap(err, "не удалось обновить предложение")
			}
			if err := tx.Offers.Create(ctx, next); err != nil {
				return common.Wrap(err, "не удалось создать предложение")
			}

			entry := entity.NewAuditEntry(entity.AuditActionCounteroffered, input.ActorID, entity.AuditSubjectSession, session.ID, map[string]interface{}{
				"previous_offer_id": cur.ID,
				"offer_id":          next.ID,
				"cost":              next.Terms.Cost,
			})
			return common.Wrap(tx.Audit.Record(ctx, entry), "не удалось записать аудит")
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.OfferTransitions.WithLabelValues(string(valueobject.OfferStatusCounteroffered)).Inc()
	common.Notify(ctx, uc.deps.Notifier, entity.NewSessionEvent(entity.EventOfferCounteroffered, input.ActorID, session, next))

	offers, err := repos.Offers.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, common.Wrap(err, "не удалось получить предложения")
	}
	return &SessionView{Session: session, Offers: offers}, nil
}
