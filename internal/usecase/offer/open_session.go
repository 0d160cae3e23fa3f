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

type OpenSessionInput struct {
	CustomerID uuid.UUID
	// Seller можно не указывать, если продавец однозначно следует из лотов.
	Seller   valueobject.Seller
	Terms    entity.OfferTerms
	Listings []entity.ListingCommitment
}

// OpenSessionUseCase открывает переговоры покупателя с продавцом.
type OpenSessionUseCase struct {
	deps Deps
}

func NewOpenSessionUseCase(deps Deps) *OpenSessionUseCase {
	return &OpenSessionUseCase{deps: deps}
}

func (uc *OpenSessionUseCase) Execute(ctx context.Context, input OpenSessionInput) (view *SessionView, err error) {
	ctx, span := tracing.Start(ctx, "offer.open_session", attribute.Int("listings", len(input.Listings)))
	defer func() { tracing.End(span, err) }()

	seller := input.Seller
	if seller.IsZero() {
		if len(input.Listings) == 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "укажите продавца или лоты")
		}
		repos := uc.deps.Store.Repositories()
		verified, err := listing.NewVerifier(repos.Listings, repos.Organizations).Verify(ctx, input.CustomerID, input.Listings)
		if err != nil {
			return nil, err
		}
		seller = verified.Seller
	}

	return uc.deps.openSession(ctx, openParams{
		customerID: input.CustomerID,
		seller:     seller,
		actorID:    input.CustomerID,
		side:       valueobject.PartyCustomer,
		terms:      input.Terms,
		listings:   input.Listings,
	})
}

type openParams struct {
	customerID uuid.UUID
	seller     valueobject.Seller
	actorID    uuid.UUID
	side       valueobject.Party
	terms      entity.OfferTerms
	listings   []entity.ListingCommitment
	contractID *uuid.UUID
}

// openSession создаёт сессию с первым активным предложением.
func (d Deps) openSession(ctx context.Context, p openParams) (*SessionView, error) {
	if err := listing.ValidateItems(p.listings); err != nil {
		return nil, err
	}
	repos := d.Store.Repositories()
	if err := ensureSellerAvailable(ctx, repos, p.seller); err != nil {
		return nil, err
	}
	if err := ensureService(ctx, repos.Services, p.terms.ServiceID, p.seller); err != nil {
		return nil, err
	}

	session, err := entity.NewOfferSession(p.customerID, p.seller)
	if err != nil {
		return nil, err
	}
	session.ContractID = p.contractID

	offer, err := entity.NewOffer(session.ID, p.actorID, p.side, p.terms, nil)
	if err != nil {
		return nil, err
	}

	err = d.withSellerLock(ctx, p.seller, len(p.listings) > 0, func(ctx context.Context) error {
		return d.Store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			if err := ensureSellerAvailable(ctx, tx, p.seller); err != nil {
				return err
			}
			verified, err := listing.NewVerifier(tx.Listings, tx.Organizations).VerifyForSeller(ctx, p.customerID, p.seller, p.listings)
			if err != nil {
				return err
			}
			offer.Listings = verified.Commitments()

			if err := tx.Sessions.Create(ctx, session); err != nil {
				return common.Wrap(err, "не удалось создать сессию")
			}
			if err := tx.Offers.Create(ctx, offer); err != nil {
				return common.Wrap(err, "не удалось создать предложение")
			}

			metadata := map[string]interface{}{
				"offer_id": offer.ID,
				"cost":     offer.Terms.Cost,
				"listings": len(offer.Listings),
			}
			if p.contractID != nil {
				metadata["contract_id"] = *p.contractID
			}
			entry := entity.NewAuditEntry(entity.AuditActionSessionOpened, p.actorID, entity.AuditSubjectSession, session.ID, metadata)
			return common.Wrap(tx.Audit.Record(ctx, entry), "не удалось записать аудит")
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.OfferTransitions.WithLabelValues(string(valueobject.OfferStatusActive)).Inc()
	d.attachThread(ctx, session, offer.Terms.Title)
	common.Notify(ctx, d.Notifier, entity.NewSessionEvent(entity.EventOfferCreated, p.actorID, session, offer))

	return &SessionView{Session: session, Offers: []*entity.Offer{offer}}, nil
}
