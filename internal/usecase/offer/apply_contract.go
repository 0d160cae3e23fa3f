package offer

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/ignatzorin/offer-engine/internal/tracing"
	"github.com/ignatzorin/offer-engine/internal/usecase/common"
	"go.opentelemetry.io/otel/attribute"
)

type ApplyToContractInput struct {
	ContractID  uuid.UUID
	ApplicantID uuid.UUID
	// OrganizationID задаётся для отклика от имени организации.
	OrganizationID *uuid.UUID
	// Terms переопределяют условия контракта.
	Terms    *entity.OfferTerms
	Listings []entity.ListingCommitment
}

// ApplyToContractUseCase оформляет отклик продавца на публичный контракт.
// Отклик открывает сессию переговоров с заказчиком контракта.
type ApplyToContractUseCase struct {
	deps Deps
}

func NewApplyToContractUseCase(deps Deps) *ApplyToContractUseCase {
	return &ApplyToContractUseCase{deps: deps}
}

func (uc *ApplyToContractUseCase) Execute(ctx context.Context, input ApplyToContractInput) (view *SessionView, err error) {
	ctx, span := tracing.Start(ctx, "offer.apply_contract", attribute.String("contract_id", input.ContractID.String()))
	defer func() { tracing.End(span, err) }()

	repos := uc.deps.Store.Repositories()
	contract, err := repos.Contracts.FindByID(ctx, input.ContractID)
	if err != nil {
		return nil, err
	}
	if !contract.IsOpen() {
		return nil, apperror.New(apperror.ErrCodeInvalidSessionState, "контракт закрыт для откликов")
	}
	if contract.CustomerID == input.ApplicantID {
		return nil, apperror.New(apperror.ErrCodeSelfTrade, "нельзя откликнуться на собственный контракт")
	}

	seller := valueobject.UserSeller(input.ApplicantID)
	if input.OrganizationID != nil {
		seller = valueobject.OrganizationSeller(*input.OrganizationID)
		if err := common.EnsureSellerSide(ctx, repos.Permissions, seller, input.ApplicantID); err != nil {
			return nil, err
		}
	}

	terms := contract.Terms
	if input.Terms != nil {
		terms = *input.Terms
	}
	contractID := contract.ID

	return uc.deps.openSession(ctx, openParams{
		customerID: contract.CustomerID,
		seller:     seller,
		actorID:    input.ApplicantID,
		side:       valueobject.PartySeller,
		terms:      terms,
		listings:   input.Listings,
		contractID: &contractID,
	})
}
