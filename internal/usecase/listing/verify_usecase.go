package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
)

type VerifyListingsInput struct {
	BuyerID uuid.UUID
	Items   []entity.ListingCommitment
}

// VerifyListingsUseCase проверяет позиции без резервирования.
type VerifyListingsUseCase struct {
	store repository.Store
}

func NewVerifyListingsUseCase(store repository.Store) *VerifyListingsUseCase {
	return &VerifyListingsUseCase{store: store}
}

func (uc *VerifyListingsUseCase) Execute(ctx context.Context, input VerifyListingsInput) (result *VerifiedItems, err error) {
	ctx, span := tracing.Start(ctx, "listing.verify", attribute.Int("items", len(input.Items)))
	defer func() { tracing.End(span, err) }()

	if err := ValidateItems(input.Items); err != nil {
		return nil, err
	}
	repos := uc.store.Repositories()
	return NewVerifier(repos.Listings, repos.Organizations).Verify(ctx, input.BuyerID, input.Items)
}
