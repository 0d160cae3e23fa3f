package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/ignatzorin/offer-engine/internal/validation"
)

type VerifiedItem struct {
	Listing  *entity.MarketListing
	Quantity int
}

// VerifiedItems содержит проверенные позиции одного продавца.
// Для пустого запроса Seller нулевой.
type VerifiedItems struct {
	Seller valueobject.Seller
	Items  []VerifiedItem
}

func (v *VerifiedItems) Commitments() []entity.ListingCommitment {
	out := make([]entity.ListingCommitment, 0, len(v.Items))
	for _, item := range v.Items {
		out = append(out, entity.ListingCommitment{ListingID: item.Listing.ID, Quantity: item.Quantity})
	}
	return out
}

// Verifier проверяет набор позиций против текущих остатков.
// Проверка без побочных эффектов; для последующего списания вызывайте её под блокировкой продавца.
type Verifier struct {
	listings      repository.ListingRepository
	organizations repository.OrganizationRepository
}

func NewVerifier(listings repository.ListingRepository, organizations repository.OrganizationRepository) *Verifier {
	return &Verifier{listings: listings, organizations: organizations}
}

func (v *Verifier) Verify(ctx context.Context, buyerID uuid.UUID, items []entity.ListingCommitment) (*VerifiedItems, error) {
	if err := checkQuantities(items); err != nil {
		return nil, err
	}
	combined := Combine(items)
	if len(combined) > validation.MaxListingsPerOffer {
		return nil, tooManyListings()
	}

	result := &VerifiedItems{}
	archived := make(map[uuid.UUID]bool)

	for _, item := range combined {
		listing, err := v.listings.FindByID(ctx, item.ListingID)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить лот")
		}
		if listing == nil || !listing.IsActive() {
			return nil, apperror.Newf(apperror.ErrCodeInvalidListing, "лот %s не найден или не активен", item.ListingID)
		}
		if item.Quantity > validation.MaxListingQuantity || item.Quantity > listing.QuantityAvailable {
			return nil, apperror.Newf(apperror.ErrCodeInvalidQuantity,
				"недостаточно товара по лоту %s: запрошено %d, доступно %d", listing.ID, item.Quantity, listing.QuantityAvailable)
		}
		if listing.Seller.IsUser() && listing.Seller.ID == buyerID {
			return nil, apperror.New(apperror.ErrCodeSelfTrade, "нельзя покупать собственный лот")
		}
		if listing.Seller.IsOrganization() {
			isArchived, err := v.isArchived(ctx, listing.Seller.ID, archived)
			if err != nil {
				return nil, err
			}
			if isArchived {
				return nil, apperror.New(apperror.ErrCodeSellerArchived, "организация-продавец архивирована")
			}
		}

		result.Items = append(result.Items, VerifiedItem{Listing: listing, Quantity: item.Quantity})
	}

	for _, item := range result.Items {
		if result.Seller.IsZero() {
			result.Seller = item.Listing.Seller
			continue
		}
		if item.Listing.Seller != result.Seller {
			return nil, apperror.New(apperror.ErrCodeMixedSellers, "все лоты должны принадлежать одному продавцу")
		}
	}

	return result, nil
}

// VerifyForSeller дополнительно требует, чтобы лоты принадлежали продавцу сессии.
func (v *Verifier) VerifyForSeller(ctx context.Context, buyerID uuid.UUID, seller valueobject.Seller, items []entity.ListingCommitment) (*VerifiedItems, error) {
	verified, err := v.Verify(ctx, buyerID, items)
	if err != nil {
		return nil, err
	}
	if !verified.Seller.IsZero() && verified.Seller != seller {
		return nil, apperror.New(apperror.ErrCodeMixedSellers, "лоты принадлежат другому продавцу")
	}
	verified.Seller = seller
	return verified, nil
}

func (v *Verifier) isArchived(ctx context.Context, organizationID uuid.UUID, cache map[uuid.UUID]bool) (bool, error) {
	if archived, ok := cache[organizationID]; ok {
		return archived, nil
	}
	org, err := v.organizations.FindByID(ctx, organizationID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, apperror.New(apperror.ErrCodeInvalidListing, "организация-продавец лота не найдена")
		}
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить организацию")
	}
	cache[organizationID] = org.IsArchived()
	return cache[organizationID], nil
}

// ValidateItems проверяет позиции запроса до обращения к хранилищу.
func ValidateItems(items []entity.ListingCommitment) error {
	if len(items) > validation.MaxListingsPerOffer {
		return tooManyListings()
	}
	return checkQuantities(items)
}

// checkQuantities ограничивает каждую позицию до сложения повторов, иначе сумма может переполниться.
func checkQuantities(items []entity.ListingCommitment) error {
	for _, item := range items {
		if item.Quantity <= 0 || item.Quantity > validation.MaxListingQuantity {
			return apperror.Newf(apperror.ErrCodeInvalidQuantity,
				"количество по лоту %s должно быть от 1 до %d", item.ListingID, validation.MaxListingQuantity)
		}
	}
	return nil
}

func tooManyListings() error {
	return apperror.Newf(apperror.ErrCodeValidation, "не более %d лотов в одном предложении", validation.MaxListingsPerOffer)
}

// Combine складывает количества повторяющихся лотов, сохраняя порядок первого вхождения.
func Combine(items []entity.ListingCommitment) []entity.ListingCommitment {
	index := make(map[uuid.UUID]int, len(items))
	out := make([]entity.ListingCommitment, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ListingID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ListingID] = len(out)
		out = append(out, item)
	}
	return out
}
