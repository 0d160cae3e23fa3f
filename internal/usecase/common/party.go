package common

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
)

// ResolveParty определяет, за какую сторону сделки выступает пользователь.
// За организацию выступает любой, у кого есть право управления ею.
func ResolveParty(ctx context.Context, perms repository.PermissionChecker, customerID uuid.UUID, seller valueobject.Seller, actorID uuid.UUID) (valueobject.Party, error) {
	if actorID == customerID {
		return valueobject.PartyCustomer, nil
	}
	if err := EnsureSellerSide(ctx, perms, seller, actorID); err != nil {
		return "", err
	}
	return valueobject.PartySeller, nil
}

// EnsureSellerSide проверяет, что пользователь может действовать от имени продавца.
func EnsureSellerSide(ctx context.Context, perms repository.PermissionChecker, seller valueobject.Seller, actorID uuid.UUID) error {
	switch {
	case seller.IsUser():
		if seller.ID == actorID {
			return nil
		}
	case seller.IsOrganization():
		ok, err := perms.CanManageOrganization(ctx, actorID, seller.ID)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить права в организации")
		}
		if ok {
			return nil
		}
	}
	return apperror.ErrUnauthorized
}
