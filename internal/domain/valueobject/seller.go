package valueobject

import (
	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
)

type SellerKind string

const (
	SellerKindUser         SellerKind = "user"
	SellerKindOrganization SellerKind = "organization"
)

// Seller описывает продающую сторону: пользователя либо организацию, ровно одно из двух.
// Пространства идентификаторов не пересекаются, ключом служит пара (Kind, ID).
type Seller struct {
	Kind SellerKind
	ID   uuid.UUID
}

func UserSeller(id uuid.UUID) Seller {
	return Seller{Kind: SellerKindUser, ID: id}
}

func OrganizationSeller(id uuid.UUID) Seller {
	return Seller{Kind: SellerKindOrganization, ID: id}
}

func NewSeller(userID, organizationID *uuid.UUID) (Seller, error) {
	switch {
	case userID != nil && organizationID != nil:
		return Seller{}, apperror.New(apperror.ErrCodeValidation, "продавец должен быть либо пользователем, либо организацией")
	case userID != nil:
		return UserSeller(*userID), nil
	case organizationID != nil:
		return OrganizationSeller(*organizationID), nil
	}
	return Seller{}, apperror.New(apperror.ErrCodeValidation, "продавец не указан")
}

func (s Seller) IsZero() bool {
	return s.Kind == "" || s.ID == uuid.Nil
}

func (s Seller) IsUser() bool {
	return s.Kind == SellerKindUser
}

func (s Seller) IsOrganization() bool {
	return s.Kind == SellerKindOrganization
}

// UserID и OrganizationID раскладывают продавца на nullable-колонки.
func (s Seller) UserID() *uuid.UUID {
	if !s.IsUser() {
		return nil
	}
	id := s.ID
	return &id
}

func (s Seller) OrganizationID() *uuid.UUID {
	if !s.IsOrganization() {
		return nil
	}
	id := s.ID
	return &id
}

func (s Seller) String() string {
	return string(s.Kind) + ":" + s.ID.String()
}

// Party обозначает сторону сессии.
type Party string

const (
	PartyCustomer Party = "customer"
	PartySeller   Party = "seller"
)
