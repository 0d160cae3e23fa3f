package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
)

type MarketListing struct {
	ID                uuid.UUID
	Seller            valueobject.Seller
	Title             string
	QuantityAvailable int
	Status            valueobject.ListingStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (l *MarketListing) IsActive() bool {
	return l.Status == valueobject.ListingStatusActive
}

type Organization struct {
	ID         uuid.UUID
	Name       string
	ArchivedAt *time.Time
	CreatedAt  time.Time
}

func (o *Organization) IsArchived() bool {
	return o.ArchivedAt != nil
}

// Service описывает услугу продавца, на которую может ссылаться предложение.
type Service struct {
	ID     uuid.UUID
	Seller valueobject.Seller
	Title  string
}

type ContractStatus string

const (
	ContractStatusOpen   ContractStatus = "open"
	ContractStatusClosed ContractStatus = "closed"
)

// PublicContract описывает публичную заявку покупателя, на которую откликаются продавцы.
type PublicContract struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Terms      OfferTerms
	Status     ContractStatus
	CreatedAt  time.Time
}

func (c *PublicContract) IsOpen() bool {
	return c.Status == ContractStatusOpen
}
