package persistence

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
)

// sellerRow раскладывает продавца на две nullable-колонки.
type sellerRow struct {
	SellerUserID *uuid.UUID `db:"seller_user_id"`
	SellerOrgID  *uuid.UUID `db:"seller_org_id"`
}

func (r sellerRow) seller() (valueobject.Seller, error) {
	return valueobject.NewSeller(r.SellerUserID, r.SellerOrgID)
}

type termsRow struct {
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Cost        int64      `db:"cost"`
	PaymentType string     `db:"payment_type"`
	Collateral  *int64     `db:"collateral"`
	ServiceID   *uuid.UUID `db:"service_id"`
}

func (r termsRow) terms() entity.OfferTerms {
	return entity.OfferTerms{
		Title:       r.Title,
		Description: r.Description,
		Cost:        r.Cost,
		PaymentType: valueobject.PaymentType(r.PaymentType),
		Collateral:  r.Collateral,
		ServiceID:   r.ServiceID,
	}
}

type sessionRow struct {
	ID         uuid.UUID  `db:"id"`
	CustomerID uuid.UUID  `db:"customer_id"`
	Status     string     `db:"status"`
	ThreadID   *string    `db:"thread_id"`
	ContractID *uuid.UUID `db:"contract_id"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	sellerRow
}

func (r sessionRow) toEntity() (*entity.OfferSession, error) {
	seller, err := r.seller()
	if err != nil {
		return nil, err
	}
	return &entity.OfferSession{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		Seller:     seller,
		Status:     valueobject.SessionStatus(r.Status),
		ThreadID:   r.ThreadID,
		ContractID: r.ContractID,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

type offerRow struct {
	ID        uuid.UUID `db:"id"`
	SessionID uuid.UUID `db:"session_id"`
	ActorID   uuid.UUID `db:"actor_id"`
	ActorSide string    `db:"actor_side"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	termsRow
}

func (r offerRow) toEntity() *entity.Offer {
	return &entity.Offer{
		ID:        r.ID,
		SessionID: r.SessionID,
		ActorID:   r.ActorID,
		ActorSide: valueobject.Party(r.ActorSide),
		Terms:     r.terms(),
		Status:    valueobject.OfferStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type commitmentRow struct {
	OwnerID    uuid.UUID  `db:"owner_id"`
	ListingID  uuid.UUID  `db:"listing_id"`
	Quantity   int        `db:"quantity"`
	ReleasedAt *time.Time `db:"released_at"`
}

type orderRow struct {
	ID             uuid.UUID  `db:"id"`
	OfferSessionID *uuid.UUID `db:"offer_session_id"`
	OfferID        *uuid.UUID `db:"offer_id"`
	CustomerID     uuid.UUID  `db:"customer_id"`
	Status         string     `db:"status"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	sellerRow
	termsRow
}

func (r orderRow) toEntity() (*entity.Order, error) {
	seller, err := r.seller()
	if err != nil {
		return nil, err
	}
	return &entity.Order{
		ID:             r.ID,
		OfferSessionID: r.OfferSessionID,
		OfferID:        r.OfferID,
		CustomerID:     r.CustomerID,
		Seller:         seller,
		Terms:          r.terms(),
		Status:         valueobject.OrderStatus(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

type listingRow struct {
	ID                uuid.UUID `db:"id"`
	Title             string    `db:"title"`
	QuantityAvailable int       `db:"quantity_available"`
	Status            string    `db:"status"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
	sellerRow
}

func (r listingRow) toEntity() (*entity.MarketListing, error) {
	seller, err := r.seller()
	if err != nil {
		return nil, err
	}
	return &entity.MarketListing{
		ID:                r.ID,
		Seller:            seller,
		Title:             r.Title,
		QuantityAvailable: r.QuantityAvailable,
		Status:            valueobject.ListingStatus(r.Status),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}
