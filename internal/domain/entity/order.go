package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
)

// OrderListing хранит списанное по заказу количество лота.
type OrderListing struct {
	ListingID  uuid.UUID
	Quantity   int
	ReleasedAt *time.Time
}

type Order struct {
	ID             uuid.UUID
	OfferSessionID *uuid.UUID
	OfferID        *uuid.UUID
	CustomerID     uuid.UUID
	Seller         valueobject.Seller
	Terms          OfferTerms
	Status         valueobject.OrderStatus
	Listings       []OrderListing
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewOrderFromOffer создаёт заказ из принятого предложения.
func NewOrderFromOffer(session *OfferSession, offer *Offer) (*Order, error) {
	if offer.Status != valueobject.OfferStatusAccepted {
		return nil, apperror.New(apperror.ErrCodeInvalidSessionState, "заказ создаётся только из принятого предложения")
	}
	if offer.SessionID != session.ID {
		return nil, apperror.New(apperror.ErrCodeInvalidSessionState, "предложение не принадлежит сессии")
	}

	sessionID := session.ID
	offerID := offer.ID
	listings := make([]OrderListing, 0, len(offer.Listings))
	for _, l := range offer.Listings {
		listings = append(listings, OrderListing{ListingID: l.ListingID, Quantity: l.Quantity})
	}

	now := time.Now()
	return &Order{
		ID:             uuid.New(),
		OfferSessionID: &sessionID,
		OfferID:        &offerID,
		CustomerID:     session.CustomerID,
		Seller:         session.Seller,
		Terms:          offer.Terms,
		Status:         valueobject.OrderStatusNotStarted,
		Listings:       listings,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (o *Order) IsCancelled() bool {
	return o.Status == valueobject.OrderStatusCancelled
}

func (o *Order) IsOpen() bool {
	return o.Status != valueobject.OrderStatusCancelled && o.Status != valueobject.OrderStatusFulfilled
}

func (o *Order) AdvanceTo(status valueobject.OrderStatus) error {
	if status == valueobject.OrderStatusCancelled {
		return apperror.New(apperror.ErrCodeBadRequest, "для отмены используйте отдельную операцию")
	}
	if !o.Status.CanTransitionTo(status) {
		return apperror.Newf(apperror.ErrCodeInvalidSessionState, "невозможно перевести заказ из %s в %s", o.Status, status)
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel отменяет заказ. Повторная отмена не считается ошибкой: changed=false.
func (o *Order) Cancel() (changed bool) {
	if o.IsCancelled() {
		return false
	}
	o.Status = valueobject.OrderStatusCancelled
	o.UpdatedAt = time.Now()
	return true
}

// PendingReleases возвращает ещё не возвращённые в остаток позиции.
func (o *Order) PendingReleases() []OrderListing {
	var pending []OrderListing
	for _, l := range o.Listings {
		if l.ReleasedAt == nil {
			pending = append(pending, l)
		}
	}
	return pending
}

func (o *Order) MarkReleased(listingID uuid.UUID, at time.Time) {
	for i := range o.Listings {
		if o.Listings[i].ListingID == listingID && o.Listings[i].ReleasedAt == nil {
			released := at
			o.Listings[i].ReleasedAt = &released
		}
	}
}
