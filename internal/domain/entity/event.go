package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
)

type EventType string

const (
	EventOfferCreated        EventType = "offer_created"
	EventOfferCounteroffered EventType = "offer_counteroffered"
	EventOfferAccepted       EventType = "offer_accepted"
	EventOfferRejected       EventType = "offer_rejected"
	EventOfferCancelled      EventType = "offer_cancelled"
	EventOffersMerged        EventType = "offers_merged"
	EventOrderStatusChanged  EventType = "order_status_changed"
	EventOrderCancelled      EventType = "order_cancelled"
)

// Event описывает уведомление сторонам сделки.
type Event struct {
	Type       EventType              `json:"type"`
	ActorID    uuid.UUID              `json:"actor_id"`
	CustomerID uuid.UUID              `json:"customer_id"`
	SellerKind valueobject.SellerKind `json:"seller_kind"`
	SellerID   uuid.UUID              `json:"seller_id"`
	SessionID  *uuid.UUID             `json:"session_id,omitempty"`
	OfferID    *uuid.UUID             `json:"offer_id,omitempty"`
	OrderID    *uuid.UUID             `json:"order_id,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e Event) Seller() valueobject.Seller {
	return valueobject.Seller{Kind: e.SellerKind, ID: e.SellerID}
}

func NewSessionEvent(t EventType, actorID uuid.UUID, session *OfferSession, offer *Offer) Event {
	sessionID := session.ID
	ev := Event{
		Type:       t,
		ActorID:    actorID,
		CustomerID: session.CustomerID,
		SellerKind: session.Seller.Kind,
		SellerID:   session.Seller.ID,
		SessionID:  &sessionID,
		OccurredAt: time.Now(),
	}
	if offer != nil {
		offerID := offer.ID
		ev.OfferID = &offerID
		ev.Payload = map[string]interface{}{
			"title": offer.Terms.Title,
			"cost":  offer.Terms.Cost,
		}
	}
	return ev
}

func NewOrderEvent(t EventType, actorID uuid.UUID, order *Order) Event {
	orderID := order.ID
	return Event{
		Type:       t,
		ActorID:    actorID,
		CustomerID: order.CustomerID,
		SellerKind: order.Seller.Kind,
		SellerID:   order.Seller.ID,
		SessionID:  order.OfferSessionID,
		OrderID:    &orderID,
		Payload:    map[string]interface{}{"status": order.Status},
		OccurredAt: time.Now(),
	}
}
