package valueobject

import "github.com/ignatzorin/offer-engine/internal/pkg/apperror"

type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

func (s SessionStatus) IsValid() bool {
	return s == SessionStatusActive || s == SessionStatusClosed
}

type OfferStatus string

const (
	OfferStatusActive         OfferStatus = "active"
	OfferStatusAccepted       OfferStatus = "accepted"
	OfferStatusRejected       OfferStatus = "rejected"
	OfferStatusCounteroffered OfferStatus = "counteroffered"
	OfferStatusMerged         OfferStatus = "merged"
)

func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusActive, OfferStatusAccepted, OfferStatusRejected, OfferStatusCounteroffered, OfferStatusMerged:
		return true
	}
	return false
}

// IsTerminal: из любого статуса, кроме active, переходов нет.
func (s OfferStatus) IsTerminal() bool {
	return s != OfferStatusActive
}

func (s OfferStatus) CanTransitionTo(newStatus OfferStatus) bool {
	return s == OfferStatusActive && newStatus.IsValid() && newStatus != OfferStatusActive
}

type OrderStatus string

const (
	OrderStatusNotStarted OrderStatus = "not-started"
	OrderStatusInProgress OrderStatus = "in-progress"
	OrderStatusFulfilled  OrderStatus = "fulfilled"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusNotStarted: 0,
	OrderStatusInProgress: 1,
	OrderStatusFulfilled:  2,
}

func (s OrderStatus) IsValid() bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := orderStatusRank[s]
	return ok
}

// CanTransitionTo: статус двигается только вперёд, отмена возможна из любого
// неотменённого статуса и конечна.
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	if s == OrderStatusCancelled || !newStatus.IsValid() {
		return false
	}
	if newStatus == OrderStatusCancelled {
		return true
	}
	return orderStatusRank[newStatus] > orderStatusRank[s]
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа")
	}
	return s, nil
}

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusArchived ListingStatus = "archived"
)

type PaymentType string

const (
	PaymentTypeOneTime PaymentType = "one-time"
	PaymentTypeHourly  PaymentType = "hourly"
	PaymentTypeDaily   PaymentType = "daily"
)

func (p PaymentType) IsValid() bool {
	switch p {
	case PaymentTypeOneTime, PaymentTypeHourly, PaymentTypeDaily:
		return true
	}
	return false
}

func NewPaymentType(value string) (PaymentType, error) {
	if value == "" {
		return PaymentTypeOneTime, nil
	}
	p := PaymentType(value)
	if !p.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный тип оплаты")
	}
	return p, nil
}
