package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
)

type OfferSession struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Seller     valueobject.Seller
	Status     valueobject.SessionStatus
	ThreadID   *string
	ContractID *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewOfferSession(customerID uuid.UUID, seller valueobject.Seller) (*OfferSession, error) {
	if customerID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "покупатель не указан")
	}
	if seller.IsZero() {
		return nil, apperror.New(apperror.ErrCodeValidation, "продавец не указан")
	}
	if seller.IsUser() && seller.ID == customerID {
		return nil, apperror.New(apperror.ErrCodeSelfTrade, "нельзя вести переговоры с самим собой")
	}

	now := time.Now()
	return &OfferSession{
		ID:         uuid.New(),
		CustomerID: customerID,
		Seller:     seller,
		Status:     valueobject.SessionStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *OfferSession) IsActive() bool {
	return s.Status == valueobject.SessionStatusActive
}

// Close закрывает сессию. Закрытие происходит ровно один раз.
func (s *OfferSession) Close() error {
	if !s.IsActive() {
		return apperror.New(apperror.ErrCodeAlreadyClosed, "сессия уже закрыта")
	}
	s.Status = valueobject.SessionStatusClosed
	s.UpdatedAt = time.Now()
	return nil
}

func (s *OfferSession) EnsureActive() error {
	if !s.IsActive() {
		return apperror.New(apperror.ErrCodeAlreadyClosed, "сессия закрыта")
	}
	return nil
}

func (s *OfferSession) AttachThread(threadID string) {
	s.ThreadID = &threadID
	s.UpdatedAt = time.Now()
}
