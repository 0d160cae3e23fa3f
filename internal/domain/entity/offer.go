package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/ignatzorin/offer-engine/internal/validation"
)

// ListingCommitment задаёт обязательство по лоту внутри предложения.
type ListingCommitment struct {
	ListingID uuid.UUID
	Quantity  int
}

// OfferTerms содержит коммерческие условия предложения.
type OfferTerms struct {
	Title       string
	Description string
	Cost        int64
	PaymentType valueobject.PaymentType
	Collateral  *int64
	ServiceID   *uuid.UUID
}

func (t OfferTerms) Validate() error {
	if err := validation.ValidateLength("название предложения", t.Title, validation.MinOfferTitleLength, validation.MaxOfferTitleLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание предложения", t.Description, 0, validation.MaxOfferDescriptionLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateCost("стоимость", t.Cost); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if t.Collateral != nil {
		if err := validation.ValidateCost("залог", *t.Collateral); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if !t.PaymentType.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "некорректный тип оплаты")
	}
	return nil
}

type Offer struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	ActorID   uuid.UUID
	ActorSide valueobject.Party
	Terms     OfferTerms
	Listings  []ListingCommitment
	Status    valueobject.OfferStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewOffer(sessionID, actorID uuid.UUID, side valueobject.Party, terms OfferTerms, listings []ListingCommitment) (*Offer, error) {
	if terms.PaymentType == "" {
		terms.PaymentType = valueobject.PaymentTypeOneTime
	}
	terms.Title = validation.SanitizeString(terms.Title)
	terms.Description = validation.SanitizeString(terms.Description)
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if len(listings) > validation.MaxListingsPerOffer {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "не более %d лотов в одном предложении", validation.MaxListingsPerOffer)
	}

	now := time.Now()
	return &Offer{
		ID:        uuid.New(),
		SessionID: sessionID,
		ActorID:   actorID,
		ActorSide: side,
		Terms:     terms,
		Listings:  append([]ListingCommitment(nil), listings...),
		Status:    valueobject.OfferStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (o *Offer) IsActive() bool {
	return !o.Status.IsTerminal()
}

func (o *Offer) transition(status valueobject.OfferStatus) error {
	if !o.Status.CanTransitionTo(status) {
		return apperror.Newf(apperror.ErrCodeAlreadyClosed, "предложение уже в статусе %s", o.Status)
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Offer) Accept() error {
	return o.transition(valueobject.OfferStatusAccepted)
}

func (o *Offer) Reject() error {
	return o.transition(valueobject.OfferStatusRejected)
}

func (o *Offer) MarkCounteroffered() error {
	return o.transition(valueobject.OfferStatusCounteroffered)
}

func (o *Offer) MarkMerged() error {
	return o.transition(valueobject.OfferStatusMerged)
}

// Resolve применяет решение участника через таблицу соответствий Resolution.
func (o *Offer) Resolve(r valueobject.Resolution) error {
	return o.transition(r.OfferStatus())
}
