package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/usecase/listing"
	"github.com/ignatzorin/offer-engine/internal/usecase/offer"
)

type ListingItem struct {
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

type OfferTermsRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Cost        int64      `json:"cost" binding:"gte=0"`
	PaymentType string     `json:"payment_type"`
	Collateral  *int64     `json:"collateral"`
	ServiceID   *uuid.UUID `json:"service_id"`
}

// OpenSessionRequest: продавца задают seller_user_id либо seller_organization_id.
// Если оба пусты, продавец определяется по лотам.
type OpenSessionRequest struct {
	SellerUserID         *uuid.UUID        `json:"seller_user_id"`
	SellerOrganizationID *uuid.UUID        `json:"seller_organization_id"`
	Offer                OfferTermsRequest `json:"offer" binding:"required"`
	Listings             []ListingItem     `json:"listings" binding:"dive"`
}

type ApplyToContractRequest struct {
	OrganizationID *uuid.UUID         `json:"organization_id"`
	Offer          *OfferTermsRequest `json:"offer"`
	Listings       []ListingItem      `json:"listings" binding:"dive"`
}

type CounterofferRequest struct {
	Offer    OfferTermsRequest `json:"offer" binding:"required"`
	Listings []ListingItem     `json:"listings" binding:"dive"`
}

type ResolveOfferRequest struct {
	Status string `json:"status" binding:"required,oneof=accept reject cancel"`
}

type MergeSessionsRequest struct {
	SessionIDs []uuid.UUID `json:"session_ids" binding:"required"`
}

type VerifyListingsRequest struct {
	Listings []ListingItem `json:"listings" binding:"required,dive"`
}

func (r OfferTermsRequest) ToTerms() (entity.OfferTerms, error) {
	paymentType, err := valueobject.NewPaymentType(r.PaymentType)
	if err != nil {
		return entity.OfferTerms{}, err
	}
	return entity.OfferTerms{
		Title:       r.Title,
		Description: r.Description,
		Cost:        r.Cost,
		PaymentType: paymentType,
		Collateral:  r.Collateral,
		ServiceID:   r.ServiceID,
	}, nil
}

func ToCommitments(items []ListingItem) []entity.ListingCommitment {
	out := make([]entity.ListingCommitment, 0, len(items))
	for _, it := range items {
		out = append(out, entity.ListingCommitment{ListingID: it.ListingID, Quantity: it.Quantity})
	}
	return out
}

// SellerFromIDs возвращает нулевого продавца, если не задан ни один идентификатор.
func SellerFromIDs(userID, organizationID *uuid.UUID) (valueobject.Seller, error) {
	if userID == nil && organizationID == nil {
		return valueobject.Seller{}, nil
	}
	return valueobject.NewSeller(userID, organizationID)
}

type SellerResponse struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

type TermsResponse struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Cost        int64      `json:"cost"`
	PaymentType string     `json:"payment_type"`
	Collateral  *int64     `json:"collateral,omitempty"`
	ServiceID   *uuid.UUID `json:"service_id,omitempty"`
}

type OfferResponse struct {
	ID        uuid.UUID     `json:"id"`
	SessionID uuid.UUID     `json:"session_id"`
	ActorID   uuid.UUID     `json:"actor_id"`
	ActorSide string        `json:"actor_side"`
	Terms     TermsResponse `json:"terms"`
	Listings  []ListingItem `json:"listings"`
	Status    string        `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type SessionResponse struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Seller     SellerResponse  `json:"seller"`
	Status     string          `json:"status"`
	ThreadID   *string         `json:"thread_id,omitempty"`
	ContractID *uuid.UUID      `json:"contract_id,omitempty"`
	Offers     []OfferResponse `json:"offers,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type ResolveOfferResponse struct {
	Session SessionResponse `json:"session"`
	Offer   OfferResponse   `json:"offer"`
	Order   *OrderResponse  `json:"order,omitempty"`
}

type MergeResponse struct {
	Session          SessionResponse `json:"session"`
	Offer            OfferResponse   `json:"offer"`
	SourceSessionIDs []uuid.UUID     `json:"source_session_ids"`
}

type VerifiedItemResponse struct {
	ListingID         uuid.UUID `json:"listing_id"`
	Title             string    `json:"title"`
	Quantity          int       `json:"quantity"`
	QuantityAvailable int       `json:"quantity_available"`
}

type VerifyListingsResponse struct {
	Seller SellerResponse         `json:"seller"`
	Items  []VerifiedItemResponse `json:"items"`
}

func ToSellerResponse(s valueobject.Seller) SellerResponse {
	return SellerResponse{Kind: string(s.Kind), ID: s.ID}
}

func toTermsResponse(t entity.OfferTerms) TermsResponse {
	return TermsResponse{
		Title:       t.Title,
		Description: t.Description,
		Cost:        t.Cost,
		PaymentType: string(t.PaymentType),
		Collateral:  t.Collateral,
		ServiceID:   t.ServiceID,
	}
}

func ToOfferResponse(o *entity.Offer) OfferResponse {
	listings := make([]ListingItem, 0, len(o.Listings))
	for _, l := range o.Listings {
		listings = append(listings, ListingItem{ListingID: l.ListingID, Quantity: l.Quantity})
	}
	return OfferResponse{
		ID:        o.ID,
		SessionID: o.SessionID,
		ActorID:   o.ActorID,
		ActorSide: string(o.ActorSide),
		Terms:     toTermsResponse(o.Terms),
		Listings:  listings,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func ToSessionResponse(s *entity.OfferSession, offers []*entity.Offer) SessionResponse {
	resp := SessionResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		Seller:     ToSellerResponse(s.Seller),
		Status:     string(s.Status),
		ThreadID:   s.ThreadID,
		ContractID: s.ContractID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	for _, o := range offers {
		resp.Offers = append(resp.Offers, ToOfferResponse(o))
	}
	return resp
}

func ToSessionViewResponse(v *offer.SessionView) SessionResponse {
	return ToSessionResponse(v.Session, v.Offers)
}

func ToResolveOfferResponse(r *offer.ResolveOfferResult) ResolveOfferResponse {
	resp := ResolveOfferResponse{
		Session: ToSessionResponse(r.Session, nil),
		Offer:   ToOfferResponse(r.Offer),
	}
	if r.Order != nil {
		order := ToOrderResponse(r.Order)
		resp.Order = &order
	}
	return resp
}

func ToMergeResponse(r *offer.MergeResult) MergeResponse {
	return MergeResponse{
		Session:          ToSessionResponse(r.Session, nil),
		Offer:            ToOfferResponse(r.Offer),
		SourceSessionIDs: r.Record.SourceSessionIDs,
	}
}

func ToVerifyListingsResponse(v *listing.VerifiedItems) VerifyListingsResponse {
	items := make([]VerifiedItemResponse, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, VerifiedItemResponse{
			ListingID:         it.Listing.ID,
			Title:             it.Listing.Title,
			Quantity:          it.Quantity,
			QuantityAvailable: it.Listing.QuantityAvailable,
		})
	}
	return VerifyListingsResponse{Seller: ToSellerResponse(v.Seller), Items: items}
}
