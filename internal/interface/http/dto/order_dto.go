package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/usecase/order"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type OrderListingResponse struct {
	ListingID  uuid.UUID  `json:"listing_id"`
	Quantity   int        `json:"quantity"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}

type OrderResponse struct {
	ID             uuid.UUID              `json:"id"`
	OfferSessionID *uuid.UUID             `json:"offer_session_id,omitempty"`
	OfferID        *uuid.UUID             `json:"offer_id,omitempty"`
	CustomerID     uuid.UUID              `json:"customer_id"`
	Seller         SellerResponse         `json:"seller"`
	Terms          TermsResponse          `json:"terms"`
	Status         string                 `json:"status"`
	Listings       []OrderListingResponse `json:"listings"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type ArchiveSellerResponse struct {
	OrganizationID   uuid.UUID   `json:"organization_id"`
	CancelledOrders  []uuid.UUID `json:"cancelled_orders"`
	RejectedSessions []uuid.UUID `json:"rejected_sessions"`
	ArchivedListings int         `json:"archived_listings"`
	ReleasedUnits    int         `json:"released_units"`
}

func ToOrderResponse(o *entity.Order) OrderResponse {
	listings := make([]OrderListingResponse, 0, len(o.Listings))
	for _, l := range o.Listings {
		listings = append(listings, OrderListingResponse{
			ListingID:  l.ListingID,
			Quantity:   l.Quantity,
			ReleasedAt: l.ReleasedAt,
		})
	}
	return OrderResponse{
		ID:             o.ID,
		OfferSessionID: o.OfferSessionID,
		OfferID:        o.OfferID,
		CustomerID:     o.CustomerID,
		Seller:         ToSellerResponse(o.Seller),
		Terms:          toTermsResponse(o.Terms),
		Status:         string(o.Status),
		Listings:       listings,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func ToArchiveSellerResponse(r *order.ArchiveSellerResult) ArchiveSellerResponse {
	return ArchiveSellerResponse{
		OrganizationID:   r.OrganizationID,
		CancelledOrders:  nonNil(r.CancelledOrders),
		RejectedSessions: nonNil(r.RejectedSessions),
		ArchivedListings: r.ArchivedListings,
		ReleasedUnits:    r.ReleasedUnits,
	}
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
