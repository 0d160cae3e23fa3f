package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
)

type sessionRepository struct{ v view }

func (r *sessionRepository) Create(ctx context.Context, session *entity.OfferSession) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.sessions[session.ID]; ok {
			return apperror.New(apperror.ErrCodeConflict, "сессия уже существует")
		}
		st.sessions[session.ID] = *session
		return nil
	})
}

func (r *sessionRepository) Update(ctx context.Context, session *entity.OfferSession) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.sessions[session.ID]; !ok {
			return apperror.ErrSessionNotFound
		}
		st.sessions[session.ID] = *session
		return nil
	})
}

func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.OfferSession, error) {
	var (
		session entity.OfferSession
		ok      bool
	)
	r.v.read(func(st *state) { session, ok = st.sessions[id] })
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}
	return &session, nil
}

func (r *sessionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.OfferSession, error) {
	return r.FindByID(ctx, id)
}

func (r *sessionRepository) ListActiveBySeller(ctx context.Context, seller valueobject.Seller) ([]*entity.OfferSession, error) {
	var result []*entity.OfferSession
	r.v.read(func(st *state) {
		for _, s := range st.sessions {
			if s.Seller == seller && s.IsActive() {
				session := s
				result = append(result, &session)
			}
		}
	})
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *sessionRepository) SetThread(ctx context.Context, id uuid.UUID, threadID string) error {
	return r.v.write(func(st *state) error {
		session, ok := st.sessions[id]
		if !ok {
			return apperror.ErrSessionNotFound
		}
		session.ThreadID = &threadID
		st.sessions[id] = session
		return nil
	})
}

type offerRepository struct{ v view }

func (r *offerRepository) Create(ctx context.Context, offer *entity.Offer) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.sessions[offer.SessionID]; !ok {
			return apperror.ErrSessionNotFound
		}
		st.seq++
		st.offers[offer.ID] = copyOffer(*offer)
		st.offerSeq[offer.ID] = st.seq
		return nil
	})
}

func (r *offerRepository) UpdateStatus(ctx context.Context, offer *entity.Offer) error {
	return r.v.write(func(st *state) error {
		stored, ok := st.offers[offer.ID]
		if !ok {
			return apperror.ErrOfferNotFound
		}
		stored.Status = offer.Status
		stored.UpdatedAt = offer.UpdatedAt
		st.offers[offer.ID] = stored
		return nil
	})
}

func (r *offerRepository) FindLatestBySession(ctx context.Context, sessionID uuid.UUID) (*entity.Offer, error) {
	offers, err := r.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, apperror.ErrOfferNotFound
	}
	return offers[len(offers)-1], nil
}

// ListBySession возвращает цепочку предложений в порядке создания.
func (r *offerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*entity.Offer, error) {
	type ordered struct {
		offer entity.Offer
		seq   int64
	}
	var items []ordered
	r.v.read(func(st *state) {
		for id, o := range st.offers {
			if o.SessionID == sessionID {
				items = append(items, ordered{offer: copyOffer(o), seq: st.offerSeq[id]})
			}
		}
	})
	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })

	result := make([]*entity.Offer, 0, len(items))
	for i := range items {
		result = append(result, &items[i].offer)
	}
	return result, nil
}

type orderRepository struct{ v view }

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	return r.v.write(func(st *state) error {
		if order.OfferSessionID != nil {
			for _, o := range st.orders {
				if o.OfferSessionID != nil && *o.OfferSessionID == *order.OfferSessionID {
					return apperror.New(apperror.ErrCodeConflict, "по сессии уже создан заказ")
				}
			}
		}
		st.orders[order.ID] = copyOrder(*order)
		return nil
	})
}

func (r *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.orders[order.ID]; !ok {
			return apperror.ErrOrderNotFound
		}
		st.orders[order.ID] = copyOrder(*order)
		return nil
	})
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var (
		order entity.Order
		ok    bool
	)
	r.v.read(func(st *state) {
		order, ok = st.orders[id]
		order = copyOrder(order)
	})
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return &order, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *orderRepository) ExistsForSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	var exists bool
	r.v.read(func(st *state) {
		for _, o := range st.orders {
			if o.OfferSessionID != nil && *o.OfferSessionID == sessionID {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func (r *orderRepository) ListOpenBySeller(ctx context.Context, seller valueobject.Seller) ([]*entity.Order, error) {
	var result []*entity.Order
	r.v.read(func(st *state) {
		for _, o := range st.orders {
			if o.Seller == seller && o.IsOpen() {
				order := copyOrder(o)
				result = append(result, &order)
			}
		}
	})
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type listingRepository struct{ v view }

func (r *listingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.MarketListing, error) {
	var (
		listing entity.MarketListing
		ok      bool
	)
	r.v.read(func(st *state) { listing, ok = st.listings[id] })
	if !ok {
		return nil, apperror.ErrListingNotFound
	}
	return &listing, nil
}

func (r *listingRepository) Debit(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.v.write(func(st *state) error {
		listing, ok := st.listings[id]
		if !ok {
			return apperror.ErrListingNotFound
		}
		if quantity <= 0 || listing.QuantityAvailable < quantity {
			return apperror.Newf(apperror.ErrCodeInvalidQuantity, "недостаточно товара по лоту %s", id)
		}
		listing.QuantityAvailable -= quantity
		listing.UpdatedAt = time.Now()
		st.listings[id] = listing
		return nil
	})
}

func (r *listingRepository) Release(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.v.write(func(st *state) error {
		listing, ok := st.listings[id]
		if !ok {
			return apperror.ErrListingNotFound
		}
		listing.QuantityAvailable += quantity
		listing.UpdatedAt = time.Now()
		st.listings[id] = listing
		return nil
	})
}

func (r *listingRepository) ArchiveBySeller(ctx context.Context, seller valueobject.Seller) (int, error) {
	var count int
	err := r.v.write(func(st *state) error {
		for id, l := range st.listings {
			if l.Seller == seller && l.IsActive() {
				l.Status = valueobject.ListingStatusArchived
				l.UpdatedAt = time.Now()
				st.listings[id] = l
				count++
			}
		}
		return nil
	})
	return count, err
}

type organizationRepository struct{ v view }

func (r *organizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Organization, error) {
	var (
		org entity.Organization
		ok  bool
	)
	r.v.read(func(st *state) { org, ok = st.organizations[id] })
	if !ok {
		return nil, apperror.ErrOrganizationNotFound
	}
	return &org, nil
}

func (r *organizationRepository) Archive(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.v.write(func(st *state) error {
		org, ok := st.organizations[id]
		if !ok {
			return apperror.ErrOrganizationNotFound
		}
		if org.ArchivedAt == nil {
			org.ArchivedAt = &at
		}
		st.organizations[id] = org
		return nil
	})
}

func (r *organizationRepository) ListManagerIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	r.v.read(func(st *state) {
		for id := range st.managers[organizationID] {
			ids = append(ids, id)
		}
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (r *organizationRepository) CanManageOrganization(ctx context.Context, userID, organizationID uuid.UUID) (bool, error) {
	var ok bool
	r.v.read(func(st *state) { ok = st.managers[organizationID][userID] })
	return ok, nil
}

type serviceRepository struct{ v view }

func (r *serviceRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error) {
	var (
		service entity.Service
		ok      bool
	)
	r.v.read(func(st *state) { service, ok = st.services[id] })
	if !ok {
		return nil, apperror.ErrServiceNotFound
	}
	return &service, nil
}

type contractRepository struct{ v view }

func (r *contractRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PublicContract, error) {
	var (
		contract entity.PublicContract
		ok       bool
	)
	r.v.read(func(st *state) { contract, ok = st.contracts[id] })
	if !ok {
		return nil, apperror.ErrContractNotFound
	}
	return &contract, nil
}

type auditRepository struct{ v view }

func (r *auditRepository) Record(ctx context.Context, entry *entity.AuditEntry) error {
	return r.v.write(func(st *state) error {
		st.audit = append(st.audit, *entry)
		return nil
	})
}

func (r *auditRepository) RecordMerge(ctx context.Context, record *entity.MergeRecord) error {
	return r.v.write(func(st *state) error {
		rec := *record
		rec.SourceSessionIDs = append([]uuid.UUID(nil), record.SourceSessionIDs...)
		st.merges = append(st.merges, rec)
		return nil
	})
}
