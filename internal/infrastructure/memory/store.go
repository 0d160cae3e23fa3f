package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
)

type state struct {
	sessions      map[uuid.UUID]entity.OfferSession
	offers        map[uuid.UUID]entity.Offer
	offerSeq      map[uuid.UUID]int64
	orders        map[uuid.UUID]entity.Order
	listings      map[uuid.UUID]entity.MarketListing
	organizations map[uuid.UUID]entity.Organization
	managers      map[uuid.UUID]map[uuid.UUID]bool
	services      map[uuid.UUID]entity.Service
	contracts     map[uuid.UUID]entity.PublicContract
	audit         []entity.AuditEntry
	merges        []entity.MergeRecord
	seq           int64
}

func newState() *state {
	return &state{
		sessions:      make(map[uuid.UUID]entity.OfferSession),
		offers:        make(map[uuid.UUID]entity.Offer),
		offerSeq:      make(map[uuid.UUID]int64),
		orders:        make(map[uuid.UUID]entity.Order),
		listings:      make(map[uuid.UUID]entity.MarketListing),
		organizations: make(map[uuid.UUID]entity.Organization),
		managers:      make(map[uuid.UUID]map[uuid.UUID]bool),
		services:      make(map[uuid.UUID]entity.Service),
		contracts:     make(map[uuid.UUID]entity.PublicContract),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.offers {
		c.offers[k] = v
	}
	for k, v := range s.offerSeq {
		c.offerSeq[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = copyOrder(v)
	}
	for k, v := range s.listings {
		c.listings[k] = v
	}
	for k, v := range s.organizations {
		c.organizations[k] = v
	}
	for k, v := range s.managers {
		members := make(map[uuid.UUID]bool, len(v))
		for u := range v {
			members[u] = true
		}
		c.managers[k] = members
	}
	for k, v := range s.services {
		c.services[k] = v
	}
	for k, v := range s.contracts {
		c.contracts[k] = v
	}
	c.audit = append([]entity.AuditEntry(nil), s.audit...)
	c.merges = append([]entity.MergeRecord(nil), s.merges...)
	c.seq = s.seq
	return c
}

// view задаёт, как репозитории обращаются к состоянию: напрямую или к рабочей копии транзакции.
type view interface {
	read(fn func(st *state))
	write(fn func(st *state) error) error
}

// Store хранит состояние в памяти; транзакция работает с рабочей копией.
// Транзакции выполняются по одной; ошибка fn отбрасывает копию целиком.
type Store struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Repositories() repository.Repositories {
	return newRepositories(directView{store: s})
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	work := s.state.clone()
	s.mu.RUnlock()

	if err := fn(ctx, newRepositories(&txView{state: work})); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = work
	s.mu.Unlock()
	return nil
}

type directView struct {
	store *Store
}

func (v directView) read(fn func(st *state)) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	fn(v.store.state)
}

// Запись вне транзакции ждёт завершения текущей транзакции, иначе её результат затрёт копия.
func (v directView) write(fn func(st *state) error) error {
	v.store.txMu.Lock()
	defer v.store.txMu.Unlock()
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

type txView struct {
	state *state
}

func (v *txView) read(fn func(st *state)) {
	fn(v.state)
}

func (v *txView) write(fn func(st *state) error) error {
	return fn(v.state)
}

func newRepositories(v view) repository.Repositories {
	return repository.Repositories{
		Sessions:      &sessionRepository{v: v},
		Offers:        &offerRepository{v: v},
		Orders:        &orderRepository{v: v},
		Listings:      &listingRepository{v: v},
		Organizations: &organizationRepository{v: v},
		Permissions:   &organizationRepository{v: v},
		Services:      &serviceRepository{v: v},
		Contracts:     &contractRepository{v: v},
		Audit:         &auditRepository{v: v},
	}
}

func copyOffer(o entity.Offer) entity.Offer {
	o.Listings = append([]entity.ListingCommitment(nil), o.Listings...)
	return o
}

func copyOrder(o entity.Order) entity.Order {
	o.Listings = append([]entity.OrderListing(nil), o.Listings...)
	return o
}
