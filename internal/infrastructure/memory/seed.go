package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
)

// Методы наполнения нужны тестам и режиму STORAGE_DRIVER=memory.

func (s *Store) seed(fn func(st *state)) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

func (s *Store) AddListing(seller valueobject.Seller, title string, quantity int) *entity.MarketListing {
	now := time.Now()
	listing := entity.MarketListing{
		ID:                uuid.New(),
		Seller:            seller,
		Title:             title,
		QuantityAvailable: quantity,
		Status:            valueobject.ListingStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.seed(func(st *state) { st.listings[listing.ID] = listing })
	return &listing
}

func (s *Store) AddOrganization(name string, managers ...uuid.UUID) *entity.Organization {
	org := entity.Organization{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	s.seed(func(st *state) {
		st.organizations[org.ID] = org
		members := make(map[uuid.UUID]bool, len(managers))
		for _, m := range managers {
			members[m] = true
		}
		st.managers[org.ID] = members
	})
	return &org
}

func (s *Store) AddService(seller valueobject.Seller, title string) *entity.Service {
	service := entity.Service{ID: uuid.New(), Seller: seller, Title: title}
	s.seed(func(st *state) { st.services[service.ID] = service })
	return &service
}

func (s *Store) AddContract(customerID uuid.UUID, terms entity.OfferTerms) *entity.PublicContract {
	contract := entity.PublicContract{
		ID:         uuid.New(),
		CustomerID: customerID,
		Terms:      terms,
		Status:     entity.ContractStatusOpen,
		CreatedAt:  time.Now(),
	}
	s.seed(func(st *state) { st.contracts[contract.ID] = contract })
	return &contract
}

// Quantity возвращает текущий остаток лота или -1, если лота нет.
func (s *Store) Quantity(listingID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.state.listings[listingID]
	if !ok {
		return -1
	}
	return l.QuantityAvailable
}

func (s *Store) AuditEntries() []entity.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.AuditEntry(nil), s.state.audit...)
}

func (s *Store) MergeRecords() []entity.MergeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.MergeRecord(nil), s.state.merges...)
}

func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.orders)
}
