package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
)

type OfferSessionRepository interface {
	Create(ctx context.Context, session *entity.OfferSession) error
	Update(ctx context.Context, session *entity.OfferSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.OfferSession, error)
	// FindByIDForUpdate блокирует строку сессии до конца транзакции.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.OfferSession, error)
	ListActiveBySeller(ctx context.Context, seller valueobject.Seller) ([]*entity.OfferSession, error)
	// SetThread сохраняет только идентификатор внешней ветки, не трогая статус.
	SetThread(ctx context.Context, id uuid.UUID, threadID string) error
}

type OfferRepository interface {
	Create(ctx context.Context, offer *entity.Offer) error
	UpdateStatus(ctx context.Context, offer *entity.Offer) error
	FindLatestBySession(ctx context.Context, sessionID uuid.UUID) (*entity.Offer, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*entity.Offer, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	Update(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	ExistsForSession(ctx context.Context, sessionID uuid.UUID) (bool, error)
	ListOpenBySeller(ctx context.Context, seller valueobject.Seller) ([]*entity.Order, error)
}

type ListingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.MarketListing, error)
	// Debit уменьшает остаток; при нехватке возвращает INVALID_QUANTITY.
	Debit(ctx context.Context, id uuid.UUID, quantity int) error
	Release(ctx context.Context, id uuid.UUID, quantity int) error
	ArchiveBySeller(ctx context.Context, seller valueobject.Seller) (int, error)
}

type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Organization, error)
	Archive(ctx context.Context, id uuid.UUID, at time.Time) error
	ListManagerIDs(ctx context.Context, organizationID uuid.UUID) ([]uuid.UUID, error)
}

// PermissionChecker отвечает, может ли пользователь управлять организацией.
type PermissionChecker interface {
	CanManageOrganization(ctx context.Context, userID, organizationID uuid.UUID) (bool, error)
}

type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Service, error)
}

type ContractRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PublicContract, error)
}

type AuditRepository interface {
	Record(ctx context.Context, entry *entity.AuditEntry) error
	RecordMerge(ctx context.Context, record *entity.MergeRecord) error
}

// Repositories собирает репозитории, привязанные к одному соединению или транзакции.
type Repositories struct {
	Sessions      OfferSessionRepository
	Offers        OfferRepository
	Orders        OrderRepository
	Listings      ListingRepository
	Organizations OrganizationRepository
	Permissions   PermissionChecker
	Services      ServiceRepository
	Contracts     ContractRepository
	Audit         AuditRepository
}

// Store выдаёт репозитории вне транзакции и выполняет fn в одной транзакции.
// Ошибка fn откатывает все изменения.
type Store interface {
	Repositories() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}
