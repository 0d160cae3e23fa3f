package repository

import (
	"context"

	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
)

// SellerLocker сериализует операции проверки и списания остатка по продавцу.
type SellerLocker interface {
	WithLock(ctx context.Context, seller valueobject.Seller, fn func(ctx context.Context) error) error
}

type Notifier interface {
	Notify(ctx context.Context, event entity.Event) error
}

// ThreadBridge создаёт и переименовывает внешние ветки обсуждения.
type ThreadBridge interface {
	CreateThread(ctx context.Context, session *entity.OfferSession, title string) (string, error)
	RenameThread(ctx context.Context, threadID, name string) error
}
