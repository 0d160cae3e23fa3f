package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/metrics"
	"github.com/ignatzorin/offer-engine/internal/tracing"
	"github.com/ignatzorin/offer-engine/internal/usecase/common"
	"go.opentelemetry.io/otel/attribute"
)

type CancelOrderInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Reason  string
}

type CancelOrderUseCase struct {
	store       repository.Store
	locks       repository.SellerLocker
	fulfillment *Fulfillment
	notifier    repository.Notifier
}

func NewCancelOrderUseCase(store repository.Store, locks repository.SellerLocker, fulfillment *Fulfillment, notifier repository.Notifier) *CancelOrderUseCase {
	return &CancelOrderUseCase{
		store:       store,
		locks:       locks,
		fulfillment: fulfillment,
		notifier:    notifier,
	}
}

// Execute отменяет заказ любой из сторон. Повторная отмена возвращает заказ без ошибки.
func (uc *CancelOrderUseCase) Execute(ctx context.Context, input CancelOrderInput) (result *entity.Order, err error) {
	ctx, span := tracing.Start(ctx, "order.cancel", attribute.String("order_id", input.OrderID.String()))
	defer func() { tracing.End(span, err) }()

	repos := uc.store.Repositories()
	order, err := repos.Orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if _, err := common.ResolveParty(ctx, repos.Permissions, order.CustomerID, order.Seller, input.ActorID); err != nil {
		return nil, err
	}
	if order.IsCancelled() {
		return order, nil
	}

	var (
		released int
		changed  bool
	)
	err = uc.locks.WithLock(ctx, order.Seller, func(ctx context.Context) error {
		return uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
			current, err := tx.Orders.FindByIDForUpdate(ctx, input.OrderID)
			if err != nil {
				return err
			}
			released, changed, err = uc.fulfillment.Cancel(ctx, tx, current, input.ActorID, input.Reason)
			order = current
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		metrics.InventoryReleased.Add(float64(released))
		common.Notify(ctx, uc.notifier, entity.NewOrderEvent(entity.EventOrderCancelled, input.ActorID, order))
	}
	return order, nil
}
