package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/ignatzorin/offer-engine/internal/tracing"
	"github.com/ignatzorin/offer-engine/internal/usecase/common"
	"go.opentelemetry.io/otel/attribute"
)

type UpdateOrderStatusInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Status  string
}

// UpdateOrderStatusUseCase продвигает заказ вперёд. Отмена уходит в CancelOrderUseCase.
type UpdateOrderStatusUseCase struct {
	store    repository.Store
	cancel   *CancelOrderUseCase
	notifier repository.Notifier
}

func NewUpdateOrderStatusUseCase(store repository.Store, cancel *CancelOrderUseCase, notifier repository.Notifier) *UpdateOrderStatusUseCase {
	return &UpdateOrderStatusUseCase{store: store, cancel: cancel, notifier: notifier}
}

func (uc *UpdateOrderStatusUseCase) Execute(ctx context.Context, input UpdateOrderStatusInput) (result *entity.Order, err error) {
	status, err := valueobject.NewOrderStatus(input.Status)
	if err != nil {
		return nil, err
	}
	if status == valueobject.OrderStatusCancelled {
		return uc.cancel.Execute(ctx, CancelOrderInput{OrderID: input.OrderID, ActorID: input.ActorID})
	}

	ctx, span := tracing.Start(ctx, "order.update_status",
		attribute.String("order_id", input.OrderID.String()),
		attribute.String("status", string(status)))
	defer func() { tracing.End(span, err) }()

	repos := uc.store.Repositories()
	order, err := repos.Orders.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	party, err := common.ResolveParty(ctx, repos.Permissions, order.CustomerID, order.Seller, input.ActorID)
	if err != nil {
		return nil, err
	}
	if party != valueobject.PartySeller {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "статус исполнения меняет только продавец")
	}

	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		current, err := tx.Orders.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		previous := current.Status
		if err := current.AdvanceTo(status); err != nil {
			return err
		}
		if err := tx.Orders.Update(ctx, current); err != nil {
			return common.Wrap(err, "не удалось обновить заказ")
		}
		entry := entity.NewAuditEntry(entity.AuditActionOrderStatus, input.ActorID, entity.AuditSubjectOrder, current.ID, map[string]interface{}{
			"from": previous,
			"to":   current.Status,
		})
		if err := tx.Audit.Record(ctx, entry); err != nil {
			return common.Wrap(err, "не удалось записать аудит")
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	common.Notify(ctx, uc.notifier, entity.NewOrderEvent(entity.EventOrderStatusChanged, input.ActorID, order))
	return order, nil
}
