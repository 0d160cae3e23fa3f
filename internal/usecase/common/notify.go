package common

import (
	"context"

	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/logger"
	"github.com/sirupsen/logrus"
)

// Notify отправляет события после фиксации изменений. Ошибки только логируются.
func Notify(ctx context.Context, notifier repository.Notifier, events ...entity.Event) {
	if notifier == nil {
		return
	}
	for _, ev := range events {
		if err := notifier.Notify(ctx, ev); err != nil {
			logger.Log.WithError(err).WithFields(logrus.Fields{
				"event":       ev.Type,
				"customer_id": ev.CustomerID,
				"seller":      ev.Seller().String(),
			}).Warn("не удалось отправить уведомление")
		}
	}
}
