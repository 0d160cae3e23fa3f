package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/goroutine"
	"github.com/ignatzorin/offer-engine/internal/logger"
	"github.com/ignatzorin/offer-engine/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Sink задаёт именованный канал доставки. Имя идёт в метки метрик.
type Sink struct {
	Name     string
	Notifier repository.Notifier
}

// Composite отправляет событие во все каналы параллельно.
// Ошибка одного канала не мешает остальным; наружу возвращается первая,
// остальные видны в метрике по имени канала.
type Composite struct {
	sinks []Sink
}

func NewComposite(sinks ...Sink) *Composite {
	return &Composite{sinks: sinks}
}

func (c *Composite) Notify(ctx context.Context, ev entity.Event) error {
	var g errgroup.Group
	for _, sink := range c.sinks {
		sink := sink
		g.Go(func() error {
			if err := sink.Notifier.Notify(ctx, ev); err != nil {
				metrics.NotificationFailures.WithLabelValues(sink.Name).Inc()
				return fmt.Errorf("%s: %w", sink.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Async отвязывает доставку от запроса: Notify возвращается сразу,
// отправка идёт в фоне с собственным таймаутом.
type Async struct {
	next    repository.Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next repository.Notifier, timeout time.Duration) *Async {
	return &Async{next: next, timeout: timeout}
}

func (a *Async) Notify(ctx context.Context, ev entity.Event) error {
	base := context.WithoutCancel(ctx)
	a.wg.Add(1)
	goroutine.SafeGoWithContext(base, func(ctx context.Context) {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		if err := a.next.Notify(ctx, ev); err != nil {
			logger.WithError(err, logrus.Fields{
				"event":       ev.Type,
				"customer_id": ev.CustomerID,
				"seller":      ev.Seller().String(),
			}).Warn("не удалось доставить уведомление")
		}
	})
	return nil
}

// Wait дожидается фоновых отправок; используется при остановке сервиса.
func (a *Async) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
