package sellerlock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/logger"
	"github.com/ignatzorin/offer-engine/internal/metrics"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Guard добавляет межпроцессную блокировку поверх локальной.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Manager выдаёт взаимное исключение по ключу продавца.
// Очередь ожидающих внутри ключа обслуживается в порядке прихода.
// Запись ключа создаётся при первом обращении и удаляется, когда ключ никому не нужен.
type Manager struct {
	mu      sync.Mutex
	entries map[valueobject.Seller]*entry
	timeout time.Duration
	guard   Guard
}

type Option func(*Manager)

// WithGuard подключает межпроцессную блокировку, например RedisGuard.
func WithGuard(g Guard) Option {
	return func(m *Manager) { m.guard = g }
}

// NewManager: timeout <= 0 отключает ограничение ожидания.
func NewManager(timeout time.Duration, opts ...Option) *Manager {
	m := &Manager{
		entries: make(map[valueobject.Seller]*entry),
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithLock выполняет fn, удерживая блокировку продавца. Повторный вход для
// того же продавца из fn приведёт к ожиданию до таймаута.
func (m *Manager) WithLock(ctx context.Context, seller valueobject.Seller, fn func(ctx context.Context) error) error {
	e := m.acquireEntry(seller)
	defer m.releaseEntry(seller, e)

	waitCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := e.sem.Acquire(waitCtx, 1); err != nil {
		return m.acquireFailed(ctx, seller, err)
	}
	defer e.sem.Release(1)
	metrics.SellerLockWait.WithLabelValues(string(seller.Kind)).Observe(time.Since(start).Seconds())

	if m.guard != nil {
		release, err := m.guard.Acquire(waitCtx, seller.String())
		if err != nil {
			return m.acquireFailed(ctx, seller, err)
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				logger.Log.WithError(err).WithField("seller", seller.String()).Warn("не удалось снять межпроцессную блокировку продавца")
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) acquireFailed(ctx context.Context, seller valueobject.Seller, err error) error {
	// Отмена вызывающим не считается таймаутом блокировки.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		metrics.SellerLockTimeouts.WithLabelValues(string(seller.Kind)).Inc()
		logger.Log.WithFields(logrus.Fields{
			"seller":  seller.String(),
			"timeout": m.timeout,
		}).Warn("таймаут ожидания блокировки продавца")
		return apperror.Wrap(err, apperror.ErrCodeLockTimeout, "продавец занят другой операцией, повторите позже")
	}
	return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить блокировку продавца")
}

func (m *Manager) acquireEntry(seller valueobject.Seller) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[seller]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		m.entries[seller] = e
	}
	e.refs++
	return e
}

func (m *Manager) releaseEntry(seller valueobject.Seller, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(m.entries, seller)
	}
}

// Len возвращает количество ключей, по которым сейчас есть владельцы или ожидающие.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
