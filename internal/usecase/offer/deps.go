package offer

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/logger"
	"github.com/ignatzorin/offer-engine/internal/pkg/apperror"
	"github.com/ignatzorin/offer-engine/internal/usecase/common"
	"github.com/ignatzorin/offer-engine/internal/usecase/order"
	"github.com/sirupsen/logrus"
)

// Deps собирает общие зависимости сценариев переговоров.
type Deps struct {
	Store       repository.Store
	Locks       repository.SellerLocker
	Fulfillment *order.Fulfillment
	Notifier    repository.Notifier
	Threads     repository.ThreadBridge
}

// SessionView содержит сессию с цепочкой предложений; последнее из них текущее.
type SessionView struct {
	Session *entity.OfferSession
	Offers  []*entity.Offer
}

func (v *SessionView) Current() *entity.Offer {
	if len(v.Offers) == 0 {
		return nil
	}
	return v.Offers[len(v.Offers)-1]
}

// withSellerLock берёт блокировку продавца, если операция затрагивает его лоты.
// Для организации блокировка берётся всегда: архивация идёт под той же блокировкой.
func (d Deps) withSellerLock(ctx context.Context, seller valueobject.Seller, withListings bool, fn func(ctx context.Context) error) error {
	if !withListings && !seller.IsOrganization() {
		return fn(ctx)
	}
	return d.Locks.WithLock(ctx, seller, fn)
}

// attachThread создаёт внешнюю ветку обсуждения. Ошибки не прерывают сценарий.
func (d Deps) attachThread(ctx context.Context, session *entity.OfferSession, title string) {
	if d.Threads == nil {
		return
	}
	threadID, err := d.Threads.CreateThread(ctx, session, title)
	if err != nil {
		logger.Log.WithError(err).WithField("session_id", session.ID).Warn("не удалось создать ветку обсуждения")
		return
	}
	if threadID == "" {
		return
	}
	session.AttachThread(threadID)
	if err := d.Store.Repositories().Sessions.SetThread(ctx, session.ID, threadID); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"session_id": session.ID,
			"thread_id":  threadID,
		}).Warn("не удалось сохранить ветку обсуждения")
	}
}

func (d Deps) renameThread(ctx context.Context, session *entity.OfferSession, name string) {
	if d.Threads == nil || session.ThreadID == nil {
		return
	}
	if err := d.Threads.RenameThread(ctx, *session.ThreadID, name); err != nil {
		logger.Log.WithError(err).WithField("thread_id", *session.ThreadID).Warn("не удалось переименовать ветку обсуждения")
	}
}

// ensureSellerAvailable запрещает переговоры с архивированной организацией.
// В транзакции вызывается повторно, уже под блокировкой продавца.
func ensureSellerAvailable(ctx context.Context, repos repository.Repositories, seller valueobject.Seller) error {
	if !seller.IsOrganization() {
		return nil
	}
	org, err := repos.Organizations.FindByID(ctx, seller.ID)
	if err != nil {
		return common.Wrap(err, "не удалось получить организацию")
	}
	if org.IsArchived() {
		return apperror.New(apperror.ErrCodeSellerArchived, "организация-продавец архивирована")
	}
	return nil
}

// ensureService проверяет, что услуга принадлежит продавцу сессии.
func ensureService(ctx context.Context, services repository.ServiceRepository, serviceID *uuid.UUID, seller valueobject.Seller) error {
	if serviceID == nil {
		return nil
	}
	service, err := services.FindByID(ctx, *serviceID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.New(apperror.ErrCodeInvalidService, "услуга не найдена")
		}
		return common.Wrap(err, "не удалось получить услугу")
	}
	if service.Seller != seller {
		return apperror.New(apperror.ErrCodeInvalidService, "услуга не принадлежит продавцу сессии")
	}
	return nil
}

// ensureCurrent сверяет текущее предложение в транзакции с прочитанным до блокировки.
func ensureCurrent(ctx context.Context, tx repository.Repositories, sessionID, expectedOfferID uuid.UUID) (*entity.OfferSession, *entity.Offer, error) {
	session, err := tx.Sessions.FindByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if err := session.EnsureActive(); err != nil {
		return nil, nil, err
	}
	current, err := tx.Offers.FindLatestBySession(ctx, sessionID)
	if err != nil {
		return nil, nil, common.Wrap(err, "не удалось получить текущее предложение")
	}
	if current.ID != expectedOfferID || !current.IsActive() {
		return nil, nil, apperror.New(apperror.ErrCodeInvalidSessionState, "текущее предложение уже изменилось, обновите сессию")
	}
	return session, current, nil
}
