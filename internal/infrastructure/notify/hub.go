package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
)

// Broadcaster доставляет сообщение всем подключениям пользователя.
type Broadcaster interface {
	BroadcastToUser(ctx context.Context, userID uuid.UUID, event string, data any) error
}

// HubNotifier рассылает события участникам через WebSocket-хаб.
// За организацию уведомления получают её менеджеры.
type HubNotifier struct {
	hub  Broadcaster
	orgs repository.OrganizationRepository
}

func NewHubNotifier(hub Broadcaster, orgs repository.OrganizationRepository) *HubNotifier {
	return &HubNotifier{hub: hub, orgs: orgs}
}

func (n *HubNotifier) Notify(ctx context.Context, ev entity.Event) error {
	recipients, err := n.recipients(ctx, ev)
	if err != nil {
		return err
	}

	var errs []error
	for _, userID := range recipients {
		if err := n.hub.BroadcastToUser(ctx, userID, string(ev.Type), ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// recipients возвращает стороны события без автора действия.
func (n *HubNotifier) recipients(ctx context.Context, ev entity.Event) ([]uuid.UUID, error) {
	candidates := []uuid.UUID{ev.CustomerID}

	seller := ev.Seller()
	switch {
	case seller.IsUser():
		candidates = append(candidates, seller.ID)
	case seller.IsOrganization():
		managers, err := n.orgs.ListManagerIDs(ctx, seller.ID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, managers...)
	}

	seen := make(map[uuid.UUID]bool, len(candidates))
	out := make([]uuid.UUID, 0, len(candidates))
	for _, id := range candidates {
		if id == uuid.Nil || id == ev.ActorID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
