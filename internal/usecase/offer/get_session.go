package offer

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/usecase/common"
)

type GetSessionUseCase struct {
	deps Deps
}

func NewGetSessionUseCase(deps Deps) *GetSessionUseCase {
	return &GetSessionUseCase{deps: deps}
}

// Execute возвращает сессию участнику переговоров.
func (uc *GetSessionUseCase) Execute(ctx context.Context, sessionID, actorID uuid.UUID) (*SessionView, error) {
	repos := uc.deps.Store.Repositories()
	session, err := repos.Sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := common.ResolveParty(ctx, repos.Permissions, session.CustomerID, session.Seller, actorID); err != nil {
		return nil, err
	}

	offers, err := repos.Offers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, common.Wrap(err, "не удалось получить предложения")
	}
	return &SessionView{Session: session, Offers: offers}, nil
}
