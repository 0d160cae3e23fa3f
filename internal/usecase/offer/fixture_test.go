package offer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/infrastructure/memory"
	"github.com/ignatzorin/offer-engine/internal/pkg/sellerlock"
	"github.com/ignatzorin/offer-engine/internal/usecase/offer"
	"github.com/ignatzorin/offer-engine/internal/usecase/order"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []entity.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, ev entity.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) types() []entity.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]entity.EventType, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeThreads struct {
	mu      sync.Mutex
	created int
	renamed []string
}

func (f *fakeThreads) CreateThread(ctx context.Context, session *entity.OfferSession, title string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return "thread-" + session.ID.String(), nil
}

func (f *fakeThreads) RenameThread(ctx context.Context, threadID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renamed = append(f.renamed, name)
	return nil
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	threads  *fakeThreads
	deps     offer.Deps

	customer uuid.UUID
	manager  uuid.UUID
	org      *entity.Organization
	seller   valueobject.Seller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	threads := &fakeThreads{}
	manager := uuid.New()
	org := store.AddOrganization("ООО Стройка", manager)

	return &fixture{
		store:    store,
		notifier: notifier,
		threads:  threads,
		deps: offer.Deps{
			Store:       store,
			Locks:       sellerlock.NewManager(2 * time.Second),
			Fulfillment: order.NewFulfillment(),
			Notifier:    notifier,
			Threads:     threads,
		},
		customer: uuid.New(),
		manager:  manager,
		org:      org,
		seller:   valueobject.OrganizationSeller(org.ID),
	}
}

func terms(title string, cost int64) entity.OfferTerms {
	return entity.OfferTerms{Title: title, Cost: cost, PaymentType: valueobject.PaymentTypeOneTime}
}

func (f *fixture) open(t *testing.T, title string, cost int64, listings ...entity.ListingCommitment) *offer.SessionView {
	t.Helper()
	view, err := offer.NewOpenSessionUseCase(f.deps).Execute(context.Background(), offer.OpenSessionInput{
		CustomerID: f.customer,
		Seller:     f.seller,
		Terms:      terms(title, cost),
		Listings:   listings,
	})
	require.NoError(t, err)
	return view
}

func (f *fixture) resolve(sessionID, actorID uuid.UUID, r valueobject.Resolution) (*offer.ResolveOfferResult, error) {
	return offer.NewResolveOfferUseCase(f.deps).Execute(context.Background(), offer.ResolveOfferInput{
		SessionID:  sessionID,
		ActorID:    actorID,
		Resolution: r,
	})
}

func (f *fixture) auditActions() []string {
	var actions []string
	for _, e := range f.store.AuditEntries() {
		actions = append(actions, e.Action)
	}
	return actions
}
