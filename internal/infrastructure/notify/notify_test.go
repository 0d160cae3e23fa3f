package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/infrastructure/memory"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) BroadcastToUser(ctx context.Context, userID uuid.UUID, event string, data any) error {
	args := m.Called(ctx, userID, event, data)
	return args.Error(0)
}

func sessionEvent(customer uuid.UUID, seller valueobject.Seller, actor uuid.UUID) entity.Event {
	session := &entity.OfferSession{ID: uuid.New(), CustomerID: customer, Seller: seller}
	return entity.NewSessionEvent(entity.EventOfferCreated, actor, session, nil)
}

func TestHubNotifier_UserSellerSkipsActor(t *testing.T) {
	customer, sellerID := uuid.New(), uuid.New()
	hub := new(mockBroadcaster)
	hub.On("BroadcastToUser", mock.Anything, sellerID, "offer_created", mock.Anything).Return(nil).Once()

	n := NewHubNotifier(hub, memory.NewStore().Repositories().Organizations)
	err := n.Notify(context.Background(), sessionEvent(customer, valueobject.UserSeller(sellerID), customer))

	require.NoError(t, err)
	hub.AssertExpectations(t)
	hub.AssertNotCalled(t, "BroadcastToUser", mock.Anything, customer, mock.Anything, mock.Anything)
}

func TestHubNotifier_OrganizationManagers(t *testing.T) {
	store := memory.NewStore()
	m1, m2 := uuid.New(), uuid.New()
	org := store.AddOrganization("Ромашка", m1, m2)
	customer := uuid.New()

	hub := new(mockBroadcaster)
	hub.On("BroadcastToUser", mock.Anything, customer, "offer_created", mock.Anything).Return(nil).Once()
	hub.On("BroadcastToUser", mock.Anything, m2, "offer_created", mock.Anything).Return(errors.New("offline")).Once()

	n := NewHubNotifier(hub, store.Repositories().Organizations)
	err := n.Notify(context.Background(), sessionEvent(customer, valueobject.OrganizationSeller(org.ID), m1))

	assert.Error(t, err)
	hub.AssertExpectations(t)
	hub.AssertNotCalled(t, "BroadcastToUser", mock.Anything, m1, mock.Anything, mock.Anything)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaNotifier_KeyAndBody(t *testing.T) {
	w := &fakeWriter{}
	n := NewKafkaNotifier(w)
	ev := sessionEvent(uuid.New(), valueobject.UserSeller(uuid.New()), uuid.New())

	require.NoError(t, n.Notify(context.Background(), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, ev.SessionID.String(), string(msg.Key))
	assert.Equal(t, "offer_created", headerCarrier{headers: &msg.Headers}.Get("event_type"))

	var decoded entity.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.CustomerID, decoded.CustomerID)
	assert.Equal(t, valueobject.SellerKindUser, decoded.SellerKind)
}

func TestKafkaNotifier_WriteError(t *testing.T) {
	n := NewKafkaNotifier(&fakeWriter{err: errors.New("broker down")})
	err := n.Notify(context.Background(), sessionEvent(uuid.New(), valueobject.UserSeller(uuid.New()), uuid.New()))
	assert.ErrorContains(t, err, "broker down")
}

func TestHeaderCarrier(t *testing.T) {
	var headers []kafka.Header
	c := headerCarrier{headers: &headers}
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	c.Set("baggage", "x=1")

	assert.Equal(t, "b", c.Get("traceparent"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, c.Keys())
	assert.Empty(t, c.Get("missing"))
}

type countingNotifier struct {
	calls atomic.Int32
	err   error
}

func (n *countingNotifier) Notify(ctx context.Context, ev entity.Event) error {
	n.calls.Add(1)
	return n.err
}

func TestComposite_AllSinksAttempted(t *testing.T) {
	ok := &countingNotifier{}
	failing := &countingNotifier{err: errors.New("boom")}
	c := NewComposite(Sink{Name: "ws", Notifier: failing}, Sink{Name: "kafka", Notifier: ok})

	err := c.Notify(context.Background(), entity.Event{Type: entity.EventOrderCancelled})

	assert.ErrorContains(t, err, "ws: boom")
	assert.EqualValues(t, 1, ok.calls.Load())
	assert.EqualValues(t, 1, failing.calls.Load())

	// Оба канала с ошибкой: отправка всё равно идёт в каждый.
	other := &countingNotifier{err: errors.New("down")}
	c = NewComposite(Sink{Name: "ws", Notifier: failing}, Sink{Name: "kafka", Notifier: other})
	require.Error(t, c.Notify(context.Background(), entity.Event{Type: entity.EventOrderCancelled}))
	assert.EqualValues(t, 2, failing.calls.Load())
	assert.EqualValues(t, 1, other.calls.Load())
}

func TestAsync_DetachedFromRequest(t *testing.T) {
	next := &countingNotifier{err: errors.New("ignored")}
	a := NewAsync(next, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Notify(ctx, entity.Event{Type: entity.EventOfferAccepted}))
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, a.Wait(waitCtx))
	assert.EqualValues(t, 1, next.calls.Load())
}
