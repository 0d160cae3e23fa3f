package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/offer-engine/internal/config"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/ignatzorin/offer-engine/internal/http/handlers"
	"github.com/ignatzorin/offer-engine/internal/infrastructure/memory"
	"github.com/ignatzorin/offer-engine/internal/infrastructure/thread"
	"github.com/ignatzorin/offer-engine/internal/interface/http/handler"
	"github.com/ignatzorin/offer-engine/internal/pkg/sellerlock"
	"github.com/ignatzorin/offer-engine/internal/service"
	"github.com/ignatzorin/offer-engine/internal/usecase/listing"
	"github.com/ignatzorin/offer-engine/internal/usecase/offer"
	"github.com/ignatzorin/offer-engine/internal/usecase/order"
	"github.com/ignatzorin/offer-engine/internal/ws"
)

type nopNotifier struct{}

func (nopNotifier) Notify(ctx context.Context, ev entity.Event) error { return nil }

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
	tokens *service.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	locks := sellerlock.NewManager(time.Second)
	fulfillment := order.NewFulfillment()
	notifier := nopNotifier{}
	deps := offer.Deps{
		Store:       store,
		Locks:       locks,
		Fulfillment: fulfillment,
		Notifier:    notifier,
		Threads:     thread.Noop{},
	}
	cancelUC := order.NewCancelOrderUseCase(store, locks, fulfillment, notifier)
	tokens := service.NewTokenManager("router-test-secret", time.Minute)

	engine := SetupRouter(
		&config.Config{RateLimitLimit: 1000, RateLimitPeriod: time.Minute},
		tokens,
		handlers.NewHealthHandler(nil, locks.Len),
		handlers.NewWSHandler(ws.NewHub(), tokens),
		handler.NewOfferHandler(
			offer.NewOpenSessionUseCase(deps),
			offer.NewApplyToContractUseCase(deps),
			offer.NewGetSessionUseCase(deps),
			offer.NewSubmitCounterofferUseCase(deps),
			offer.NewResolveOfferUseCase(deps),
			offer.NewMergeSessionsUseCase(deps),
		),
		handler.NewOrderHandler(
			order.NewUpdateOrderStatusUseCase(store, cancelUC, notifier),
			cancelUC,
			order.NewArchiveSellerUseCase(store, locks, fulfillment, notifier),
		),
		handler.NewListingHandler(listing.NewVerifyListingsUseCase(store)),
	)
	return &testServer{engine: engine, store: store, tokens: tokens}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, userID uuid.UUID, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		token, err := s.tokens.IssueAccess(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func offerBody(title string, cost int64, listingID uuid.UUID, qty int) map[string]any {
	return map[string]any{
		"offer":    map[string]any{"title": title, "cost": cost},
		"listings": []map[string]any{{"listing_id": listingID, "quantity": qty}},
	}
}

func TestRouter_NegotiateAcceptAndCancel(t *testing.T) {
	s := newTestServer(t)
	customer, sellerID := uuid.New(), uuid.New()
	lot := s.store.AddListing(valueobject.UserSeller(sellerID), "Кирпич М150", 10)

	body := offerBody("Кирпич на объект", 5000, lot.ID, 4)
	body["seller_user_id"] = sellerID
	w, env := s.do(t, http.MethodPost, "/api/offers/sessions", customer, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
		Offers []struct {
			ActorSide string `json:"actor_side"`
			Status    string `json:"status"`
		} `json:"offers"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Equal(t, "active", session.Status)
	require.Len(t, session.Offers, 1)
	assert.Equal(t, "customer", session.Offers[0].ActorSide)
	assert.Equal(t, 10, s.store.Quantity(lot.ID))

	// Продавец встречно поднимает цену.
	w, _ = s.do(t, http.MethodPost, "/api/offers/sessions/"+session.ID.String()+"/counteroffer", sellerID,
		map[string]any{
			"offer":    map[string]any{"title": "Кирпич на объект", "cost": 5500},
			"listings": []map[string]any{{"listing_id": lot.ID, "quantity": 4}},
		})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Продавец не может принять собственное предложение.
	w, env = s.do(t, http.MethodPut, "/api/offers/sessions/"+session.ID.String()+"/status", sellerID,
		map[string]any{"status": "accept"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, env = s.do(t, http.MethodPut, "/api/offers/sessions/"+session.ID.String()+"/status", customer,
		map[string]any{"status": "accept"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resolved struct {
		Session struct {
			Status string `json:"status"`
		} `json:"session"`
		Order *struct {
			ID     uuid.UUID `json:"id"`
			Status string    `json:"status"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resolved))
	assert.Equal(t, "closed", resolved.Session.Status)
	require.NotNil(t, resolved.Order)
	assert.Equal(t, "not-started", resolved.Order.Status)
	assert.Equal(t, 6, s.store.Quantity(lot.ID))

	// Повторное решение по закрытой сессии.
	w, _ = s.do(t, http.MethodPut, "/api/offers/sessions/"+session.ID.String()+"/status", customer,
		map[string]any{"status": "reject"})
	assert.Equal(t, http.StatusConflict, w.Code)

	orderPath := "/api/orders/" + resolved.Order.ID.String()
	w, _ = s.do(t, http.MethodPut, orderPath+"/status", sellerID, map[string]any{"status": "in-progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for i := 0; i < 2; i++ {
		w, env = s.do(t, http.MethodPost, orderPath+"/cancel", customer, map[string]any{"reason": "передумал"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 10, s.store.Quantity(lot.ID))
	}

	var cancelled struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
}

func TestRouter_GetSessionOnlyForParties(t *testing.T) {
	s := newTestServer(t)
	customer, sellerID := uuid.New(), uuid.New()
	lot := s.store.AddListing(valueobject.UserSeller(sellerID), "Цемент", 3)

	w, env := s.do(t, http.MethodPost, "/api/offers/sessions", customer, offerBody("Цемент", 900, lot.ID, 1))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	w, _ = s.do(t, http.MethodGet, "/api/offers/sessions/"+session.ID.String(), sellerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/offers/sessions/"+session.ID.String(), uuid.New(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/offers/sessions/"+uuid.NewString(), customer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_VerifyListings(t *testing.T) {
	s := newTestServer(t)
	customer, sellerID := uuid.New(), uuid.New()
	lot := s.store.AddListing(valueobject.UserSeller(sellerID), "Доска", 2)

	w, env := s.do(t, http.MethodPost, "/api/listings/verify", customer,
		map[string]any{"listings": []map[string]any{{"listing_id": lot.ID, "quantity": 2}}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var verified struct {
		Seller struct {
			Kind string    `json:"kind"`
			ID   uuid.UUID `json:"id"`
		} `json:"seller"`
		Items []struct {
			Quantity int `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.Equal(t, sellerID, verified.Seller.ID)
	require.Len(t, verified.Items, 1)
	assert.Equal(t, 2, verified.Items[0].Quantity)
	assert.Equal(t, 2, s.store.Quantity(lot.ID))

	w, env = s.do(t, http.MethodPost, "/api/listings/verify", customer,
		map[string]any{"listings": []map[string]any{{"listing_id": lot.ID, "quantity": 3}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_QUANTITY", env.Error.Code)

	w, env = s.do(t, http.MethodPost, "/api/listings/verify", sellerID,
		map[string]any{"listings": []map[string]any{{"listing_id": lot.ID, "quantity": 1}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SELF_TRADE", env.Error.Code)
}

func TestRouter_ArchiveOrganization(t *testing.T) {
	s := newTestServer(t)
	customer, manager := uuid.New(), uuid.New()
	org := s.store.AddOrganization("ООО Склад", manager)
	lot := s.store.AddListing(valueobject.OrganizationSeller(org.ID), "Плитка", 5)

	w, _ := s.do(t, http.MethodPost, "/api/offers/sessions", customer, offerBody("Плитка", 1200, lot.ID, 2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(t, http.MethodPost, "/api/organizations/"+org.ID.String()+"/archive", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/organizations/"+org.ID.String()+"/archive", manager, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		RejectedSessions []uuid.UUID `json:"rejected_sessions"`
		ArchivedListings int         `json:"archived_listings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Len(t, result.RejectedSessions, 1)
	assert.Equal(t, 1, result.ArchivedListings)

	assert.Equal(t, 5, s.store.Quantity(lot.ID))

	w, env = s.do(t, http.MethodPost, "/api/offers/sessions", customer, map[string]any{
		"seller_organization_id": org.ID,
		"offer":                  map[string]any{"title": "Плитка", "cost": 1200},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SELLER_ARCHIVED", env.Error.Code)
}

func TestRouter_RequestValidation(t *testing.T) {
	s := newTestServer(t)
	customer := uuid.New()

	w, env := s.do(t, http.MethodPost, "/api/offers/merge", uuid.Nil, map[string]any{"session_ids": []uuid.UUID{uuid.New()}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	w, _ = s.do(t, http.MethodGet, "/api/offers/sessions/not-a-uuid", customer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPut, "/api/offers/sessions/"+uuid.NewString()+"/status", customer, map[string]any{"status": "approve"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/offers/merge", customer, map[string]any{"session_ids": []uuid.UUID{uuid.New()}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "TOO_FEW_SESSIONS", env.Error.Code)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/health", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health handlers.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "memory", health.Checks["database"])
}
