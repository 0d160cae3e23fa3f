package thread

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"github.com/ignatzorin/offer-engine/internal/domain/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPBridge_CreateAndRename(t *testing.T) {
	session := &entity.OfferSession{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Seller:     valueobject.OrganizationSeller(uuid.New()),
	}

	var renamed string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/threads":
			var req createThreadRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, session.ID.String(), req.SessionID)
			assert.Equal(t, "organization", req.SellerKind)
			assert.Equal(t, "Поставка", req.Title)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "th-1"})
		case r.Method == http.MethodPatch && r.URL.Path == "/threads/th-1":
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			renamed = req["name"]
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	bridge := NewHTTPBridge(srv.URL, time.Second)

	id, err := bridge.CreateThread(context.Background(), session, "Поставка")
	require.NoError(t, err)
	assert.Equal(t, "th-1", id)

	require.NoError(t, bridge.RenameThread(context.Background(), id, "Заказ 42"))
	assert.Equal(t, "Заказ 42", renamed)
}

func TestHTTPBridge_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]string{})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "upstream"})
	}))
	defer srv.Close()

	bridge := NewHTTPBridge(srv.URL, time.Second)
	session := &entity.OfferSession{ID: uuid.New(), Seller: valueobject.UserSeller(uuid.New())}

	_, err := bridge.CreateThread(context.Background(), session, "x")
	assert.ErrorContains(t, err, "идентификатор")

	err = bridge.RenameThread(context.Background(), "th-2", "y")
	assert.ErrorContains(t, err, "502")
}

func TestNoop(t *testing.T) {
	id, err := Noop{}.CreateThread(context.Background(), &entity.OfferSession{}, "x")
	assert.NoError(t, err)
	assert.Empty(t, id)
	assert.NoError(t, Noop{}.RenameThread(context.Background(), "a", "b"))
}
