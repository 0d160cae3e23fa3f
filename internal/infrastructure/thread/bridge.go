package thread

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ignatzorin/offer-engine/internal/domain/entity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// HTTPBridge создаёт ветки обсуждения во внешнем сервисе чатов.
type HTTPBridge struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPBridge(baseURL string, timeout time.Duration) *HTTPBridge {
	return &HTTPBridge{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type createThreadRequest struct {
	SessionID  string `json:"session_id"`
	Title      string `json:"title"`
	CustomerID string `json:"customer_id"`
	SellerKind string `json:"seller_kind"`
	SellerID   string `json:"seller_id"`
}

type createThreadResponse struct {
	ID string `json:"id"`
}

func (b *HTTPBridge) CreateThread(ctx context.Context, session *entity.OfferSession, title string) (string, error) {
	payload := createThreadRequest{
		SessionID:  session.ID.String(),
		Title:      title,
		CustomerID: session.CustomerID.String(),
		SellerKind: string(session.Seller.Kind),
		SellerID:   session.Seller.ID.String(),
	}

	var out createThreadResponse
	if err := b.do(ctx, http.MethodPost, "/threads", payload, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("thread: сервис не вернул идентификатор ветки")
	}
	return out.ID, nil
}

func (b *HTTPBridge) RenameThread(ctx context.Context, threadID, name string) error {
	return b.do(ctx, http.MethodPatch, "/threads/"+url.PathEscape(threadID), map[string]string{"name": name}, nil)
}

func (b *HTTPBridge) do(ctx context.Context, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("thread: не удалось сериализовать запрос: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("thread: запрос %s %s не выполнен: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return fmt.Errorf("thread: код ответа %d: %v", resp.StatusCode, errorBody)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("thread: не удалось разобрать ответ: %w", err)
	}
	return nil
}

// Noop используется, когда THREAD_BRIDGE_URL не задан.
type Noop struct{}

func (Noop) CreateThread(ctx context.Context, session *entity.OfferSession, title string) (string, error) {
	return "", nil
}

func (Noop) RenameThread(ctx context.Context, threadID, name string) error {
	return nil
}
