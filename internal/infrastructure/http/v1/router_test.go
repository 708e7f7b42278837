package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inventra/internal/app/apptest"
	"inventra/internal/core/apperror"
	v1 "inventra/internal/infrastructure/http/v1"
	"inventra/internal/infrastructure/http/v1/dto"
	"inventra/internal/infrastructure/metrics"
	"inventra/internal/infrastructure/storage/postgres"
	"inventra/pkg/logger"
)

type idemEntry struct {
	operation, hash string
	replay          *postgres.IdempotencyReplay
}

// memIdempotency mirrors the postgres store's contract.
type memIdempotency struct {
	mu      sync.Mutex
	entries map[string]*idemEntry
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{entries: map[string]*idemEntry{}}
}

func (m *memIdempotency) Acquire(ctx context.Context, key, operation, requestHash string) (*postgres.IdempotencyReplay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		m.entries[key] = &idemEntry{operation: operation, hash: requestHash}
		return nil, nil
	}
	if e.operation != operation || e.hash != requestHash {
		return nil, apperror.NewConflict("idempotency key was used for a different request")
	}
	if e.replay != nil {
		return e.replay, nil
	}
	return nil, apperror.NewConflict("a request with this idempotency key is in progress")
}

func (m *memIdempotency) Complete(ctx context.Context, key string, replay postgres.IdempotencyReplay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key].replay = &replay
	return nil
}

func (m *memIdempotency) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

type harness struct {
	env     *apptest.Env
	handler http.Handler
	metrics *metrics.Metrics
	idem    *memIdempotency
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	env := apptest.New(t)
	m := metrics.New()
	idem := newMemIdempotency()
	router := v1.NewRouter(v1.RouterConfig{
		Services:    env.Services,
		Logger:      logger.NewFromZap(zap.NewNop()),
		Metrics:     m,
		Idempotency: idem,
		Version:     "test",
	})
	return &harness{env: env, handler: router, metrics: m, idem: idem}
}

func (h *harness) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func today() string {
	return time.Now().UTC().Format(time.DateOnly)
}

func purchaseBody(h *harness, productID, status string, qty int64) map[string]any {
	return map[string]any{
		"supplierId":   h.env.Supplier.ID.String(),
		"purchaseDate": today(),
		"status":       status,
		"mode":         "On Credit",
		"items": []map[string]any{
			{"productId": productID, "quantity": qty, "unitPrice": "3.20"},
		},
	}
}

func TestReceivedPurchaseCreditsMainStock(t *testing.T) {
	h := newHarness(t)
	p := h.env.Product(t, "Rice 5kg", 100)

	w := h.do(t, http.MethodPost, "/api/v1/purchases", purchaseBody(h, p.ID.String(), "Received", 20))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.CreatePurchaseResponse](t, w)
	require.Len(t, created.ReceiptNumbers, 1)

	w = h.do(t, http.MethodGet, "/api/v1/products/"+p.ID.String()+"/stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(120), decode[dto.StockResponse](t, w).Stock)

	w = h.do(t, http.MethodGet, "/api/v1/purchases/"+created.ReceiptNumbers[0], nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "Received", got["status"])
	assert.Equal(t, today(), got["purchaseDate"])
	assert.Equal(t, "64", got["total"])
}

func TestPendingPurchaseThenReceive(t *testing.T) {
	h := newHarness(t)
	p := h.env.Product(t, "Beans", 10)

	w := h.do(t, http.MethodPost, "/api/v1/purchases", purchaseBody(h, p.ID.String(), "Pending", 5))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	receipt := decode[dto.CreatePurchaseResponse](t, w).ReceiptNumbers[0]
	assert.Equal(t, int64(10), h.env.MainStock(t, p.ID))

	w = h.do(t, http.MethodPatch, "/api/v1/purchases/"+receipt+"/status", map[string]any{"status": "Received"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(15), h.env.MainStock(t, p.ID))

	w = h.do(t, http.MethodPatch, "/api/v1/purchases/"+receipt+"/status", map[string]any{"status": "Pending"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeInvalidStatusTransition, decode[dto.ErrorResponse](t, w).Code)
	assert.Equal(t, int64(15), h.env.MainStock(t, p.ID))
}

func TestTransferInsufficientStock(t *testing.T) {
	h := newHarness(t)
	p := h.env.Product(t, "Oil 1L", 50)

	w := h.do(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"branchId":     h.env.Branch.ID.String(),
		"transferDate": today(),
		"status":       "Received",
		"items":        []map[string]any{{"productId": p.ID.String(), "quantity": 70}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, apperror.CodeInsufficientStock, decode[dto.ErrorResponse](t, w).Code)
	assert.Equal(t, int64(50), h.env.MainStock(t, p.ID))
	assert.Equal(t, int64(0), h.env.BranchStock(t, p.ID, h.env.Branch.ID))
}

func TestTransferMovesStockAndReadsBranchPool(t *testing.T) {
	h := newHarness(t)
	p := h.env.Product(t, "Sugar", 50)

	w := h.do(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"branchId":     h.env.Branch.ID.String(),
		"transferDate": today(),
		"status":       "Received",
		"items":        []map[string]any{{"productId": p.ID.String(), "quantity": 30}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tr := decode[map[string]any](t, w)
	assert.EqualValues(t, 30, tr["totalQuantity"])
	ref, _ := tr["referenceCode"].(string)
	require.NotEmpty(t, ref)

	w = h.do(t, http.MethodGet, "/api/v1/products/"+p.ID.String()+"/stock/"+h.env.Branch.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(30), decode[dto.StockResponse](t, w).Stock)
	assert.Equal(t, int64(20), h.env.MainStock(t, p.ID))

	w = h.do(t, http.MethodGet, "/api/v1/transfers/"+ref, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/api/v1/transfers?branchId="+h.env.Branch.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["totalCount"])
}

func TestValidationErrorNamesField(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/v1/purchases", map[string]any{
		"supplierId":   h.env.Supplier.ID.String(),
		"purchaseDate": today(),
		"status":       "Received",
		"mode":         "On Credit",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, apperror.CodeValidation, resp.Code)
	assert.Equal(t, "items", resp.Details["field"])

	w = h.do(t, http.MethodGet, "/api/v1/products/not-a-uuid/stock", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", decode[dto.ErrorResponse](t, w).Details["field"])
}

func TestIdempotentCreateReplays(t *testing.T) {
	h := newHarness(t)
	p := h.env.Product(t, "Flour", 0)
	body := purchaseBody(h, p.ID.String(), "Received", 7)

	first := h.do(t, http.MethodPost, "/api/v1/purchases", body, "Idempotency-Key", "retry-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := h.do(t, http.MethodPost, "/api/v1/purchases", body, "Idempotency-Key", "retry-1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int64(7), h.env.MainStock(t, p.ID))

	body["notes"] = "changed"
	third := h.do(t, http.MethodPost, "/api/v1/purchases", body, "Idempotency-Key", "retry-1")
	require.Equal(t, http.StatusConflict, third.Code)
}

func TestIdempotencyKeyReleasedOnFailure(t *testing.T) {
	h := newHarness(t)
	p := h.env.Product(t, "Salt", 5)
	body := map[string]any{
		"branchId":     h.env.Branch.ID.String(),
		"transferDate": today(),
		"status":       "Received",
		"items":        []map[string]any{{"productId": p.ID.String(), "quantity": 9}},
	}

	w := h.do(t, http.MethodPost, "/api/v1/transfers", body, "Idempotency-Key", "k")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, h.idem.entries)
}

func TestMainBranchCannotBeDeleted(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodDelete, "/api/v1/branches/"+h.env.Main.ID.String(), nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeConflict, decode[dto.ErrorResponse](t, w).Code)

	w = h.do(t, http.MethodPatch, "/api/v1/branches/"+h.env.Branch.ID.String(), map[string]any{
		"name": "Riverside East", "address": "14 River Rd",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Riverside East", decode[map[string]any](t, w)["name"])
}

func TestPriceUpsertOverwrites(t *testing.T) {
	h := newHarness(t)
	p := h.env.Product(t, "Tea", 0)
	path := "/api/v1/products/" + p.ID.String() + "/prices"

	for _, price := range []string{"5.00", "5.50"} {
		w := h.do(t, http.MethodPut, path, map[string]any{
			"branchId":    h.env.Branch.ID.String(),
			"priceTypeId": h.env.Retail.ID.String(),
			"price":       price,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := h.do(t, http.MethodGet, path+"/"+h.env.Branch.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "5.5", resp.Items[0]["price"])
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)

	h.do(t, http.MethodGet, "/api/v1/branches", nil)
	w = h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inventra_http_requests_total")
	assert.Contains(t, w.Body.String(), `route="/api/v1/branches"`)
}

func TestRequestIDEchoed(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/v1/suppliers", nil, "X-Request-ID", "req-42")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}
