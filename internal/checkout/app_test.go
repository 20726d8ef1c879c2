package checkout_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"BasketStore/internal/basket"
	"BasketStore/internal/checkout"
	"BasketStore/internal/order"
	"BasketStore/internal/user"
)

func newTS(t *testing.T) *httptest.Server {
	t.Helper()
	return newTSWithRegistry(t, nil)
}

func newTSWithRegistry(t *testing.T, registry *prometheus.Registry) *httptest.Server {
	t.Helper()

	users := user.NewMemStore(
		user.User{ID: 1, Name: "Max Mustermann", Balance: decimal.RequireFromString("100.00")},
		user.User{ID: 2, Name: "Erika Musterfrau", Balance: decimal.RequireFromString("250.00")},
	)
	orders := order.NewMemStore(users)
	cache := basket.NewMemCache(120 * time.Second)

	basketSrv := &basket.Server{
		Service: basket.NewService(users, cache, order.NewPlacer(orders), zap.NewNop()),
		Log:     zap.NewNop(),
	}
	orderSrv := &order.Server{
		Service: order.NewService(users, orders, zap.NewNop()),
		Log:     zap.NewNop(),
	}

	h := checkout.NewHandler(
		checkout.Deps{
			Users:   users,
			Baskets: basketSrv,
			Orders:  orderSrv,
			Pings:   nil,
		},
		checkout.HTTPDeps{
			Log:      zap.NewNop(),
			Service:  "checkout",
			Registry: registry,
		},
	)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, userID string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func penBody() map[string]any {
	return map[string]any{
		"productName": "Pen",
		"productId":   "1-2-3-4-5-6",
		"count":       1,
		"price":       10.0,
	}
}

type basketResp struct {
	Items            []map[string]any `json:"items"`
	Total            decimal.Decimal  `json:"total"`
	RemainingBalance decimal.Decimal  `json:"remainingBalance"`
}

func decodeBasket(t *testing.T, raw []byte) basketResp {
	t.Helper()
	var b basketResp
	if err := json.Unmarshal(raw, &b); err != nil {
		t.Fatalf("unmarshal basket: %v (%s)", err, raw)
	}
	return b
}

func TestIdentity(t *testing.T) {
	ts := newTS(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/basket", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing header: want 401, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/basket", "abc", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("malformed header: want 401, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/basket", "99", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown user: want 401, got %d", resp.StatusCode)
	}
}

func TestGetBasket_Empty(t *testing.T) {
	ts := newTS(t)

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/basket", "1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d (%s)", resp.StatusCode, raw)
	}

	b := decodeBasket(t, raw)
	if len(b.Items) != 0 {
		t.Fatalf("want empty items, got %v", b.Items)
	}
	if !b.RemainingBalance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("want remainingBalance 100, got %s", b.RemainingBalance)
	}
}

func TestAddItem(t *testing.T) {
	ts := newTS(t)

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", penBody())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("want 201, got %d (%s)", resp.StatusCode, raw)
	}

	b := decodeBasket(t, raw)
	if len(b.Items) != 1 {
		t.Fatalf("want 1 item, got %d", len(b.Items))
	}
	if !b.Total.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("want total 10, got %s", b.Total)
	}
	if !b.RemainingBalance.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("want remainingBalance 90, got %s", b.RemainingBalance)
	}
}

func TestAddItem_Conflict(t *testing.T) {
	ts := newTS(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", penBody())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first add: want 201, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", penBody())
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second add: want 409, got %d", resp.StatusCode)
	}
}

func TestAddItem_Validation(t *testing.T) {
	ts := newTS(t)

	bad := penBody()
	bad["productName"] = strings.Repeat("x", 256)
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("long name: want 400, got %d", resp.StatusCode)
	}

	bad = penBody()
	bad["price"] = 5.0
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("cheap price: want 400, got %d", resp.StatusCode)
	}

	// Path and body product ids must agree.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/basket/2-2-3-4-5-6", "1", penBody())
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("id mismatch: want 400, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/basket/not-an-id", "1", penBody())
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad path id: want 400, got %d", resp.StatusCode)
	}
}

func TestAddItem_InsufficientFunds(t *testing.T) {
	ts := newTS(t)

	body := penBody()
	body["price"] = 100.0
	body["count"] = 2
	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
}

func TestRemoveItem(t *testing.T) {
	ts := newTS(t)

	resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/basket/1-2-3-4-5-6", "1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("no basket: want 404, got %d", resp.StatusCode)
	}

	doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", penBody())

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/basket/2-2-3-4-5-6", "1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing item: want 404, got %d", resp.StatusCode)
	}

	resp, raw := doJSON(t, http.MethodDelete, ts.URL+"/basket/1-2-3-4-5-6", "1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	b := decodeBasket(t, raw)
	if len(b.Items) != 0 || !b.Total.Equal(decimal.Zero) {
		t.Fatalf("basket not emptied: %s", raw)
	}
}

func TestPatchItem(t *testing.T) {
	ts := newTS(t)

	doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", penBody())

	delta := penBody()
	delta["count"] = 2
	resp, raw := doJSON(t, http.MethodPatch, ts.URL+"/basket/1-2-3-4-5-6", "1", delta)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d (%s)", resp.StatusCode, raw)
	}

	b := decodeBasket(t, raw)
	if !b.Total.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("want total 30, got %s", b.Total)
	}
}

func TestClearBasket(t *testing.T) {
	ts := newTS(t)

	resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/basket", "1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("no basket: want 404, got %d", resp.StatusCode)
	}

	doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", penBody())

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/basket", "1", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("want 204, got %d", resp.StatusCode)
	}

	_, raw := doJSON(t, http.MethodGet, ts.URL+"/basket", "1", nil)
	b := decodeBasket(t, raw)
	if len(b.Items) != 0 || !b.Total.Equal(decimal.Zero) {
		t.Fatalf("basket not cleared: %s", raw)
	}
	if !b.RemainingBalance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("want remainingBalance 100, got %s", b.RemainingBalance)
	}
}

func TestCheckout_Flow(t *testing.T) {
	ts := newTS(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/basket", "1", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("no basket: want 404, got %d", resp.StatusCode)
	}

	doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", penBody())

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/basket", "1", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("want 201, got %d (%s)", resp.StatusCode, raw)
	}

	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/orders/") {
		t.Fatalf("want Location /orders/{id}, got %q", loc)
	}

	var placed struct {
		ID    int64           `json:"id"`
		Total decimal.Decimal `json:"total"`
	}
	if err := json.Unmarshal(raw, &placed); err != nil {
		t.Fatalf("unmarshal placed order: %v", err)
	}
	if !placed.Total.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("want order total 10, got %s", placed.Total)
	}

	// The created order is retrievable at the Location URL.
	resp, raw = doJSON(t, http.MethodGet, ts.URL+loc, "1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get order: want 200, got %d (%s)", resp.StatusCode, raw)
	}

	// Another user must not see it.
	resp, _ = doJSON(t, http.MethodGet, ts.URL+loc, "2", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign order: want 403, got %d", resp.StatusCode)
	}

	// History reflects the order and the debited balance.
	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/orders", "1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("orders: want 200, got %d", resp.StatusCode)
	}
	var hist struct {
		Orders  []json.RawMessage `json:"orders"`
		Balance decimal.Decimal   `json:"balance"`
	}
	if err := json.Unmarshal(raw, &hist); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if len(hist.Orders) != 1 {
		t.Fatalf("want 1 order, got %d", len(hist.Orders))
	}
	if !hist.Balance.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("want balance 90, got %s", hist.Balance)
	}

	// The basket is gone after checkout.
	_, raw = doJSON(t, http.MethodGet, ts.URL+"/basket", "1", nil)
	b := decodeBasket(t, raw)
	if len(b.Items) != 0 {
		t.Fatalf("basket not destroyed: %s", raw)
	}
	if !b.RemainingBalance.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("want remainingBalance 90 after checkout, got %s", b.RemainingBalance)
	}
}

func TestCheckout_EmptyBasket(t *testing.T) {
	ts := newTS(t)

	doJSON(t, http.MethodPost, ts.URL+"/basket/1-2-3-4-5-6", "1", penBody())
	doJSON(t, http.MethodDelete, ts.URL+"/basket", "1", nil)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/basket", "1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
}

func TestMetrics_NamespacedSeries(t *testing.T) {
	registry := prometheus.NewRegistry()
	ts := newTSWithRegistry(t, registry)

	doJSON(t, http.MethodGet, ts.URL+"/basket", "1", nil)

	fams, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range fams {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"basketstore_http_requests_total",
		"basketstore_http_request_duration_seconds",
	} {
		if !names[want] {
			t.Fatalf("metric %s not registered, got %v", want, names)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTS(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: want 200, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/readyz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz: want 200, got %d", resp.StatusCode)
	}
}
