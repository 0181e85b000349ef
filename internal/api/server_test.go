package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"signal-bridge/internal/bridge"
	"signal-bridge/internal/events"
	"signal-bridge/internal/status"
	"signal-bridge/pkg/exchange/pionex"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVenue struct {
	balance string
	outcome *pionex.OrderOutcome
}

func (v *stubVenue) FreeBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return decimal.RequireFromString(v.balance), nil
}

func (v *stubVenue) PlaceMarketOrder(ctx context.Context, req pionex.OrderRequest) (*pionex.OrderOutcome, error) {
	if v.outcome != nil {
		return v.outcome, nil
	}
	return &pionex.OrderOutcome{
		Kind:    pionex.OutcomeFilled,
		OrderID: "555",
		Raw:     json.RawMessage(`{"orderId":555,"status":"FILLED"}`),
	}, nil
}

func newTestServer(venue bridge.Venue, secret string) *Server {
	store := status.NewStore()
	bus := events.NewBus()
	h := bridge.NewHandler(venue, store, nil, bus, nil, bridge.Config{
		QuoteAsset:  "USDT",
		MinNotional: decimal.RequireFromString("5"),
	})
	return NewServer(h, store, bus, secret, SystemMeta{Exchange: "pionex", Version: "test"})
}

func doJSON(t *testing.T, s *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestWebhookToStatusFlow(t *testing.T) {
	s := newTestServer(&stubVenue{balance: "100"}, "")

	w := doJSON(t, s, http.MethodPost, "/pionexbot", `{"pair":"BTCUSDT","signal":"buy","amount":"50"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /pionexbot: %d %s", w.Code, w.Body)
	}
	var fill map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &fill); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if fill["status"] != "FILLED" {
		t.Fatalf("body=%s", w.Body)
	}

	w = doJSON(t, s, http.MethodGet, "/status", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /status: %d", w.Code)
	}
	var snap map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap["last_signal"] != "BUY BTCUSDT" {
		t.Fatalf("last_signal=%v", snap["last_signal"])
	}
	if snap["last_order_id"] != "555" {
		t.Fatalf("last_order_id=%v", snap["last_order_id"])
	}
	if snap["exchange"] != "pionex" || snap["version"] != "test" {
		t.Fatalf("metadata missing: %v", snap)
	}
}

func TestStatusBeforeAnySignal(t *testing.T) {
	s := newTestServer(&stubVenue{balance: "0"}, "")

	w := doJSON(t, s, http.MethodGet, "/status", "", nil)
	var snap map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap["status"] != "online" {
		t.Fatalf("status=%v", snap["status"])
	}
	if snap["last_signal"] != nil || snap["last_order_id"] != nil {
		t.Fatalf("expected null optionals, got %v", snap)
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	s := newTestServer(&stubVenue{balance: "100"}, "")

	w := doJSON(t, s, http.MethodPost, "/pionexbot", `{"pair": BTCUSDT}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d, want 400", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != bridge.CodeInvalidSignal {
		t.Fatalf("code=%v", body["code"])
	}
}

func TestUnknownSideRejected(t *testing.T) {
	s := newTestServer(&stubVenue{balance: "100"}, "")

	w := doJSON(t, s, http.MethodPost, "/pionexbot", `{"pair":"BTCUSDT","signal":"hold"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d, want 400", w.Code)
	}
}

func TestWebhookAuth(t *testing.T) {
	const secret = "hook-secret"
	s := newTestServer(&stubVenue{balance: "100"}, secret)
	payload := `{"pair":"BTCUSDT","signal":"buy","amount":"50"}`

	w := doJSON(t, s, http.MethodPost, "/pionexbot", payload, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: code=%d, want 401", w.Code)
	}

	bad := http.Header{"Authorization": []string{"Bearer not-a-token"}}
	if w := doJSON(t, s, http.MethodPost, "/pionexbot", payload, bad); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: code=%d, want 401", w.Code)
	}

	token, err := GenerateToken("tradingview", secret, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	good := http.Header{"Authorization": []string{"Bearer " + token}}
	if w := doJSON(t, s, http.MethodPost, "/pionexbot", payload, good); w.Code != http.StatusOK {
		t.Fatalf("valid token: code=%d body=%s", w.Code, w.Body)
	}

	expired, err := GenerateToken("tradingview", secret, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	stale := http.Header{"Authorization": []string{"Bearer " + expired}}
	if w := doJSON(t, s, http.MethodPost, "/pionexbot", payload, stale); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: code=%d, want 401", w.Code)
	}

	// Read-only routes stay open.
	if w := doJSON(t, s, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /health: %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubVenue{balance: "0"}, "")
	w := doJSON(t, s, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("body=%s", w.Body)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	s := newTestServer(&stubVenue{balance: "0"}, "")
	w := doJSON(t, s, http.MethodGet, "/health", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("X-Request-ID not set")
	}
}

func TestWebsocketStreamsOrderReports(t *testing.T) {
	s := newTestServer(&stubVenue{balance: "100"}, "")
	ts := httptest.NewServer(s.Router)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	// Let the handler subscribe before the order report is published.
	time.Sleep(50 * time.Millisecond)

	r, err := http.Post(ts.URL+"/pionexbot", "application/json",
		strings.NewReader(`{"pair":"ETHUSDT","signal":"sell","amount":"0.5"}`))
	if err != nil {
		t.Fatal(err)
	}
	r.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var report events.OrderReport
	if err := conn.ReadJSON(&report); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if report.Pair != "ETHUSDT" || report.Side != "SELL" || !report.Success {
		t.Fatalf("report=%+v", report)
	}
}
