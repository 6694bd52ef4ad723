package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paper_trader/internal/ledger"
	"paper_trader/internal/models"
	"paper_trader/internal/runner/router"
)

type fakeEngine struct {
	submitted   []models.Signal
	broadcasted []models.Signal
	strategy    models.Strategy
}

func (f *fakeEngine) Accounts() []string { return []string{"alice"} }

func (f *fakeEngine) SubmitSignal(id string, sig models.Signal) error {
	if id != "alice" {
		return router.ErrAccountNotFound
	}
	f.submitted = append(f.submitted, sig)
	return nil
}

func (f *fakeEngine) Broadcast(sig models.Signal) { f.broadcasted = append(f.broadcasted, sig) }

func (f *fakeEngine) Snapshot(id string) (models.Account, error) {
	if id != "alice" {
		return models.Account{}, router.ErrAccountNotFound
	}
	return models.Account{ID: "alice", Balance: decimal.NewFromInt(1000)}, nil
}

func (f *fakeEngine) OpenPositions(id string) ([]models.Position, error) {
	if id != "alice" {
		return nil, router.ErrAccountNotFound
	}
	return []models.Position{{ID: "p1", Symbol: "BTC"}}, nil
}

func (f *fakeEngine) ClosePosition(_ context.Context, id, pid string, exit decimal.Decimal) (models.ClosedTrade, error) {
	if id != "alice" {
		return models.ClosedTrade{}, router.ErrAccountNotFound
	}
	if pid != "p1" {
		return models.ClosedTrade{}, fmt.Errorf("close %s: %w", pid, ledger.ErrPositionNotFound)
	}
	return models.ClosedTrade{ExitPrice: exit, RealizedPnL: decimal.RequireFromString("0.8")}, nil
}

func (f *fakeEngine) SetStrategy(id string, st models.Strategy) error {
	if id != "alice" {
		return router.ErrAccountNotFound
	}
	if _, ok := models.Presets[st]; !ok {
		return fmt.Errorf("unknown strategy %q", st)
	}
	f.strategy = st
	return nil
}

func newTestServer(t *testing.T) (*gin.Engine, *fakeEngine, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	eng := &fakeEngine{}
	hub := NewHub(zap.NewNop())
	r := gin.New()
	(&Handler{Engine: eng, Hub: hub}).Register(r)
	return r, eng, hub
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	return rec
}

func TestSubmitSignal(t *testing.T) {
	r, eng, _ := newTestServer(t)

	rec := do(r, http.MethodPost, "/api/v1/accounts/alice/signals",
		`{"symbol":"BTC","action":"buy","confidence":92,"entry":50000,"stop_loss":47500,"take_profit":55000}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if len(eng.submitted) != 1 || eng.submitted[0].ID == "" || eng.submitted[0].Entry != 50000 {
		t.Fatalf("submitted = %+v", eng.submitted)
	}
	if !strings.Contains(rec.Body.String(), eng.submitted[0].ID) {
		t.Fatalf("response lacks signal id: %s", rec.Body.String())
	}

	if rec := do(r, http.MethodPost, "/api/v1/accounts/ghost/signals", `{"id":"s1"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown account status = %d", rec.Code)
	}
	if rec := do(r, http.MethodPost, "/api/v1/accounts/alice/signals", `{bad`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", rec.Code)
	}
}

func TestBroadcastKeepsCallerID(t *testing.T) {
	r, eng, _ := newTestServer(t)

	rec := do(r, http.MethodPost, "/api/v1/signals", `{"id":"feed-7","symbol":"ETH","action":"sell"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(eng.broadcasted) != 1 || eng.broadcasted[0].ID != "feed-7" {
		t.Fatalf("broadcasted = %+v", eng.broadcasted)
	}
}

func TestReadEndpoints(t *testing.T) {
	r, _, _ := newTestServer(t)

	cases := []struct {
		path string
		code int
		want string
	}{
		{"/api/v1/accounts", http.StatusOK, `"alice"`},
		{"/api/v1/accounts/alice", http.StatusOK, `"balance":"1000"`},
		{"/api/v1/accounts/ghost", http.StatusNotFound, "account not found"},
		{"/api/v1/accounts/alice/positions", http.StatusOK, `"id":"p1"`},
		{"/api/v1/presets", http.StatusOK, `"aggressive"`},
	}
	for _, tc := range cases {
		rec := do(r, http.MethodGet, tc.path, "")
		if rec.Code != tc.code || !strings.Contains(rec.Body.String(), tc.want) {
			t.Fatalf("GET %s = %d %s", tc.path, rec.Code, rec.Body.String())
		}
	}
}

func TestClosePosition(t *testing.T) {
	r, _, _ := newTestServer(t)

	rec := do(r, http.MethodPost, "/api/v1/accounts/alice/positions/p1/close", `{"exit_price":"52000"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"realized_pnl":"0.8"`) {
		t.Fatalf("close = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(r, http.MethodPost, "/api/v1/accounts/alice/positions/zz/close", `{"exit_price":1}`); rec.Code != http.StatusNotFound {
		t.Fatalf("missing position status = %d", rec.Code)
	}
	if rec := do(r, http.MethodPost, "/api/v1/accounts/alice/positions/p1/close", `{"exit_price":0}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero price status = %d", rec.Code)
	}
}

func TestSetStrategy(t *testing.T) {
	r, eng, _ := newTestServer(t)

	if rec := do(r, http.MethodPut, "/api/v1/accounts/alice/strategy", `{"strategy":"aggressive"}`); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if eng.strategy != models.StrategyAggressive {
		t.Fatalf("strategy = %q", eng.strategy)
	}
	if rec := do(r, http.MethodPut, "/api/v1/accounts/alice/strategy", `{"strategy":"yolo"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown strategy status = %d", rec.Code)
	}
}

func TestHubStreamsEvents(t *testing.T) {
	r, _, hub := newTestServer(t)
	srv := httptest.NewServer(r)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?account=alice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	ctx := context.Background()
	_ = hub.Publish(ctx, models.TradeEvent{ID: "e0", AccountID: "bob", Kind: models.EventOpened})
	_ = hub.Publish(ctx, models.TradeEvent{ID: "e1", AccountID: "alice", Kind: models.EventRejected, Reason: "duplicate position"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev models.TradeEvent
	if err := sonic.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.ID != "e1" || ev.Reason != "duplicate position" {
		t.Fatalf("event = %+v", ev)
	}
}
