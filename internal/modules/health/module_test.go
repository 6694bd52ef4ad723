package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paper_trader/internal/modules/health/service"
)

func TestProbes(t *testing.T) {
	state := service.NewState()
	metrics := service.NewMetrics()
	metrics.Tick("ETH")
	mux := NewMux(state, metrics)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := get("/livez"); rec.Code != http.StatusOK {
		t.Fatalf("/livez = %d", rec.Code)
	}
	if rec := get("/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz before ready = %d", rec.Code)
	}
	state.SetReady(true)
	state.SetAccounts(2)
	if rec := get("/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("/readyz = %d", rec.Code)
	}
	if rec := get("/healthz"); !strings.Contains(rec.Body.String(), `"accounts":2`) {
		t.Fatalf("/healthz = %s", rec.Body.String())
	}
	if rec := get("/metrics"); !strings.Contains(rec.Body.String(), `price_ticks_total{symbol="ETH"} 1`) {
		t.Fatalf("/metrics = %s", rec.Body.String())
	}
}
