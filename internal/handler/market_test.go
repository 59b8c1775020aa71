package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"regime-radar/internal/chart"
	"regime-radar/internal/domain"
	"regime-radar/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	series map[string][]domain.PricePoint
}

func (s *stubProvider) FetchDailyCloses(ctx context.Context, ticker, lookback string) ([]domain.PricePoint, error) {
	return s.series[ticker], nil
}

func testSeries(n int, value float64) []domain.PricePoint {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.PricePoint{Date: start.AddDate(0, 0, i), Close: value})
	}
	return out
}

func newTestRouter(provider service.SeriesProvider) *gin.Engine {
	tracer := trace.NewNoopTracerProvider().Tracer("handler-test")
	market := service.NewMarketService(tracer, provider, nil, chart.NewRenderer(), time.Minute, "1y", "3mo")
	h := New(tracer, market, domain.DefaultPeriod)

	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func healthyProvider() *stubProvider {
	return &stubProvider{series: map[string][]domain.PricePoint{
		domain.TickerSPX: testSeries(200, 5000),
		domain.TickerVIX: testSeries(60, 14),
	}}
}

func TestGetSnapshotSuccess(t *testing.T) {
	router := newTestRouter(healthyProvider())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshot?period=1y", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var snap domain.MarketSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if snap.SPX.Latest != 5000 || len(snap.Rules) != 6 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Regime != domain.RegimeNeutral {
		t.Fatalf("flat series at its own SMA should be neutral, got %s", snap.Regime)
	}
}

func TestGetSnapshotInvalidPeriod(t *testing.T) {
	router := newTestRouter(healthyProvider())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshot?period=3w", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "supported_periods") {
		t.Fatalf("expected supported periods in error body: %s", w.Body.String())
	}
}

func TestGetSnapshotNoData(t *testing.T) {
	router := newTestRouter(&stubProvider{series: map[string][]domain.PricePoint{}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestGetSeriesSPXIncludesSMAs(t *testing.T) {
	router := newTestRouter(healthyProvider())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/series/spx?period=1y", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Ticker string              `json:"ticker"`
		Points []domain.PricePoint `json:"points"`
		SMA90  []float64           `json:"sma90"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp.Ticker != domain.TickerSPX || len(resp.Points) != 200 || len(resp.SMA90) != 200 {
		t.Fatalf("unexpected payload: ticker=%s points=%d sma=%d", resp.Ticker, len(resp.Points), len(resp.SMA90))
	}
}

func TestGetSeriesUnknownTicker(t *testing.T) {
	router := newTestRouter(healthyProvider())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/series/ndx", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetChartServesPNG(t *testing.T) {
	router := newTestRouter(healthyProvider())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/charts/vix.png", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected png content type, got %s", ct)
	}
	if w.Body.Len() == 0 {
		t.Fatal("expected non-empty image body")
	}
}

func TestGetChartUnknownName(t *testing.T) {
	router := newTestRouter(healthyProvider())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/charts/ndx.png", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDashboardServesHTML(t *testing.T) {
	router := newTestRouter(healthyProvider())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "SPX/VIX Regime Monitor") {
		t.Fatal("expected dashboard markup")
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(healthyProvider())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
