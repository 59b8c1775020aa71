package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"regime-radar/internal/domain"
	"regime-radar/internal/series"
	"regime-radar/internal/signal"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoData marks a run where the provider returned no usable rows for at
// least one ticker. Nothing downstream of the fetch executes in that case.
var ErrNoData = errors.New("no usable market data")

type SeriesProvider interface {
	FetchDailyCloses(ctx context.Context, ticker, lookback string) ([]domain.PricePoint, error)
}

type ChartRenderer interface {
	RenderIndexChart(points []domain.PricePoint) (*domain.ChartImage, error)
	RenderVolatilityChart(points []domain.PricePoint) (*domain.ChartImage, error)
}

// MarketService runs the whole pipeline for one request: fetch both
// series (through the expiring cache), derive the SMAs, evaluate the rule
// table and classify the regime.
type MarketService struct {
	tracer   trace.Tracer
	provider SeriesProvider
	redis    *redis.Client
	cacheTTL time.Duration
	renderer ChartRenderer
	engine   *signal.Engine

	spxLookback string
	vixLookback string

	now func() time.Time
}

func NewMarketService(
	tracer trace.Tracer,
	provider SeriesProvider,
	redisClient *redis.Client,
	renderer ChartRenderer,
	cacheTTL time.Duration,
	spxLookback, vixLookback string,
) *MarketService {
	return &MarketService{
		tracer:      tracer,
		provider:    provider,
		redis:       redisClient,
		cacheTTL:    cacheTTL,
		renderer:    renderer,
		engine:      signal.NewEngine(),
		spxLookback: spxLookback,
		vixLookback: vixLookback,
		now:         time.Now,
	}
}

// GetSeries returns the normalized daily close series for ticker, serving
// from the expiring cache when a fresh entry exists. Cache failures fall
// through to the provider.
func (s *MarketService) GetSeries(ctx context.Context, ticker, period string) ([]domain.PricePoint, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.get-series")
	defer span.End()

	key := fmt.Sprintf("series:%s:%s", ticker, period)
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var cached []domain.PricePoint
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			log.Printf("series cache read error for %s: %v", key, err)
		}
	}

	points, err := s.provider.FetchDailyCloses(ctx, ticker, period)
	if err != nil {
		return nil, fmt.Errorf("fetch series for %s: %w", ticker, err)
	}

	if s.redis != nil && len(points) > 0 {
		if raw, err := json.Marshal(points); err == nil {
			if err := s.redis.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
				log.Printf("series cache write error for %s: %v", key, err)
			}
		}
	}

	return points, nil
}

// Snapshot runs one full evaluation over the given lookback periods.
func (s *MarketService) Snapshot(ctx context.Context, spxPeriod, vixPeriod string) (*domain.MarketSnapshot, error) {
	ctx, span := s.tracer.Start(ctx, "market-service.snapshot")
	defer span.End()

	spx, err := s.GetSeries(ctx, domain.TickerSPX, spxPeriod)
	if err != nil {
		return nil, err
	}
	vix, err := s.GetSeries(ctx, domain.TickerVIX, vixPeriod)
	if err != nil {
		return nil, err
	}
	if len(spx) == 0 || len(vix) == 0 {
		return nil, fmt.Errorf("spx rows %d, vix rows %d: %w", len(spx), len(vix), ErrNoData)
	}

	spxCloses := domain.Closes(spx)
	vixCloses := domain.Closes(vix)

	lv := domain.Levels{
		Price:  series.Latest(spxCloses),
		VIX:    series.Latest(vixCloses),
		SMA90:  series.LatestSMA(spxCloses, domain.SMAWindowShort),
		SMA125: series.LatestSMA(spxCloses, domain.SMAWindowMid),
		SMA150: series.LatestSMA(spxCloses, domain.SMAWindowLong),
	}

	snapshot := &domain.MarketSnapshot{
		FetchedAt: s.now().UTC(),
		Period:    spxPeriod,
		SPX:       quoteStats(spxCloses),
		VIX:       quoteStats(vixCloses),
		SMA90:     lv.SMA90,
		SMA125:    lv.SMA125,
		SMA150:    lv.SMA150,

		DeltaSMA90Pct:  finitePtr(series.PctDiff(lv.Price, lv.SMA90)),
		DeltaSMA125Pct: finitePtr(series.PctDiff(lv.Price, lv.SMA125)),
		DeltaSMA150Pct: finitePtr(series.PctDiff(lv.Price, lv.SMA150)),

		Regime: signal.Classify(lv),
		Rules:  s.engine.Evaluate(lv),
	}
	return snapshot, nil
}

// DailySnapshot evaluates with the configured alert-path lookbacks.
func (s *MarketService) DailySnapshot(ctx context.Context) (*domain.MarketSnapshot, error) {
	return s.Snapshot(ctx, s.spxLookback, s.vixLookback)
}

// IndexChart renders the SPX close + SMA chart over the given period.
func (s *MarketService) IndexChart(ctx context.Context, period string) (*domain.ChartImage, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("chart renderer not configured")
	}
	points, err := s.GetSeries(ctx, domain.TickerSPX, period)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("spx rows 0: %w", ErrNoData)
	}
	return s.renderer.RenderIndexChart(points)
}

// VolatilityChart renders the VIX close chart with its threshold lines.
func (s *MarketService) VolatilityChart(ctx context.Context, period string) (*domain.ChartImage, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("chart renderer not configured")
	}
	points, err := s.GetSeries(ctx, domain.TickerVIX, period)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("vix rows 0: %w", ErrNoData)
	}
	return s.renderer.RenderVolatilityChart(points)
}

func quoteStats(closes []float64) domain.QuoteStats {
	latest := series.Latest(closes)
	prev := series.Prev(closes)
	return domain.QuoteStats{
		Latest:    latest,
		Prev:      finitePtr(prev),
		ChangePct: finitePtr(series.PctDiff(latest, prev)),
	}
}

// finitePtr keeps NaN out of JSON payloads: undefined values serialize as
// absent fields instead of breaking the encoder.
func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
