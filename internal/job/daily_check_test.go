package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"regime-radar/internal/domain"
	"regime-radar/internal/service"

	"go.opentelemetry.io/otel/trace"
)

func newTestCheck(market SnapshotSource, sink ReportSink) *DailyCheck {
	return NewDailyCheck(
		trace.NewNoopTracerProvider().Tracer("test"),
		market,
		sink,
		time.UTC,
		"UTC",
		"https://example.com",
		8,
	)
}

func TestRunOnceDeliversReport(t *testing.T) {
	market := &stubMarket{snapshot: testSnapshot()}
	sink := &stubSink{}
	job := newTestCheck(market, sink)

	job.RunOnce(context.Background())

	if len(sink.bodies) != 1 {
		t.Fatalf("expected one delivery, got %d", len(sink.bodies))
	}
	if !strings.Contains(sink.bodies[0], "Strategy Report") {
		t.Fatalf("unexpected report body: %s", sink.bodies[0])
	}
}

func TestRunOnceSendsErrorAlertWhenDataMissing(t *testing.T) {
	market := &stubMarket{err: fmt.Errorf("spx rows 0, vix rows 0: %w", service.ErrNoData)}
	sink := &stubSink{}
	job := newTestCheck(market, sink)

	job.RunOnce(context.Background())

	if len(sink.bodies) != 1 {
		t.Fatalf("expected one delivery, got %d", len(sink.bodies))
	}
	if !strings.Contains(sink.bodies[0], "Data Error") {
		t.Fatalf("expected the data-error alert, got: %s", sink.bodies[0])
	}
}

func TestRunOnceSkipsDeliveryOnOtherErrors(t *testing.T) {
	market := &stubMarket{err: errors.New("dial tcp: connection refused")}
	sink := &stubSink{}
	job := newTestCheck(market, sink)

	job.RunOnce(context.Background())

	if len(sink.bodies) != 0 {
		t.Fatalf("expected no delivery on transport error, got %d", len(sink.bodies))
	}
}

func TestRunOnceSurvivesSinkFailure(t *testing.T) {
	market := &stubMarket{snapshot: testSnapshot()}
	sink := &stubSink{err: errors.New("telegram: 429")}
	job := newTestCheck(market, sink)

	job.RunOnce(context.Background())

	if len(sink.bodies) != 1 {
		t.Fatalf("expected the delivery attempt to be recorded, got %d", len(sink.bodies))
	}
}

func TestNextFireTime(t *testing.T) {
	job := newTestCheck(&stubMarket{}, &stubSink{})

	job.now = func() time.Time { return time.Date(2026, 8, 28, 6, 30, 0, 0, time.UTC) }
	next := job.nextFireTime()
	if want := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("before the hour: got %v, want %v", next, want)
	}

	job.now = func() time.Time { return time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC) }
	next = job.nextFireTime()
	if want := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("exactly on the hour: got %v, want %v", next, want)
	}

	job.now = func() time.Time { return time.Date(2026, 8, 28, 21, 15, 0, 0, time.UTC) }
	next = job.nextFireTime()
	if want := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("after the hour: got %v, want %v", next, want)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	job := newTestCheck(&stubMarket{snapshot: testSnapshot()}, &stubSink{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("daily check did not stop")
	}
}

func testSnapshot() *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		SPX:    domain.QuoteStats{Latest: 5000},
		VIX:    domain.QuoteStats{Latest: 18},
		SMA90:  4900,
		SMA125: 4800,
		SMA150: 4700,
		Regime: domain.RegimeRiskOn,
	}
}

type stubMarket struct {
	snapshot *domain.MarketSnapshot
	err      error
}

func (s *stubMarket) DailySnapshot(ctx context.Context) (*domain.MarketSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

type stubSink struct {
	bodies []string
	err    error
}

func (s *stubSink) BroadcastReport(ctx context.Context, body string) error {
	s.bodies = append(s.bodies, body)
	return s.err
}
