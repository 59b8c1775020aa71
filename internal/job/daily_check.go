package job

import (
	"context"
	"errors"
	"log"
	"time"

	"regime-radar/internal/bot"
	"regime-radar/internal/domain"
	"regime-radar/internal/service"

	"go.opentelemetry.io/otel/trace"
)

type SnapshotSource interface {
	DailySnapshot(ctx context.Context) (*domain.MarketSnapshot, error)
}

type ReportSink interface {
	BroadcastReport(ctx context.Context, body string) error
}

// DailyCheck sends one strategy report per day at the configured local
// hour. The loop recomputes the next fire time after every run, so a
// restart never double-sends and a missed window waits for the next day.
type DailyCheck struct {
	tracer trace.Tracer
	market SnapshotSource
	sink   ReportSink

	loc          *time.Location
	tzName       string
	dashboardURL string
	hour         int

	now func() time.Time
}

func NewDailyCheck(
	tracer trace.Tracer,
	market SnapshotSource,
	sink ReportSink,
	loc *time.Location,
	tzName, dashboardURL string,
	hour int,
) *DailyCheck {
	return &DailyCheck{
		tracer:       tracer,
		market:       market,
		sink:         sink,
		loc:          loc,
		tzName:       tzName,
		dashboardURL: dashboardURL,
		hour:         hour,
		now:          time.Now,
	}
}

// Start blocks until ctx is cancelled, firing RunOnce at each scheduled time.
func (j *DailyCheck) Start(ctx context.Context) {
	if j == nil || j.market == nil || j.sink == nil {
		log.Println("Daily check disabled: no market source or report sink")
		if ctx != nil {
			<-ctx.Done()
		}
		return
	}

	log.Printf("Daily check starting, firing at %02d:00 (%s)", j.hour, j.tzName)
	for {
		wait := time.Until(j.nextFireTime())
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("Daily check stopped")
			return
		case <-timer.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce builds and delivers a single report. Fetch failures turn into
// the data-error alert; delivery failures are logged and swallowed so the
// schedule keeps running.
func (j *DailyCheck) RunOnce(ctx context.Context) {
	if j.tracer != nil {
		var span trace.Span
		ctx, span = j.tracer.Start(ctx, "daily-check.run")
		defer span.End()
	}

	body, err := j.buildReport(ctx)
	if err != nil {
		log.Printf("daily check report error: %v", err)
		return
	}
	if err := j.sink.BroadcastReport(ctx, body); err != nil {
		log.Printf("daily check delivery error: %v", err)
		return
	}
	log.Println("daily check report delivered")
}

func (j *DailyCheck) buildReport(ctx context.Context) (string, error) {
	snapshot, err := j.market.DailySnapshot(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNoData) {
			return bot.FormatErrorAlert(), nil
		}
		return "", err
	}
	return bot.FormatDailyReport(snapshot, j.now().In(j.loc), j.tzName, j.dashboardURL), nil
}

// nextFireTime is today at the configured hour if that is still ahead,
// otherwise the same hour tomorrow.
func (j *DailyCheck) nextFireTime() time.Time {
	now := j.now().In(j.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), j.hour, 0, 0, 0, j.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
