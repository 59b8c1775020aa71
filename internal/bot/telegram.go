package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"os"
	"strings"
	"time"

	"regime-radar/internal/domain"
	"regime-radar/internal/service"

	tele "gopkg.in/telebot.v3"
)

type SnapshotSource interface {
	DailySnapshot(ctx context.Context) (*domain.MarketSnapshot, error)
}

type ChartSource interface {
	IndexChart(ctx context.Context, period string) (*domain.ChartImage, error)
	VolatilityChart(ctx context.Context, period string) (*domain.ChartImage, error)
}

// StartTelegramBot wires the command handlers and begins long polling.
// Returns nil when no token is configured; the rest of the service keeps
// running without the alert path.
func StartTelegramBot(
	market SnapshotSource,
	charts ChartSource,
	primaryChat int64,
	loc *time.Location,
	tzName, dashboardURL, chartPeriod string,
) *AlertDispatcher {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	alerts := NewAlertDispatcher(b, primaryChat)

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/status", func(c tele.Context) error {
		snapshot, err := market.DailySnapshot(context.Background())
		if err != nil {
			if errors.Is(err, service.ErrNoData) {
				return c.Send(FormatErrorAlert(), htmlSendOptions)
			}
			return c.Send(fmt.Sprintf("Error building report: %v", err))
		}
		report := FormatDailyReport(snapshot, time.Now().In(loc), tzName, dashboardURL)
		return c.Send(report, htmlSendOptions)
	})

	b.Handle("/regime", func(c tele.Context) error {
		snapshot, err := market.DailySnapshot(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching regime: %v", err))
		}
		return c.Send("Regime: " + FormatRegime(snapshot.Regime))
	})

	b.Handle("/rules", func(c tele.Context) error {
		snapshot, err := market.DailySnapshot(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching rules: %v", err))
		}
		lines := make([]string, 0, len(snapshot.Rules))
		for _, r := range snapshot.Rules {
			state := "inactive"
			if r.Active {
				state = "ACTIVE"
			}
			lines = append(lines, fmt.Sprintf("%-14s %-8s %s", r.Name, state, r.Expr))
		}
		body := "<pre>" + html.EscapeString(strings.Join(lines, "\n")) + "</pre>"
		return c.Send(body, htmlSendOptions)
	})

	b.Handle("/chart", func(c tele.Context) error {
		if charts == nil {
			return c.Send("Charts unavailable")
		}
		name := "spx"
		if args := c.Args(); len(args) > 0 {
			name = strings.ToLower(strings.TrimSpace(args[0]))
		}

		var (
			img *domain.ChartImage
			err error
		)
		switch name {
		case "spx":
			img, err = charts.IndexChart(context.Background(), chartPeriod)
		case "vix":
			img, err = charts.VolatilityChart(context.Background(), chartPeriod)
		default:
			return c.Send("Usage: /chart spx | /chart vix")
		}
		if err != nil {
			return c.Send(fmt.Sprintf("Error rendering %s chart: %v", name, err))
		}

		photo := &tele.Photo{
			File:    tele.FromReader(bytes.NewReader(img.Bytes)),
			Caption: strings.ToUpper(name) + " — " + chartPeriod,
		}
		return c.Send(photo)
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}

		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}

		switch mode {
		case "on":
			if alerts.Subscribe(chat.ID) {
				return c.Send("Daily reports enabled for this chat.")
			}
			return c.Send("Daily reports are already enabled for this chat.")
		case "off":
			if alerts.Unsubscribe(chat.ID) {
				return c.Send("Daily reports disabled for this chat.")
			}
			return c.Send("Daily reports are already disabled for this chat.")
		default:
			if alerts.IsSubscribed(chat.ID) {
				return c.Send("Daily reports: ON")
			}
			return c.Send("Daily reports: OFF")
		}
	})

	log.Println("Telegram bot started")
	go b.Start()
	return alerts
}
