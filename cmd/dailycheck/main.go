package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"regime-radar/internal/bot"
	"regime-radar/internal/chart"
	"regime-radar/internal/config"
	"regime-radar/internal/provider"
	"regime-radar/internal/service"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

// One-shot variant of the daily check, meant to run from cron or a CI
// schedule. It fetches both series directly (no cache), builds the report
// and sends it to the primary chat.
func main() {
	godotenv.Load()

	cfg := config.Load()
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
		log.Fatal("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("invalid TIMEZONE %q, falling back to UTC: %v", cfg.Timezone, err)
		loc = time.UTC
		cfg.Timezone = "UTC"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tracer := trace.NewNoopTracerProvider().Tracer("dailycheck")
	market := service.NewMarketService(
		tracer,
		provider.NewChartClient(tracer, cfg.MarketDataURL),
		nil,
		chart.NewRenderer(),
		0,
		cfg.SPXLookback,
		cfg.VIXLookback,
	)

	var body string
	snapshot, err := market.DailySnapshot(ctx)
	switch {
	case err == nil:
		body = bot.FormatDailyReport(snapshot, time.Now().In(loc), cfg.Timezone, cfg.DashboardURL)
	case errors.Is(err, service.ErrNoData):
		body = bot.FormatErrorAlert()
	default:
		log.Fatalf("failed to build report: %v", err)
	}

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.TelegramBotToken,
		Client: &http.Client{Timeout: 20 * time.Second},
	})
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	// Delivery is best effort: a failed send is logged and the run still
	// completes, the scheduler will fire again tomorrow.
	dispatcher := bot.NewAlertDispatcher(b, cfg.TelegramChatID)
	if err := dispatcher.BroadcastReport(ctx, body); err != nil {
		log.Printf("failed to deliver report: %v", err)
		return
	}
	log.Println("daily report delivered")
}
