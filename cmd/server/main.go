package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"regime-radar/internal/bot"
	"regime-radar/internal/cache"
	"regime-radar/internal/chart"
	"regime-radar/internal/config"
	"regime-radar/internal/handler"
	"regime-radar/internal/job"
	"regime-radar/internal/provider"
	"regime-radar/internal/service"
	"regime-radar/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc     = godotenv.Load
	loadConfigFunc  = config.Load
	initRedisFunc   = cache.InitRedis
	initTracerFunc  = tracing.InitTracer
	newProviderFunc = func(tracer trace.Tracer, baseURL string) service.SeriesProvider {
		return provider.NewChartClient(tracer, baseURL)
	}
	newRendererFunc      = func() service.ChartRenderer { return chart.NewRenderer() }
	newMarketServiceFunc = service.NewMarketService
	startTelegramBotFunc = bot.StartTelegramBot
	newDailyCheckFunc    = job.NewDailyCheck
	startDailyCheckFunc  = func(j *job.DailyCheck, ctx context.Context) { go j.Start(ctx) }
	newHandlerFunc       = handler.New
	newRouterFunc        = gin.Default
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPFunc     = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("REDIS_URL", cfg.RedisURL)
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("invalid TIMEZONE %q, falling back to UTC: %v", cfg.Timezone, err)
		loc = time.UTC
		cfg.Timezone = "UTC"
	}

	chartClient := newProviderFunc(tracer, cfg.MarketDataURL)
	renderer := newRendererFunc()
	market := newMarketServiceFunc(
		tracer,
		chartClient,
		cache.Client,
		renderer,
		time.Duration(cfg.QuoteCacheSec)*time.Second,
		cfg.SPXLookback,
		cfg.VIXLookback,
	)

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	alerts := startTelegramBotFunc(
		market, market, cfg.TelegramChatID,
		loc, cfg.Timezone, cfg.DashboardURL, cfg.DefaultPeriod,
	)
	if alerts != nil {
		check := newDailyCheckFunc(
			tracer, market, alerts,
			loc, cfg.Timezone, cfg.DashboardURL, cfg.DailyCheckHour,
		)
		startDailyCheckFunc(check, ctx)
	}

	h := newHandlerFunc(tracer, market, cfg.DefaultPeriod)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("regime-radar"))
	r.Use(cors.Default())
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
