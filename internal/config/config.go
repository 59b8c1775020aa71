package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"regime-radar/internal/domain"
)

type Config struct {
	TelegramBotToken string
	TelegramChatID   int64
	RedisURL         string
	MarketDataURL    string
	DashboardURL     string

	Timezone      string
	HTTPPort      int
	QuoteCacheSec int
	DefaultPeriod string

	// Lookback ranges for the daily check: the SPX window must cover the
	// longest SMA, the VIX window only needs the latest closes.
	SPXLookback string
	VIXLookback string

	DailyCheckHour int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MarketDataURL:    strings.TrimSpace(os.Getenv("MARKET_DATA_URL")),
		DashboardURL:     strings.TrimSpace(os.Getenv("DASHBOARD_URL")),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID %q", v)
		}
	} else {
		log.Println("Warning: TELEGRAM_CHAT_ID not set")
	}

	cfg.Timezone = strings.TrimSpace(os.Getenv("TIMEZONE"))
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/Sofia"
	}

	cfg.HTTPPort = 8080
	if v := strings.TrimSpace(os.Getenv("HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	cfg.QuoteCacheSec = 600
	if v := strings.TrimSpace(os.Getenv("QUOTE_CACHE_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuoteCacheSec = n
		}
	}

	cfg.DefaultPeriod = domain.DefaultPeriod
	if v := strings.TrimSpace(os.Getenv("DEFAULT_PERIOD")); v != "" {
		if domain.IsSupportedPeriod(v) {
			cfg.DefaultPeriod = v
		} else {
			log.Printf("Warning: unsupported DEFAULT_PERIOD %q, using %s", v, cfg.DefaultPeriod)
		}
	}

	cfg.SPXLookback = "1y"
	if v := strings.TrimSpace(os.Getenv("SPX_LOOKBACK")); v != "" {
		cfg.SPXLookback = v
	}

	cfg.VIXLookback = "3mo"
	if v := strings.TrimSpace(os.Getenv("VIX_LOOKBACK")); v != "" {
		cfg.VIXLookback = v
	}

	cfg.DailyCheckHour = 8
	if v := strings.TrimSpace(os.Getenv("DAILY_CHECK_HOUR")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.DailyCheckHour = n
		}
	}

	return cfg
}
