package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken   string
	DatabaseURL     string
	ReportInterval  time.Duration
	// DailyReportTime is an optional HH:MM for an extra morning digest.
	DailyReportTime string
	SessionIdle     time.Duration
	MetricsAddr     string
	RateLimitRPS    float64
	RateLimitBurst  int
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:   strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ReportInterval:  parseHours(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		DailyReportTime: strings.TrimSpace(os.Getenv("REPORT_TIME")),
		SessionIdle:     parseHours(strings.TrimSpace(os.Getenv("SESSION_IDLE_HOURS"))),
		MetricsAddr:     strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		RateLimitRPS:    1,
		RateLimitBurst:  5,
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskboard.db"
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	if cfg.SessionIdle == 0 {
		cfg.SessionIdle = 72 * time.Hour
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		value, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return cfg, fmt.Errorf("parse RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = value
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		value, err := strconv.Atoi(burst)
		if err != nil {
			return cfg, fmt.Errorf("parse RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = value
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseHours(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
