package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Decision knobs
	Thresholds Thresholds

	// Ledger storage. DatabaseURL switches the ledger to Postgres.
	BetsDBPath  string
	DatabaseURL string

	// Collaborator data
	HistoryDBPath       string
	PinnacleDBPath      string
	HistoryLookbackDays int
	AliasSeedPath       string

	// Model inference service
	ModelURL     string
	ModelTimeout time.Duration

	// Notifications
	DiscordWebhookURL string
	TelegramBotToken  string
	TelegramChatID    int64

	// Redis event stream + pass lock
	RedisURL string

	// Ops API + fanout websocket
	APIHost     string
	APIPort     int
	CORSOrigins []string

	// Scheduling (robfig/cron spec, with seconds)
	CollectCron string
	SettleCron  string

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Thresholds: LoadThresholds(),

		BetsDBPath:  envStr("BETS_DB_PATH", "data/bets.db"),
		DatabaseURL: envStr("DATABASE_URL", ""),

		HistoryDBPath:       envStr("HISTORY_DB_PATH", "data/lol_history.db"),
		PinnacleDBPath:      envStr("PINNACLE_DB_PATH", "data/pinnacle_data.db"),
		HistoryLookbackDays: envInt("HISTORY_LOOKBACK_DAYS", 365),
		AliasSeedPath:       envStr("ALIAS_SEED_PATH", ""),

		ModelURL:     envStr("MODEL_URL", ""),
		ModelTimeout: envDuration("MODEL_TIMEOUT", 10*time.Second),

		DiscordWebhookURL: envStr("DISCORD_WEBHOOK_URL", ""),
		TelegramBotToken:  envStr("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    envInt64("TELEGRAM_CHAT_ID", 0),

		RedisURL: envStr("REDIS_URL", ""),

		APIHost:     envStr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", 8090),
		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),

		// Odds refresh upstream runs every ~5 minutes; history lands overnight.
		CollectCron: envStr("COLLECT_CRON", "0 */10 * * * *"),
		SettleCron:  envStr("SETTLE_CRON", "0 15 */2 * * *"),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envDuration accepts Go durations ("6h") or a bare number of hours.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if h, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(h * float64(time.Hour))
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
