package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"yagpt-bot/internal/bot"
)

const (
	ModeWebhook = "webhook"
	ModePolling = "polling"

	ProviderYandex = "yandex"
	ProviderGemini = "gemini"

	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const defaultSystemPrompt = "You are a helpful assistant in a Telegram chat. Answer briefly and to the point."

type Config struct {
	// Server
	Port string
	Mode string

	// Telegram
	TelegramToken    string
	WebhookHost      string
	WebhookSecret    string
	WebhookRateLimit int
	AdminIDs         []int64

	// LLM
	Provider       string
	YandexAPIKey   string
	YandexFolderID string
	YandexModel    string
	GeminiAPIKey   string
	GeminiModel    string
	Temperature    float64
	MaxTokens      int
	LLMTimeout     time.Duration
	SystemPrompt   string
	PingMode       string

	// Storage
	ContextWindow  int
	ContextBackend string
	ContextTTL     time.Duration
	UsageBackend   string
	StatsFile      string
	DatabaseURL    string
	RedisURL       string
	MigrationsDir  string

	// Telegram HTTP client
	HTTPTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and the process environment. It panics when a
// required variable is missing so the process never starts serving half-configured.
func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:             getEnvOrDefault("PORT", "5000"),
		Mode:             strings.ToLower(getEnvOrDefault("BOT_MODE", ModePolling)),
		TelegramToken:    mustGetEnv("TELEGRAM_TOKEN"),
		WebhookSecret:    getEnvOrDefault("WEBHOOK_SECRET", ""),
		WebhookRateLimit: getEnvAsIntOrDefault("WEBHOOK_RATE_LIMIT", 120),
		AdminIDs:         parseAdminIDs(os.Getenv("ADMIN_IDS")),
		Provider:         strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderYandex)),
		YandexModel:      getEnvOrDefault("YANDEX_MODEL", "yandexgpt/latest"),
		GeminiModel:      getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		Temperature:      getEnvAsFloatOrDefault("LLM_TEMPERATURE", 0.6),
		MaxTokens:        getEnvAsIntOrDefault("LLM_MAX_TOKENS", 200),
		LLMTimeout:       getEnvAsDurationOrDefault("LLM_TIMEOUT", 30*time.Second),
		SystemPrompt:     getEnvOrDefault("SYSTEM_PROMPT", defaultSystemPrompt),
		PingMode:         strings.ToLower(getEnvOrDefault("PING_MODE", bot.PingLive)),
		ContextWindow:    getEnvAsIntOrDefault("CONTEXT_WINDOW", 5),
		ContextBackend:   strings.ToLower(getEnvOrDefault("CONTEXT_BACKEND", BackendMemory)),
		ContextTTL:       getEnvAsDurationOrDefault("CONTEXT_TTL", 0),
		UsageBackend:     strings.ToLower(getEnvOrDefault("USAGE_BACKEND", BackendFile)),
		StatsFile:        getEnvOrDefault("STATS_FILE", "stats.json"),
		MigrationsDir:    getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		HTTPTimeout:      getEnvAsDurationOrDefault("HTTP_TIMEOUT", 60*time.Second),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        getEnvOrDefault("LOG_FORMAT", "text"),
	}

	switch cfg.Provider {
	case ProviderYandex:
		cfg.YandexAPIKey = mustGetEnv("YANDEX_API_KEY")
		cfg.YandexFolderID = mustGetEnv("YANDEX_FOLDER_ID")
	case ProviderGemini:
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	default:
		panic(fmt.Sprintf("unknown LLM_PROVIDER %q", cfg.Provider))
	}

	switch cfg.Mode {
	case ModeWebhook:
		cfg.WebhookHost = strings.TrimSuffix(mustGetEnv("WEBHOOK_HOST"), "/")
	case ModePolling:
	default:
		panic(fmt.Sprintf("unknown BOT_MODE %q", cfg.Mode))
	}

	if cfg.ContextBackend == BackendRedis || cfg.UsageBackend == BackendRedis {
		cfg.RedisURL = mustGetEnv("REDIS_URL")
	}
	if cfg.UsageBackend == BackendPostgres {
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	}

	if cfg.PingMode != bot.PingLive && cfg.PingMode != bot.PingStatic {
		cfg.PingMode = bot.PingLive
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 5
	}

	return cfg
}

// WebhookURL is the externally reachable address registered with Telegram.
func (c *Config) WebhookURL() string {
	host := c.WebhookHost
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host + "/" + c.TelegramToken
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

// parseAdminIDs splits a comma-separated list, skipping blanks and non-numeric entries.
func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
