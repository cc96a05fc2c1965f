package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"yagpt-bot/internal/bot"
	"yagpt-bot/internal/config"
	"yagpt-bot/internal/database"
	"yagpt-bot/internal/logutil"
	"yagpt-bot/internal/middleware"
	"yagpt-bot/internal/repository"
	"yagpt-bot/internal/router"
	"yagpt-bot/internal/services"
	"yagpt-bot/internal/telegram"
)

func main() {
	log.Println("🚀 Starting YandexGPT bot...")

	// ──── Step 1: Load Environment Variables ────
	cfg := loadConfig()
	log.Println("✓ Environment variables loaded")

	logger, err := logutil.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("✗ Logger setup failed: %v", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Connect Storage Backends ────
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer redisClient.Close()
		log.Println("✓ Redis connected")
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")
	}

	// ──── Step 3: Initialize Repositories ────
	contexts := newContextStore(cfg, redisClient)
	log.Printf("✓ Context store ready (%s, window %d)", cfg.ContextBackend, cfg.ContextWindow)

	usage, err := newUsageCounter(cfg, redisClient, pool)
	if err != nil {
		log.Fatalf("✗ Usage counter initialization failed: %v", err)
	}
	log.Printf("✓ Usage counter ready (%s)", cfg.UsageBackend)

	// ──── Step 4: Initialize Completion Client ────
	completer, providerName, closeCompleter, err := newCompleter(ctx, cfg)
	if err != nil {
		log.Fatalf("✗ Completion client initialization failed: %v", err)
	}
	defer closeCompleter()
	log.Printf("✓ %s client initialized", providerName)

	// ──── Step 5: Connect to Telegram ────
	api, err := telegram.NewBotAPI(cfg.TelegramToken, cfg.HTTPTimeout)
	if err != nil {
		log.Fatalf("✗ Telegram connection failed: %v", err)
	}
	log.Printf("✓ Authorized as @%s", api.Self.UserName)

	sender := telegram.NewSender(api)
	dispatcher := bot.NewDispatcher(completer, contexts, usage, sender, bot.Options{
		SystemPrompt:  cfg.SystemPrompt,
		ContextWindow: cfg.ContextWindow,
		AdminIDs:      cfg.AdminIDs,
		PingMode:      cfg.PingMode,
		ProviderName:  providerName,
		Logger:        logger,
	})
	adapter := telegram.NewAdapter(dispatcher, sender, logger)
	log.Printf("✓ Dispatcher ready (%d admins)", len(cfg.AdminIDs))

	// ──── Step 6: Start Delivery ────
	limiter := middleware.NewRateLimiter(cfg.WebhookRateLimit, time.Minute)
	defer limiter.Stop()

	var webhook http.Handler
	if cfg.Mode == config.ModeWebhook {
		webhook = telegram.NewWebhookHandler(cfg.TelegramToken, cfg.WebhookSecret, adapter, logger)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router.New(webhook, limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + cfg.HTTPTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if cfg.Mode == config.ModeWebhook {
		if err := telegram.RegisterWebhook(api, cfg.WebhookURL(), cfg.WebhookSecret); err != nil {
			log.Fatalf("✗ Webhook registration failed: %v", err)
		}
		log.Printf("✓ Webhook registered on %s", cfg.WebhookHost)
	} else {
		poller := telegram.NewPoller(api, adapter, logger)
		go func() {
			if err := poller.Run(ctx); err != nil {
				log.Printf("✗ Polling failed: %v", err)
				stop()
			}
		}()
		log.Println("✓ Long polling started")
	}

	log.Printf("✓ Bot ready on http://localhost:%s (%s mode)", cfg.Port, cfg.Mode)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

// loadConfig turns a missing-variable panic from config.Load into a fatal log.
func loadConfig() *config.Config {
	defer func() {
		if r := recover(); r != nil {
			log.Fatalf("✗ Configuration error: %v", r)
		}
	}()
	return config.Load()
}

func newContextStore(cfg *config.Config, client *redis.Client) bot.ContextStore {
	if cfg.ContextBackend == config.BackendRedis {
		return repository.NewRedisContextStore(client, cfg.ContextWindow, cfg.ContextTTL)
	}
	return repository.NewMemoryContextStore(cfg.ContextWindow)
}

func newUsageCounter(cfg *config.Config, client *redis.Client, pool *pgxpool.Pool) (bot.UsageCounter, error) {
	switch cfg.UsageBackend {
	case config.BackendMemory:
		return repository.NewMemoryUsageCounter(), nil
	case config.BackendRedis:
		return repository.NewRedisUsageCounter(client), nil
	case config.BackendPostgres:
		return repository.NewPostgresUsageCounter(pool), nil
	default:
		return repository.NewFileUsageCounter(cfg.StatsFile)
	}
}

func newCompleter(ctx context.Context, cfg *config.Config) (bot.Completer, string, func(), error) {
	if cfg.Provider == config.ProviderGemini {
		svc, err := services.NewGeminiService(ctx, services.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.LLMTimeout,
		})
		if err != nil {
			return nil, "", nil, err
		}
		log.Printf("  model: %s", cfg.GeminiModel)
		return svc, "Gemini", svc.Close, nil
	}

	svc := services.NewYandexGPTService(services.YandexGPTConfig{
		APIKey:      cfg.YandexAPIKey,
		FolderID:    cfg.YandexFolderID,
		Model:       cfg.YandexModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.LLMTimeout,
	})
	log.Printf("  model: %s", svc.ModelURI())
	return svc, "YandexGPT", func() {}, nil
}
