package router

import (
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"yagpt-bot/internal/middleware"
	"yagpt-bot/internal/telegram"
)

func New(webhook http.Handler, webhookLimiter *middleware.RateLimiter) http.Handler {
	return newRouter(webhook, webhookLimiter, os.Stdout)
}

func newRouter(webhook http.Handler, webhookLimiter *middleware.RateLimiter, accessLog io.Writer) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(accessLogger(accessLog))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Bot is running!"))
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── Telegram webhook ────
	if webhook != nil {
		r.Group(func(r chi.Router) {
			if webhookLimiter != nil {
				r.Use(webhookLimiter.Middleware)
			}
			r.Method(http.MethodPost, "/{"+telegram.TokenParam+"}", webhook)
		})
	}

	return r
}
