package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yagpt-bot/internal/middleware"
)

const (
	SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

	// TokenParam is the chi URL parameter carrying the bot token.
	TokenParam = "token"

	maxUpdateBytes = 1 << 20
)

// WebhookHandler receives updates posted by Telegram to /{token}.
type WebhookHandler struct {
	token   string
	secret  string
	adapter *Adapter
	logger  *slog.Logger
}

func NewWebhookHandler(token, secret string, adapter *Adapter, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{token: token, secret: secret, adapter: adapter, logger: logger}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, TokenParam) != h.token {
		middleware.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Not found", r)
		return
	}

	if h.secret != "" {
		got := r.Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			middleware.WriteError(w, http.StatusForbidden, "FORBIDDEN", "Invalid secret token", r)
			return
		}
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		middleware.WriteError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json", r)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "INVALID_UPDATE", "Invalid update payload", r)
		return
	}

	// The reply is sent before acknowledging; a dropped connection must not
	// abort an in-flight completion.
	h.adapter.ProcessUpdate(context.WithoutCancel(r.Context()), update)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// RegisterWebhook drops any previous webhook and points Telegram at url.
func RegisterWebhook(api BotAPI, url, secret string) error {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	params := tgbotapi.Params{"url": url}
	if secret != "" {
		params["secret_token"] = secret
	}
	if _, err := api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	return nil
}
