package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const pollTimeoutSeconds = 30

// Poller drives the adapter from long polling.
type Poller struct {
	api     BotAPI
	adapter *Adapter
	logger  *slog.Logger
}

func NewPoller(api BotAPI, adapter *Adapter, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{api: api, adapter: adapter, logger: logger}
}

// Run removes any registered webhook and then handles updates one at a time
// until ctx is cancelled or the update channel closes.
func (p *Poller) Run(ctx context.Context) error {
	if _, err := p.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := p.api.GetUpdatesChan(u)
	defer p.api.StopReceivingUpdates()

	p.logger.Info("polling for updates")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.adapter.ProcessUpdate(context.WithoutCancel(ctx), update)
		}
	}
}
