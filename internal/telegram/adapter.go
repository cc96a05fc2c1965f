package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yagpt-bot/internal/bot"
)

// Adapter feeds Telegram updates to the dispatcher and sends back its reply.
// Both delivery modes go through ProcessUpdate.
type Adapter struct {
	handler Handler
	sender  *Sender
	logger  *slog.Logger
}

func NewAdapter(handler Handler, sender *Sender, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{handler: handler, sender: sender, logger: logger}
}

// ProcessUpdate handles a single update. Updates that carry no text message
// are ignored. It reports whether a reply was produced.
func (a *Adapter) ProcessUpdate(ctx context.Context, update tgbotapi.Update) bool {
	in, ok := inboundFromUpdate(update)
	if !ok {
		a.logger.Debug("ignoring update without text", "update_id", update.UpdateID)
		return false
	}

	reply := a.handler.Handle(ctx, in)
	if reply.Text == "" {
		return false
	}
	if err := a.sender.SendReply(ctx, reply); err != nil {
		a.logger.Error("failed to send reply", "chat_id", reply.ChatID, "error", err)
	}
	return true
}

func inboundFromUpdate(update tgbotapi.Update) (bot.Inbound, bool) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.Chat == nil {
		return bot.Inbound{}, false
	}

	in := bot.Inbound{
		ChatID:    msg.Chat.ID,
		UserID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}
	if msg.From != nil {
		in.UserID = msg.From.ID
	}
	return in, true
}
