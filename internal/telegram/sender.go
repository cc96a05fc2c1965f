package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yagpt-bot/internal/bot"
)

// maxMessageRunes is the Bot API limit for a single text message.
const maxMessageRunes = 4096

// Sender posts plain-text messages. Long texts are split into several
// messages; only the first one is attached as a reply.
type Sender struct {
	api BotAPI
}

func NewSender(api BotAPI) *Sender {
	return &Sender{api: api}
}

// SendText delivers a standalone message to chatID.
func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	return s.send(ctx, chatID, 0, text)
}

// SendReply delivers the dispatcher's reply, quoting the inbound message.
func (s *Sender) SendReply(ctx context.Context, reply bot.Reply) error {
	return s.send(ctx, reply.ChatID, reply.ReplyTo, reply.Text)
}

func (s *Sender) send(ctx context.Context, chatID int64, replyTo int, text string) error {
	for i, chunk := range splitText(text, maxMessageRunes) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, chunk)
		if i == 0 {
			msg.ReplyToMessageID = replyTo
		}
		if _, err := s.api.Send(msg); err != nil {
			return fmt.Errorf("send message to chat %d: %w", chatID, err)
		}
	}
	return nil
}

// splitText cuts text into pieces of at most limit runes, preferring to break
// on a newline in the second half of a piece.
func splitText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
