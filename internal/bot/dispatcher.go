package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yagpt-bot/internal/models"
	"yagpt-bot/internal/services"
)

const (
	PingLive   = "live"
	PingStatic = "static"
)

type Completer interface {
	Complete(ctx context.Context, turns []models.Turn) (string, error)
}

type ContextStore interface {
	Append(ctx context.Context, conversationID int64, turn models.Turn) error
	Recent(ctx context.Context, conversationID int64, limit int) ([]models.Turn, error)
	Clear(ctx context.Context, conversationID int64) error
}

type UsageCounter interface {
	Record(ctx context.Context, userID int64) error
	Snapshot(ctx context.Context) (models.UsageSnapshot, error)
}

// Notifier delivers a standalone message to a chat; used for broadcasts.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Inbound struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string
}

type Reply struct {
	ChatID  int64
	ReplyTo int
	Text    string
}

type Options struct {
	SystemPrompt  string
	ContextWindow int
	AdminIDs      []int64
	PingMode      string
	ProviderName  string
	Logger        *slog.Logger
	Now           func() time.Time
}

// Dispatcher classifies each inbound message independently and produces
// exactly one reply for it. No error escapes Handle.
type Dispatcher struct {
	completer Completer
	contexts  ContextStore
	usage     UsageCounter
	notifier  Notifier

	systemPrompt string
	window       int
	admins       map[int64]struct{}
	pingMode     string
	provider     string
	logger       *slog.Logger
	now          func() time.Time
}

func NewDispatcher(completer Completer, contexts ContextStore, usage UsageCounter, notifier Notifier, opts Options) *Dispatcher {
	admins := make(map[int64]struct{}, len(opts.AdminIDs))
	for _, id := range opts.AdminIDs {
		admins[id] = struct{}{}
	}

	d := &Dispatcher{
		completer:    completer,
		contexts:     contexts,
		usage:        usage,
		notifier:     notifier,
		systemPrompt: opts.SystemPrompt,
		window:       opts.ContextWindow,
		admins:       admins,
		pingMode:     opts.PingMode,
		provider:     opts.ProviderName,
		logger:       opts.Logger,
		now:          opts.Now,
	}
	if d.window <= 0 {
		d.window = 5
	}
	if d.pingMode != PingStatic {
		d.pingMode = PingLive
	}
	if d.provider == "" {
		d.provider = "YandexGPT"
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

func (d *Dispatcher) Handle(ctx context.Context, in Inbound) Reply {
	cmd, args := ParseCommand(in.Text)
	d.logger.Debug("inbound message", "chat_id", in.ChatID, "user_id", in.UserID, "command", cmd.String())

	var text string
	switch cmd {
	case CommandStart:
		text = d.handleStart(ctx, in)
	case CommandHelp:
		text = fmt.Sprintf(msgHelp, d.provider)
	case CommandPing:
		text = d.handlePing(ctx)
	case CommandAdmin:
		text = d.handleAdmin(in)
	case CommandStats:
		text = d.handleStats(ctx, in)
	case CommandUsers:
		text = d.handleUsers(ctx, in)
	case CommandBroadcast:
		text = d.handleBroadcast(ctx, in, args)
	case CommandClear:
		text = d.handleClear(ctx, in)
	default:
		text = d.handleAsk(ctx, in)
	}

	return Reply{ChatID: in.ChatID, ReplyTo: in.MessageID, Text: text}
}

func (d *Dispatcher) handleStart(ctx context.Context, in Inbound) string {
	d.recordUsage(ctx, in.UserID)
	return fmt.Sprintf(msgGreeting, d.provider)
}

func (d *Dispatcher) handlePing(ctx context.Context) string {
	if d.pingMode == PingStatic {
		return msgPingStatic
	}
	reply, err := d.completer.Complete(ctx, []models.Turn{models.UserTurn(msgPingPrompt)})
	if err != nil {
		d.logger.Warn("ping completion failed", "error", err)
		return services.Diagnostic(err)
	}
	return fmt.Sprintf(msgPingLive, d.provider, reply)
}

func (d *Dispatcher) handleClear(ctx context.Context, in Inbound) string {
	if err := d.contexts.Clear(ctx, in.ChatID); err != nil {
		d.logger.Warn("failed to clear context", "chat_id", in.ChatID, "error", err)
	}
	return msgContextCleared
}

// handleAsk relays the text to the model with the recent context window. The
// user turn is kept even when the completion fails; the assistant turn is only
// stored on success.
func (d *Dispatcher) handleAsk(ctx context.Context, in Inbound) string {
	prompt := strings.TrimSpace(in.Text)
	if prompt == "" {
		return msgEmptyText
	}

	d.recordUsage(ctx, in.UserID)

	userTurn := models.UserTurn(in.Text)
	history := []models.Turn{userTurn}
	if err := d.contexts.Append(ctx, in.ChatID, userTurn); err != nil {
		d.logger.Warn("failed to store user turn", "chat_id", in.ChatID, "error", err)
	} else if recent, err := d.contexts.Recent(ctx, in.ChatID, d.window); err != nil {
		d.logger.Warn("failed to read context", "chat_id", in.ChatID, "error", err)
	} else if len(recent) > 0 {
		history = recent
	}

	turns := make([]models.Turn, 0, len(history)+1)
	if d.systemPrompt != "" {
		turns = append(turns, models.SystemTurn(d.systemPrompt))
	}
	turns = append(turns, history...)

	start := d.now()
	reply, err := d.completer.Complete(ctx, turns)
	if err != nil {
		d.logger.Warn("completion failed", "chat_id", in.ChatID, "user_id", in.UserID, "error", err)
		return services.Diagnostic(err)
	}
	d.logger.Info("completion succeeded", "chat_id", in.ChatID, "user_id", in.UserID, "duration", d.now().Sub(start))

	if err := d.contexts.Append(ctx, in.ChatID, models.AssistantTurn(reply)); err != nil {
		d.logger.Warn("failed to store assistant turn", "chat_id", in.ChatID, "error", err)
	}
	return reply
}

// recordUsage never blocks the reply; a failed write is only logged.
func (d *Dispatcher) recordUsage(ctx context.Context, userID int64) {
	if err := d.usage.Record(ctx, userID); err != nil {
		d.logger.Warn("failed to record usage", "user_id", userID, "error", err)
	}
}
