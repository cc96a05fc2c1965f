package bot

import (
	"context"
	"fmt"
	"strings"
)

func (d *Dispatcher) isAdmin(userID int64) bool {
	_, ok := d.admins[userID]
	return ok
}

func (d *Dispatcher) handleAdmin(in Inbound) string {
	if !d.isAdmin(in.UserID) {
		return msgAccessDenied
	}
	return msgAdminPanel
}

func (d *Dispatcher) handleStats(ctx context.Context, in Inbound) string {
	if !d.isAdmin(in.UserID) {
		return msgAccessDenied
	}
	snap, err := d.usage.Snapshot(ctx)
	if err != nil {
		d.logger.Error("failed to read usage", "error", err)
		return msgStatsUnavailable
	}
	return fmt.Sprintf(msgStats, snap.DistinctUsers(), snap.Messages, d.now().Format(statsTimeLayout))
}

func (d *Dispatcher) handleUsers(ctx context.Context, in Inbound) string {
	if !d.isAdmin(in.UserID) {
		return msgAccessDenied
	}
	snap, err := d.usage.Snapshot(ctx)
	if err != nil {
		d.logger.Error("failed to read usage", "error", err)
		return msgStatsUnavailable
	}
	users := snap.Sorted()
	if len(users) == 0 {
		return msgNoUsers
	}

	var b strings.Builder
	b.WriteString(msgUsersHeader)
	for _, u := range users {
		fmt.Fprintf(&b, msgUsersLine, u.UserID, u.Messages)
	}
	return strings.TrimRight(b.String(), "\n")
}

// handleBroadcast sends text to every known user one at a time. A recipient
// that cannot be reached is logged and skipped.
func (d *Dispatcher) handleBroadcast(ctx context.Context, in Inbound, text string) string {
	if !d.isAdmin(in.UserID) {
		return msgAccessDenied
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return msgBroadcastUsage
	}

	snap, err := d.usage.Snapshot(ctx)
	if err != nil {
		d.logger.Error("failed to read usage", "error", err)
		return msgStatsUnavailable
	}

	users := snap.Sorted()
	body := fmt.Sprintf(msgBroadcastPrefix, text)
	delivered := 0
	for _, u := range users {
		if err := d.notifier.SendText(ctx, u.UserID, body); err != nil {
			d.logger.Warn("broadcast delivery failed", "user_id", u.UserID, "error", err)
			continue
		}
		delivered++
	}

	d.logger.Info("broadcast finished", "admin_id", in.UserID, "delivered", delivered, "recipients", len(users))
	return fmt.Sprintf(msgBroadcastDone, delivered, len(users))
}
