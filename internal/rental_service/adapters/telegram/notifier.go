package telegram

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v3"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/app"
)

// Notifier delivers app-layer notification obligations through the bot.
// Failures are logged and reported back, never escalated: a blocked chat must
// not break a sweep pass or a purchase.
type Notifier struct {
	bot      *tele.Bot
	adminIDs []int64
	logger   *slog.Logger
}

var _ app.Notifier = (*Notifier)(nil)

func NewNotifier(bot *tele.Bot, adminIDs []int64, logger *slog.Logger) *Notifier {
	return &Notifier{
		bot:      bot,
		adminIDs: adminIDs,
		logger:   logger.With("component", "telegram_notifier"),
	}
}

func (n *Notifier) Notify(ctx context.Context, subscriberID int64, text string) error {
	_, err := n.bot.Send(&tele.User{ID: subscriberID}, text)
	if err != nil {
		n.logger.WarnContext(ctx, "Failed to deliver notification", "telegram_id", subscriberID, "error", err)
	}
	return err
}

func (n *Notifier) NotifyOperators(ctx context.Context, text string) {
	for _, adminID := range n.adminIDs {
		if _, err := n.bot.Send(&tele.User{ID: adminID}, text); err != nil {
			n.logger.WarnContext(ctx, "Failed to deliver operator notification", "admin_id", adminID, "error", err)
		}
	}
}
