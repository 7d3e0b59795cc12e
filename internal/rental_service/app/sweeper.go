package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

const expiryNotice = "⚠️ Your subscription has expired. Please purchase a new subscription to continue using the service."

// ExpirySweeper is the recurring background pass that deactivates lapsed
// subscriptions. Each pass is independent: deactivations committed before a
// failure stay committed, and a notification failure never aborts the pass.
type ExpirySweeper struct {
	subs     domain.SubscriberRepository
	notifier Notifier
	logger   *slog.Logger
}

func NewExpirySweeper(subs domain.SubscriberRepository, notifier Notifier, logger *slog.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		subs:     subs,
		notifier: notifier,
		logger:   logger.With("service", "expiry_sweeper"),
	}
}

// RunOnce performs a single sweep: every subscriber still flagged active
// whose window closed before now is deactivated and persisted, then notified
// best-effort. Returns the number of subscribers deactivated.
func (s *ExpirySweeper) RunOnce(ctx context.Context) (int, error) {
	sweepRunsCounter.Inc()
	now := time.Now().UTC()

	lapsed, err := s.subs.FindLapsed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("querying lapsed subscriptions: %w", err)
	}
	if len(lapsed) == 0 {
		s.logger.DebugContext(ctx, "No lapsed subscriptions in this pass")
		return 0, nil
	}

	deactivated := 0
	for _, sub := range lapsed {
		sub.IsActive = false
		if next, terr := domain.Transition(sub.State, domain.EventExpire); terr == nil {
			sub.State = next
		}

		if err := s.subs.Upsert(ctx, sub); err != nil {
			// Earlier deactivations in this pass stay durable; skip only
			// this subscriber and let the next pass retry it.
			s.logger.ErrorContext(ctx, "Failed to persist deactivation",
				"telegram_id", sub.TelegramID, "error", err)
			continue
		}
		deactivated++
		sweepDeactivationsCounter.Inc()
		s.logger.InfoContext(ctx, "Subscription expired and deactivated",
			"telegram_id", sub.TelegramID, "expired_at", sub.SubscriptionEnd)

		if err := s.notifier.Notify(ctx, sub.TelegramID, expiryNotice); err != nil {
			sweepNotifyFailuresCounter.Inc()
			s.logger.ErrorContext(ctx, "Failed to notify subscriber about expiry",
				"telegram_id", sub.TelegramID, "error", err)
		}
	}

	return deactivated, nil
}

// Run drives RunOnce on the given interval until the context is cancelled.
// A failing pass is logged and the loop keeps ticking.
func (s *ExpirySweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Expiry sweeper started", "interval", interval)
	for {
		select {
		case <-ticker.C:
			count, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "Expiry sweep pass failed", "error", err)
				continue
			}
			if count > 0 {
				s.logger.InfoContext(ctx, "Expiry sweep pass completed", "deactivated", count)
			}
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Expiry sweeper stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}
