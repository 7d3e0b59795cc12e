package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

// SubscriptionService orchestrates the onboarding/payment/approval lifecycle
// around the pure state machine in the domain package. Administrative
// identities bypass the funnel entirely and always evaluate as active.
type SubscriptionService struct {
	subs     domain.SubscriberRepository
	sessions *SessionStore
	isAdmin  func(int64) bool
	isBoss   func(int64) bool
	logger   *slog.Logger
}

func NewSubscriptionService(
	subs domain.SubscriberRepository,
	sessions *SessionStore,
	isAdmin func(int64) bool,
	isBoss func(int64) bool,
	logger *slog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subs:     subs,
		sessions: sessions,
		isAdmin:  isAdmin,
		isBoss:   isBoss,
		logger:   logger.With("service", "subscription"),
	}
}

// GetOrCreate returns the ledger record for a Telegram identity, creating it
// on first contact.
func (s *SubscriptionService) GetOrCreate(ctx context.Context, telegramID int64, username string) (*domain.Subscriber, error) {
	sub, err := s.subs.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	sub = domain.NewSubscriber(telegramID, username)
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("creating subscriber %d: %w", telegramID, err)
	}
	s.logger.InfoContext(ctx, "Subscriber created on first contact", "telegram_id", telegramID, "username", username)
	return sub, nil
}

// HasAccess reports whether the subscriber may use resource-affecting
// features right now. Admins are always allowed, with no expiry enforcement.
func (s *SubscriptionService) HasAccess(sub *domain.Subscriber, now time.Time) bool {
	if s.isAdmin(sub.TelegramID) {
		return true
	}
	return sub.HasValidSubscription(now)
}

// SelectPlan moves the subscriber into the payment funnel and remembers the
// selection in session state.
func (s *SubscriptionService) SelectPlan(ctx context.Context, sub *domain.Subscriber, planKey string) (*domain.Plan, error) {
	plan := domain.PlanByKey(planKey)
	if plan == nil {
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrNotFound, planKey)
	}

	next, err := domain.Transition(sub.State, domain.EventSelectPlan)
	if err != nil {
		return nil, err
	}
	sub.State = next
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("persisting plan selection: %w", err)
	}
	s.sessions.SetSelectedPlan(sub.TelegramID, planKey)
	s.logger.InfoContext(ctx, "Plan selected", "telegram_id", sub.TelegramID, "plan", planKey)
	return plan, nil
}

// SubmitProof records that the subscriber sent payment proof and moves them
// to awaiting approval. When the session carries no plan selection (process
// restart, stale conversation) the subscriber reverts to the new state and
// the call fails with a state violation.
func (s *SubscriptionService) SubmitProof(ctx context.Context, sub *domain.Subscriber) (*domain.Plan, error) {
	planKey := s.sessions.SelectedPlan(sub.TelegramID)
	plan := domain.PlanByKey(planKey)
	if plan == nil {
		sub.State = domain.StateNew
		if err := s.subs.Upsert(ctx, sub); err != nil {
			s.logger.ErrorContext(ctx, "Failed to revert subscriber state", "telegram_id", sub.TelegramID, "error", err)
		}
		return nil, fmt.Errorf("%w: payment proof without plan selection", domain.ErrStateViolation)
	}

	next, err := domain.Transition(sub.State, domain.EventSubmitProof)
	if err != nil {
		return nil, err
	}
	sub.State = next
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("persisting proof submission: %w", err)
	}
	s.logger.InfoContext(ctx, "Payment proof submitted", "telegram_id", sub.TelegramID, "plan", planKey)
	return plan, nil
}

// Approve grants the pending subscription request. Only administrative
// identities may approve for other subscribers; expiry is computed as
// now + plan duration.
func (s *SubscriptionService) Approve(ctx context.Context, approverID, subscriberID int64, planKey string) (*domain.Subscriber, *domain.Plan, error) {
	if !s.isAdmin(approverID) {
		return nil, nil, fmt.Errorf("%w: approver %d is not an administrator", domain.ErrStateViolation, approverID)
	}
	plan := domain.PlanByKey(planKey)
	if plan == nil {
		return nil, nil, fmt.Errorf("%w: unknown plan %q", domain.ErrNotFound, planKey)
	}

	sub, err := s.subs.GetByTelegramID(ctx, subscriberID)
	if err != nil {
		return nil, nil, err
	}

	next, err := domain.Transition(sub.State, domain.EventApprove)
	if err != nil {
		return nil, nil, err
	}
	sub.State = next
	sub.Grant(*plan, time.Now().UTC())
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, nil, fmt.Errorf("persisting subscription grant: %w", err)
	}
	s.sessions.ClearSelectedPlan(subscriberID)
	s.logger.InfoContext(ctx, "Subscription approved",
		"telegram_id", subscriberID, "approver_id", approverID, "plan", planKey, "expires_at", sub.SubscriptionEnd)
	return sub, plan, nil
}

// Deny rejects the pending subscription request and returns the subscriber to
// the start of the funnel.
func (s *SubscriptionService) Deny(ctx context.Context, approverID, subscriberID int64) (*domain.Subscriber, error) {
	if !s.isAdmin(approverID) {
		return nil, fmt.Errorf("%w: approver %d is not an administrator", domain.ErrStateViolation, approverID)
	}

	sub, err := s.subs.GetByTelegramID(ctx, subscriberID)
	if err != nil {
		return nil, err
	}

	next, err := domain.Transition(sub.State, domain.EventDeny)
	if err != nil {
		return nil, err
	}
	sub.State = next
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("persisting denial: %w", err)
	}
	s.sessions.ClearSelectedPlan(subscriberID)
	s.logger.InfoContext(ctx, "Subscription denied", "telegram_id", subscriberID, "approver_id", approverID)
	return sub, nil
}

// DeleteSubscriber removes a ledger record entirely. Restricted to the boss
// identity.
func (s *SubscriptionService) DeleteSubscriber(ctx context.Context, requesterID, targetID int64) error {
	if !s.isBoss(requesterID) {
		return fmt.Errorf("%w: requester %d may not delete subscribers", domain.ErrStateViolation, requesterID)
	}
	deleted, err := s.subs.Delete(ctx, targetID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: subscriber %d", domain.ErrNotFound, targetID)
	}
	s.sessions.Clear(targetID)
	s.logger.InfoContext(ctx, "Subscriber deleted", "telegram_id", targetID, "requester_id", requesterID)
	return nil
}

// IsAdmin exposes the administrative check to transport handlers.
func (s *SubscriptionService) IsAdmin(telegramID int64) bool { return s.isAdmin(telegramID) }

// IsBoss exposes the boss check to transport handlers.
func (s *SubscriptionService) IsBoss(telegramID int64) bool { return s.isBoss(telegramID) }
