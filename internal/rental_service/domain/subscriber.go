package domain

import "time"

// Subscriber is the per-user ledger record. One document per Telegram
// identity; created on first contact, overwritten whole on every save.
type Subscriber struct {
	TelegramID      int64      `bson:"telegram_id"`
	Username        string     `bson:"username,omitempty"`
	IsActive        bool       `bson:"is_active"`
	PlanName        string     `bson:"subscription_type,omitempty"`
	SubscriptionEnd *time.Time `bson:"subscription_end,omitempty"`
	RotationCursor  int        `bson:"current_sid_index"`
	State           State      `bson:"state"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

// NewSubscriber creates a ledger record for a first-contact user.
func NewSubscriber(telegramID int64, username string) *Subscriber {
	now := time.Now().UTC()
	return &Subscriber{
		TelegramID:     telegramID,
		Username:       username,
		IsActive:       false,
		RotationCursor: 0,
		State:          StateNew,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// HasValidSubscription reports whether the subscriber's window is still open.
// The activation flag is maintained by the sweeper; this is the authoritative
// temporal check used on every gated operation.
func (s *Subscriber) HasValidSubscription(now time.Time) bool {
	if s.SubscriptionEnd == nil {
		return false
	}
	return now.Before(*s.SubscriptionEnd)
}

// Grant activates the subscriber under the given plan, computing the expiry
// from now.
func (s *Subscriber) Grant(plan Plan, now time.Time) {
	end := now.Add(plan.Duration)
	s.PlanName = plan.Name
	s.SubscriptionEnd = &end
	s.IsActive = true
	s.State = StateActive
	s.UpdatedAt = now
}
