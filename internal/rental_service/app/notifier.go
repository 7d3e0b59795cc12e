package app

import "context"

// Notifier delivers outbound notifications through the chat transport.
// Delivery is best-effort: implementations log failures, and callers never
// abort an operation because a notification could not be sent.
type Notifier interface {
	// Notify sends a message to a single subscriber. The returned error is
	// informational; callers log it and continue.
	Notify(ctx context.Context, subscriberID int64, text string) error
	// NotifyOperators fans a message out to the administrative identity set.
	NotifyOperators(ctx context.Context, text string)
}
