package telephony

import "context"

// Account is the upstream credential pair used to authenticate a single call.
// The rotator decides which account each call uses; the provider is stateless
// with respect to credentials.
type Account struct {
	SID   string
	Token string
}

// Provider is the upstream telephony capability: search, purchase and release
// of phone numbers, inbound message retrieval, and credential verification.
// Every call is bounded by the provider's HTTP client timeout. Failures are
// reported as domain.ErrUpstreamUnavailable (network/timeout) or
// domain.ErrUpstreamRejected (provider refused the request).
type Provider interface {
	// Search returns available phone numbers for the region, in
	// provider-supplied order, up to limit.
	Search(ctx context.Context, acct Account, region string, limit int) ([]string, error)
	// Purchase allocates the number upstream and returns the provider-side
	// allocation reference.
	Purchase(ctx context.Context, acct Account, number string) (string, error)
	// Release deallocates by the provider-side reference returned from
	// Purchase, not by the phone number.
	Release(ctx context.Context, acct Account, upstreamSID string) error
	// LatestMessage returns the body of the most recent inbound message for
	// the number, or empty when none exist.
	LatestMessage(ctx context.Context, acct Account, number string) (string, error)
	// Verify checks whether the account credentials are live. A definitive
	// rejection returns (false, nil); transport failures return an error.
	Verify(ctx context.Context, acct Account) (bool, error)
}
