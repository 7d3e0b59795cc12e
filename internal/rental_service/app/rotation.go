package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/adapters/telephony"
	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

// CredentialRotator hands out upstream credentials in round-robin order, one
// cursor per subscriber. The cursor is advanced only after a successful
// purchase, so rotation load is proportional to completed purchases rather
// than to browsing volume.
type CredentialRotator struct {
	creds    domain.CredentialRepository
	subs     domain.SubscriberRepository
	provider telephony.Provider
	logger   *slog.Logger
}

func NewCredentialRotator(
	creds domain.CredentialRepository,
	subs domain.SubscriberRepository,
	provider telephony.Provider,
	logger *slog.Logger,
) *CredentialRotator {
	return &CredentialRotator{
		creds:    creds,
		subs:     subs,
		provider: provider,
		logger:   logger.With("service", "credential_rotator"),
	}
}

// Next selects the credential at the subscriber's rotation cursor. When the
// valid set shrank below the cursor (credentials invalidated concurrently),
// the cursor resets to 0 and is persisted before selection. Returns
// domain.ErrNoValidCredentials when the valid set is empty.
func (r *CredentialRotator) Next(ctx context.Context, sub *domain.Subscriber) (*domain.Credential, error) {
	credentials, err := r.creds.ListValid(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing valid credentials: %w", err)
	}
	if len(credentials) == 0 {
		return nil, domain.ErrNoValidCredentials
	}

	if sub.RotationCursor >= len(credentials) {
		r.logger.InfoContext(ctx, "Rotation cursor out of range, resetting",
			"telegram_id", sub.TelegramID, "cursor", sub.RotationCursor, "credential_count", len(credentials))
		sub.RotationCursor = 0
		if err := r.subs.Upsert(ctx, sub); err != nil {
			return nil, fmt.Errorf("persisting cursor reset: %w", err)
		}
	}

	return credentials[sub.RotationCursor], nil
}

// Advance moves the subscriber's cursor to the next valid credential,
// wrapping around the current set size. Called only after a successful
// purchase. No-op when the valid set became empty in the meantime.
func (r *CredentialRotator) Advance(ctx context.Context, sub *domain.Subscriber) error {
	credentials, err := r.creds.ListValid(ctx)
	if err != nil {
		return fmt.Errorf("listing valid credentials for advance: %w", err)
	}
	if len(credentials) == 0 {
		// Nothing to rotate across; leave the cursor untouched.
		return nil
	}

	sub.RotationCursor = (sub.RotationCursor + 1) % len(credentials)
	if err := r.subs.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("persisting cursor advance: %w", err)
	}
	r.logger.DebugContext(ctx, "Rotation cursor advanced",
		"telegram_id", sub.TelegramID, "cursor", sub.RotationCursor, "credential_count", len(credentials))
	return nil
}

// AddCredential verifies a submitted account/secret pair against the upstream
// provider and persists it only when the liveness check passes. A failed
// check returns domain.ErrUpstreamRejected and persists nothing; transport
// failures during verification surface as domain.ErrUpstreamUnavailable.
func (r *CredentialRotator) AddCredential(ctx context.Context, ownerID int64, accountSID, authToken string) (*domain.Credential, error) {
	ok, err := r.provider.Verify(ctx, telephony.Account{SID: accountSID, Token: authToken})
	if err != nil {
		return nil, fmt.Errorf("verifying credential: %w", err)
	}
	if !ok {
		r.logger.WarnContext(ctx, "Credential failed liveness check", "owner_id", ownerID, "account_sid", accountSID)
		return nil, fmt.Errorf("%w: credential failed liveness check", domain.ErrUpstreamRejected)
	}

	cred := domain.NewCredential(ownerID, accountSID, authToken)
	if err := r.creds.Insert(ctx, cred); err != nil {
		return nil, fmt.Errorf("storing credential: %w", err)
	}
	r.logger.InfoContext(ctx, "Credential verified and stored", "owner_id", ownerID, "credential_id", cred.ID)
	return cred, nil
}
