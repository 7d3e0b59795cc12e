package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/adapters/telephony"
	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

// InventoryConfig holds the tunables of the inventory broker.
type InventoryConfig struct {
	Region          string // upstream search region, e.g. "CA"
	PageSize        int    // numbers offered per page
	OversampleRatio int    // upstream fetch is PageSize * OversampleRatio
}

// InventoryService brokers phone-number inventory between the upstream
// provider and the local allocation table. It filters out numbers already
// owned by any subscriber and numbers already shown in the current browsing
// session, and it keeps the local allocation record in lockstep with the
// upstream allocation.
type InventoryService struct {
	numbers  domain.NumberRepository
	provider telephony.Provider
	rotator  *CredentialRotator
	config   InventoryConfig
	logger   *slog.Logger
}

func NewInventoryService(
	numbers domain.NumberRepository,
	provider telephony.Provider,
	rotator *CredentialRotator,
	config InventoryConfig,
	logger *slog.Logger,
) *InventoryService {
	if config.OversampleRatio <= 0 {
		config.OversampleRatio = 2
	}
	return &InventoryService{
		numbers:  numbers,
		provider: provider,
		rotator:  rotator,
		config:   config,
		logger:   logger.With("service", "inventory"),
	}
}

func account(cred *domain.Credential) telephony.Account {
	return telephony.Account{SID: cred.AccountSID, Token: cred.AuthToken}
}

// ListCandidates fetches an oversampled batch of available numbers upstream
// and filters it against the global allocation set and the session exclusion
// set, truncating to the configured page size in upstream order. An upstream
// failure returns an error; an empty result with a nil error means the
// inventory is exhausted after filtering — callers must treat the two
// differently.
func (s *InventoryService) ListCandidates(ctx context.Context, cred *domain.Credential, exclude []string) ([]string, error) {
	fetchLimit := s.config.PageSize * s.config.OversampleRatio

	found, err := s.provider.Search(ctx, account(cred), s.config.Region, fetchLimit)
	if err != nil {
		candidateQueriesCounter.WithLabelValues("upstream_error").Inc()
		return nil, fmt.Errorf("searching upstream inventory: %w", err)
	}

	allocated, err := s.numbers.AllocatedSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading allocation set: %w", err)
	}
	excluded := make(map[string]struct{}, len(exclude))
	for _, n := range exclude {
		excluded[n] = struct{}{}
	}

	result := make([]string, 0, s.config.PageSize)
	for _, number := range found {
		if _, taken := allocated[number]; taken {
			continue
		}
		if _, shown := excluded[number]; shown {
			continue
		}
		result = append(result, number)
		if len(result) >= s.config.PageSize {
			break
		}
	}

	if len(result) == 0 {
		candidateQueriesCounter.WithLabelValues("exhausted").Inc()
	} else {
		candidateQueriesCounter.WithLabelValues("success").Inc()
	}
	s.logger.InfoContext(ctx, "Candidate list assembled",
		"fetched", len(found), "offered", len(result), "excluded_session", len(exclude))
	return result, nil
}

// Purchase allocates a number upstream and records local ownership. A number
// already present in the allocation table is rejected locally without an
// upstream call: offers can go stale when another subscriber buys first.
// The rotation cursor advances only when the purchase succeeded.
func (s *InventoryService) Purchase(ctx context.Context, cred *domain.Credential, number string, sub *domain.Subscriber) (*domain.AllocatedNumber, error) {
	timer := prometheus.NewTimer(purchaseDurationHist)
	defer timer.ObserveDuration()

	// Stale-offer guard. This is a fast path, not the exclusivity guarantee:
	// the upstream provider itself allocates a number at most once.
	_, err := s.numbers.GetByNumber(ctx, number)
	if err == nil {
		purchasesCounter.WithLabelValues("rejected").Inc()
		s.logger.WarnContext(ctx, "Purchase rejected, number already allocated", "number", number, "telegram_id", sub.TelegramID)
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyAllocated, number)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("checking allocation table: %w", err)
	}

	upstreamSID, err := s.provider.Purchase(ctx, account(cred), number)
	if err != nil {
		purchasesCounter.WithLabelValues("upstream_error").Inc()
		return nil, fmt.Errorf("purchasing %s upstream: %w", number, err)
	}

	record := domain.NewAllocatedNumber(number, upstreamSID, sub.TelegramID)
	if err := s.numbers.Insert(ctx, record); err != nil {
		// The upstream side is already allocated; there is no automatic
		// compensation. Committing the local record is the only recovery
		// path, so this failure is loud.
		purchasesCounter.WithLabelValues("upstream_error").Inc()
		s.logger.ErrorContext(ctx, "Upstream purchase succeeded but local record failed",
			"number", number, "upstream_sid", upstreamSID, "telegram_id", sub.TelegramID, "error", err)
		return nil, fmt.Errorf("recording allocation for %s: %w", number, err)
	}

	if err := s.rotator.Advance(ctx, sub); err != nil {
		// The purchase itself is complete; a failed cursor write only skews
		// rotation until the next successful advance.
		s.logger.WarnContext(ctx, "Failed to advance rotation cursor after purchase",
			"telegram_id", sub.TelegramID, "error", err)
	}

	purchasesCounter.WithLabelValues("success").Inc()
	s.logger.InfoContext(ctx, "Number purchased", "number", number, "upstream_sid", upstreamSID, "telegram_id", sub.TelegramID)
	return record, nil
}

// Release deallocates a number. The local record is the source of truth for
// the upstream reference; the record is removed only after the upstream
// release succeeded, so a failed upstream call never produces ghost
// ownership. Releasing an unknown number returns domain.ErrNotFound and
// mutates nothing.
func (s *InventoryService) Release(ctx context.Context, cred *domain.Credential, number string) error {
	record, err := s.numbers.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			releasesCounter.WithLabelValues("not_found").Inc()
		}
		return err
	}

	if err := s.provider.Release(ctx, account(cred), record.UpstreamSID); err != nil {
		releasesCounter.WithLabelValues("upstream_error").Inc()
		return fmt.Errorf("releasing %s upstream: %w", number, err)
	}

	if _, err := s.numbers.Delete(ctx, number); err != nil {
		return fmt.Errorf("removing allocation record for %s: %w", number, err)
	}

	releasesCounter.WithLabelValues("success").Inc()
	s.logger.InfoContext(ctx, "Number released", "number", number, "upstream_sid", record.UpstreamSID)
	return nil
}

// LatestMessage returns the most recent inbound message for an owned number,
// typically an OTP. Empty when no message has arrived yet.
func (s *InventoryService) LatestMessage(ctx context.Context, cred *domain.Credential, number string) (string, error) {
	body, err := s.provider.LatestMessage(ctx, account(cred), number)
	if err != nil {
		return "", fmt.Errorf("fetching latest message for %s: %w", number, err)
	}
	return body, nil
}

// OwnedNumbers lists the subscriber's current allocations.
func (s *InventoryService) OwnedNumbers(ctx context.Context, telegramID int64) ([]*domain.AllocatedNumber, error) {
	return s.numbers.ListByOwner(ctx, telegramID)
}
