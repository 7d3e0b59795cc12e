package telephony

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

// MockProvider is a simulated telephony provider for development without
// upstream credentials. It hands out a fixed pool of numbers and enforces the
// same exclusivity the real provider does: a number can be purchased once.
type MockProvider struct {
	logger *slog.Logger

	mu        sync.Mutex
	available []string
	purchased map[string]string // upstream sid -> number
	messages  map[string]string // number -> latest inbound body
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a MockProvider seeded with the given numbers.
func NewMockProvider(logger *slog.Logger, pool []string) *MockProvider {
	return &MockProvider{
		logger:    logger.With("provider", "mock"),
		available: append([]string(nil), pool...),
		purchased: make(map[string]string),
		messages:  make(map[string]string),
	}
}

func (p *MockProvider) Search(ctx context.Context, acct Account, region string, limit int) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, limit)
	for _, n := range p.available {
		out = append(out, n)
		if len(out) >= limit {
			break
		}
	}
	p.logger.DebugContext(ctx, "MockProvider: search", "region", region, "count", len(out))
	return out, nil
}

func (p *MockProvider) Purchase(ctx context.Context, acct Account, number string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := -1
	for i, n := range p.available {
		if n == number {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("%w: number %s not available", domain.ErrUpstreamRejected, number)
	}
	p.available = append(p.available[:idx], p.available[idx+1:]...)

	sid := "PN" + uuid.NewString()
	p.purchased[sid] = number
	p.logger.InfoContext(ctx, "MockProvider: purchased", "number", number, "upstream_sid", sid)
	return sid, nil
}

func (p *MockProvider) Release(ctx context.Context, acct Account, upstreamSID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	number, ok := p.purchased[upstreamSID]
	if !ok {
		return fmt.Errorf("%w: unknown allocation %s", domain.ErrUpstreamRejected, upstreamSID)
	}
	delete(p.purchased, upstreamSID)
	p.available = append(p.available, number)
	p.logger.InfoContext(ctx, "MockProvider: released", "number", number, "upstream_sid", upstreamSID)
	return nil
}

func (p *MockProvider) LatestMessage(ctx context.Context, acct Account, number string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messages[number], nil
}

func (p *MockProvider) Verify(ctx context.Context, acct Account) (bool, error) {
	// Any non-empty pair verifies against the mock.
	return acct.SID != "" && acct.Token != "", nil
}

// Deliver injects an inbound message, for exercising OTP retrieval locally.
func (p *MockProvider) Deliver(number, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[number] = body
}
