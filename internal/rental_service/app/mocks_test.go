package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/adapters/telephony"
	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks shared across the app package tests ---

type MockSubscriberRepository struct {
	mock.Mock
}

func (m *MockSubscriberRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Subscriber, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscriber), args.Error(1)
}

func (m *MockSubscriberRepository) Upsert(ctx context.Context, sub *domain.Subscriber) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriberRepository) Delete(ctx context.Context, telegramID int64) (bool, error) {
	args := m.Called(ctx, telegramID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriberRepository) FindLapsed(ctx context.Context, now time.Time) ([]*domain.Subscriber, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subscriber), args.Error(1)
}

func (m *MockSubscriberRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubscriberRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Insert(ctx context.Context, cred *domain.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentialRepository) ListValid(ctx context.Context) ([]*domain.Credential, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Credential), args.Error(1)
}

func (m *MockCredentialRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockNumberRepository struct {
	mock.Mock
}

func (m *MockNumberRepository) Insert(ctx context.Context, num *domain.AllocatedNumber) error {
	args := m.Called(ctx, num)
	return args.Error(0)
}

func (m *MockNumberRepository) GetByNumber(ctx context.Context, number string) (*domain.AllocatedNumber, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocatedNumber), args.Error(1)
}

func (m *MockNumberRepository) Delete(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockNumberRepository) AllocatedSet(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockNumberRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.AllocatedNumber, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AllocatedNumber), args.Error(1)
}

func (m *MockNumberRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockTelephonyProvider struct {
	mock.Mock
}

func (m *MockTelephonyProvider) Search(ctx context.Context, acct telephony.Account, region string, limit int) ([]string, error) {
	args := m.Called(ctx, acct, region, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTelephonyProvider) Purchase(ctx context.Context, acct telephony.Account, number string) (string, error) {
	args := m.Called(ctx, acct, number)
	return args.String(0), args.Error(1)
}

func (m *MockTelephonyProvider) Release(ctx context.Context, acct telephony.Account, upstreamSID string) error {
	args := m.Called(ctx, acct, upstreamSID)
	return args.Error(0)
}

func (m *MockTelephonyProvider) LatestMessage(ctx context.Context, acct telephony.Account, number string) (string, error) {
	args := m.Called(ctx, acct, number)
	return args.String(0), args.Error(1)
}

func (m *MockTelephonyProvider) Verify(ctx context.Context, acct telephony.Account) (bool, error) {
	args := m.Called(ctx, acct)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, subscriberID int64, text string) error {
	args := m.Called(ctx, subscriberID, text)
	return args.Error(0)
}

func (m *MockNotifier) NotifyOperators(ctx context.Context, text string) {
	m.Called(ctx, text)
}
