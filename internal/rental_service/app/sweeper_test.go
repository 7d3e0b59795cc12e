package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

func lapsedSubscriber(id int64) *domain.Subscriber {
	sub := domain.NewSubscriber(id, "u")
	end := time.Now().UTC().Add(-time.Second)
	sub.SubscriptionEnd = &end
	sub.IsActive = true
	sub.State = domain.StateActive
	return sub
}

func TestSweepDeactivatesAndNotifiesOnce(t *testing.T) {
	subRepo := new(MockSubscriberRepository)
	notifier := new(MockNotifier)
	sweeper := NewExpirySweeper(subRepo, notifier, testLogger())

	sub := lapsedSubscriber(1)
	subRepo.On("FindLapsed", mock.Anything, mock.Anything).Return([]*domain.Subscriber{sub}, nil)
	subRepo.On("Upsert", mock.Anything, sub).Return(nil)
	notifier.On("Notify", mock.Anything, int64(1), expiryNotice).Return(nil)

	count, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, sub.IsActive)
	assert.Equal(t, domain.StateExpired, sub.State)
	notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestSweepContinuesPastNotificationFailure(t *testing.T) {
	subRepo := new(MockSubscriberRepository)
	notifier := new(MockNotifier)
	sweeper := NewExpirySweeper(subRepo, notifier, testLogger())

	first := lapsedSubscriber(1)
	second := lapsedSubscriber(2)
	subRepo.On("FindLapsed", mock.Anything, mock.Anything).Return([]*domain.Subscriber{first, second}, nil)
	subRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, int64(1), mock.Anything).Return(errors.New("chat blocked"))
	notifier.On("Notify", mock.Anything, int64(2), mock.Anything).Return(nil)

	count, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count, "a delivery failure must not abort the sweep")
	assert.False(t, first.IsActive)
	assert.False(t, second.IsActive)
}

func TestSweepPartialPersistFailureLeavesEarlierDurable(t *testing.T) {
	subRepo := new(MockSubscriberRepository)
	notifier := new(MockNotifier)
	sweeper := NewExpirySweeper(subRepo, notifier, testLogger())

	first := lapsedSubscriber(1)
	second := lapsedSubscriber(2)
	subRepo.On("FindLapsed", mock.Anything, mock.Anything).Return([]*domain.Subscriber{first, second}, nil)
	subRepo.On("Upsert", mock.Anything, first).Return(nil)
	subRepo.On("Upsert", mock.Anything, second).Return(errors.New("write concern"))
	notifier.On("Notify", mock.Anything, int64(1), mock.Anything).Return(nil)

	count, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, int64(2), mock.Anything)
}

func TestSweepNoLapsedSubscribers(t *testing.T) {
	subRepo := new(MockSubscriberRepository)
	notifier := new(MockNotifier)
	sweeper := NewExpirySweeper(subRepo, notifier, testLogger())

	subRepo.On("FindLapsed", mock.Anything, mock.Anything).Return([]*domain.Subscriber{}, nil)

	count, err := sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}
