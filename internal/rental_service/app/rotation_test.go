package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/adapters/telephony"
	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

func testCredentials(n int) []*domain.Credential {
	creds := make([]*domain.Credential, 0, n)
	for i := 0; i < n; i++ {
		creds = append(creds, &domain.Credential{
			ID:         string(rune('a' + i)),
			AccountSID: "AC" + string(rune('0'+i)),
			AuthToken:  "token",
			IsValid:    true,
		})
	}
	return creds
}

func TestRotatorNextNoCredentials(t *testing.T) {
	credRepo := new(MockCredentialRepository)
	subRepo := new(MockSubscriberRepository)
	provider := new(MockTelephonyProvider)
	rotator := NewCredentialRotator(credRepo, subRepo, provider, testLogger())

	credRepo.On("ListValid", mock.Anything).Return([]*domain.Credential{}, nil)

	_, err := rotator.Next(context.Background(), domain.NewSubscriber(1, "u"))
	assert.True(t, errors.Is(err, domain.ErrNoValidCredentials))
	subRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestRotatorNextResetsOutOfRangeCursor(t *testing.T) {
	credRepo := new(MockCredentialRepository)
	subRepo := new(MockSubscriberRepository)
	provider := new(MockTelephonyProvider)
	rotator := NewCredentialRotator(credRepo, subRepo, provider, testLogger())

	creds := testCredentials(2)
	credRepo.On("ListValid", mock.Anything).Return(creds, nil)
	subRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	sub := domain.NewSubscriber(1, "u")
	sub.RotationCursor = 5 // set shrank since the last purchase

	got, err := rotator.Next(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, creds[0], got)
	assert.Equal(t, 0, sub.RotationCursor)
	subRepo.AssertCalled(t, "Upsert", mock.Anything, sub)
}

// K successful purchases by one subscriber must visit each of K credentials
// exactly once, in set order, before wrapping.
func TestRotatorRoundRobinOverPurchases(t *testing.T) {
	credRepo := new(MockCredentialRepository)
	subRepo := new(MockSubscriberRepository)
	provider := new(MockTelephonyProvider)
	rotator := NewCredentialRotator(credRepo, subRepo, provider, testLogger())

	creds := testCredentials(3)
	credRepo.On("ListValid", mock.Anything).Return(creds, nil)
	subRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	sub := domain.NewSubscriber(1, "u")
	ctx := context.Background()

	var visited []string
	for i := 0; i < 3; i++ {
		c, err := rotator.Next(ctx, sub)
		require.NoError(t, err)
		assert.Less(t, sub.RotationCursor, len(creds), "cursor must never select out of range")
		visited = append(visited, c.ID)
		require.NoError(t, rotator.Advance(ctx, sub))
	}

	assert.Equal(t, []string{creds[0].ID, creds[1].ID, creds[2].ID}, visited)

	// Fourth purchase wraps back to the first credential.
	c, err := rotator.Next(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, creds[0].ID, c.ID)
}

func TestRotatorAdvanceNoopOnEmptySet(t *testing.T) {
	credRepo := new(MockCredentialRepository)
	subRepo := new(MockSubscriberRepository)
	provider := new(MockTelephonyProvider)
	rotator := NewCredentialRotator(credRepo, subRepo, provider, testLogger())

	credRepo.On("ListValid", mock.Anything).Return([]*domain.Credential{}, nil)

	sub := domain.NewSubscriber(1, "u")
	sub.RotationCursor = 1

	require.NoError(t, rotator.Advance(context.Background(), sub))
	assert.Equal(t, 1, sub.RotationCursor, "cursor must stay put when the set is empty")
	subRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestAddCredentialRejectedNotPersisted(t *testing.T) {
	credRepo := new(MockCredentialRepository)
	subRepo := new(MockSubscriberRepository)
	provider := new(MockTelephonyProvider)
	rotator := NewCredentialRotator(credRepo, subRepo, provider, testLogger())

	provider.On("Verify", mock.Anything, telephony.Account{SID: "ACbad", Token: "t"}).Return(false, nil)

	_, err := rotator.AddCredential(context.Background(), 1, "ACbad", "t")
	assert.True(t, errors.Is(err, domain.ErrUpstreamRejected))
	credRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestAddCredentialVerifiedAndStored(t *testing.T) {
	credRepo := new(MockCredentialRepository)
	subRepo := new(MockSubscriberRepository)
	provider := new(MockTelephonyProvider)
	rotator := NewCredentialRotator(credRepo, subRepo, provider, testLogger())

	provider.On("Verify", mock.Anything, telephony.Account{SID: "ACok", Token: "t"}).Return(true, nil)
	credRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	cred, err := rotator.AddCredential(context.Background(), 7, "ACok", "t")
	require.NoError(t, err)
	assert.Equal(t, "ACok", cred.AccountSID)
	assert.Equal(t, int64(7), cred.OwnerID)
	assert.True(t, cred.IsValid)
	assert.NotEmpty(t, cred.ID)
}
