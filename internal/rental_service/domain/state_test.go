package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		current State
		event   Event
		want    State
		wantErr bool
	}{
		{"new selects plan", StateNew, EventSelectPlan, StateAwaitingPayment, false},
		{"expired re-enters funnel", StateExpired, EventSelectPlan, StateAwaitingPayment, false},
		{"active cannot select plan", StateActive, EventSelectPlan, StateActive, true},
		{"proof from awaiting payment", StateAwaitingPayment, EventSubmitProof, StateAwaitingApproval, false},
		{"proof from new rejected", StateNew, EventSubmitProof, StateNew, true},
		{"approve pending request", StateAwaitingApproval, EventApprove, StateActive, false},
		{"approve without request rejected", StateNew, EventApprove, StateNew, true},
		{"deny returns to new", StateAwaitingApproval, EventDeny, StateNew, false},
		{"expire active", StateActive, EventExpire, StateExpired, false},
		{"expire non-active rejected", StateAwaitingPayment, EventExpire, StateAwaitingPayment, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.current, tt.event)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrStateViolation))
				assert.Equal(t, tt.current, got, "state must not change on a rejected event")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubscriberHasValidSubscription(t *testing.T) {
	now := time.Now().UTC()

	sub := NewSubscriber(42, "tester")
	assert.False(t, sub.HasValidSubscription(now), "no expiry set")

	plan := PlanByKey("1_day")
	if assert.NotNil(t, plan) {
		sub.Grant(*plan, now)
		assert.True(t, sub.IsActive)
		assert.Equal(t, StateActive, sub.State)
		assert.True(t, sub.HasValidSubscription(now.Add(23*time.Hour)))
		assert.False(t, sub.HasValidSubscription(now.Add(25*time.Hour)))
	}
}

func TestPlanByKey(t *testing.T) {
	assert.Nil(t, PlanByKey("lifetime"))
	p := PlanByKey("7_days")
	if assert.NotNil(t, p) {
		assert.Equal(t, "7 days", p.Name)
	}
}
