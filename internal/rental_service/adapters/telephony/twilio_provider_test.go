package telephony

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testAccount = Account{SID: "AC123", Token: "tok"}

func TestTwilioSearchParsesNumbers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC123/AvailablePhoneNumbers/CA/Local.json", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("PageSize"))
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "tok", pass)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"available_phone_numbers":[{"phone_number":"+15550001111"},{"phone_number":"+15550002222"}]}`))
	}))
	defer srv.Close()

	p := NewTwilioProvider(testLogger(), srv.URL, 5*time.Second, nil)
	numbers, err := p.Search(context.Background(), testAccount, "CA", 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"+15550001111", "+15550002222"}, numbers)
}

func TestTwilioPurchaseReturnsUpstreamRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550001111", r.PostForm.Get("PhoneNumber"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"PN42","phone_number":"+15550001111"}`))
	}))
	defer srv.Close()

	p := NewTwilioProvider(testLogger(), srv.URL, 5*time.Second, nil)
	ref, err := p.Purchase(context.Background(), testAccount, "+15550001111")
	require.NoError(t, err)
	assert.Equal(t, "PN42", ref)
}

func TestTwilioPurchaseRejectionMapsToUpstreamRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21422,"message":"PhoneNumber is not available","status":400}`))
	}))
	defer srv.Close()

	p := NewTwilioProvider(testLogger(), srv.URL, 5*time.Second, nil)
	_, err := p.Purchase(context.Background(), testAccount, "+15550001111")
	assert.True(t, errors.Is(err, domain.ErrUpstreamRejected))
	assert.Contains(t, err.Error(), "21422")
}

func TestTwilioServerErrorMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewTwilioProvider(testLogger(), srv.URL, 5*time.Second, nil)
	_, err := p.Search(context.Background(), testAccount, "CA", 30)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestTwilioTimeoutMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewTwilioProvider(testLogger(), srv.URL, 50*time.Millisecond, nil)
	_, err := p.Search(context.Background(), testAccount, "CA", 30)
	assert.True(t, errors.Is(err, domain.ErrUpstreamUnavailable))
}

func TestTwilioReleaseUsesReference(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := NewTwilioProvider(testLogger(), srv.URL, 5*time.Second, nil)
	require.NoError(t, p.Release(context.Background(), testAccount, "PN42"))
	assert.Equal(t, "/2010-04-01/Accounts/AC123/IncomingPhoneNumbers/PN42.json", gotPath)
}

func TestTwilioLatestMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "+15550001111", r.URL.Query().Get("To"))
		w.Write([]byte(`{"messages":[{"body":"Your code is 123456"},{"body":"older"}]}`))
	}))
	defer srv.Close()

	p := NewTwilioProvider(testLogger(), srv.URL, 5*time.Second, nil)
	body, err := p.LatestMessage(context.Background(), testAccount, "+15550001111")
	require.NoError(t, err)
	assert.Equal(t, "Your code is 123456", body)
}

func TestTwilioLatestMessageEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages":[]}`))
	}))
	defer srv.Close()

	p := NewTwilioProvider(testLogger(), srv.URL, 5*time.Second, nil)
	body, err := p.LatestMessage(context.Background(), testAccount, "+15550001111")
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestTwilioVerify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"live account", http.StatusOK, true},
		{"bad token", http.StatusUnauthorized, false},
		{"unknown sid", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p := NewTwilioProvider(testLogger(), srv.URL, 5*time.Second, nil)
			ok, err := p.Verify(context.Background(), testAccount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMockProviderPurchaseExclusivity(t *testing.T) {
	p := NewMockProvider(testLogger(), []string{"+15550001111"})

	ref, err := p.Purchase(context.Background(), testAccount, "+15550001111")
	require.NoError(t, err)
	require.NotEmpty(t, ref)

	_, err = p.Purchase(context.Background(), testAccount, "+15550001111")
	assert.True(t, errors.Is(err, domain.ErrUpstreamRejected), "a number can be allocated at most once")

	require.NoError(t, p.Release(context.Background(), testAccount, ref))
	_, err = p.Purchase(context.Background(), testAccount, "+15550001111")
	assert.NoError(t, err, "released numbers return to the pool")
}
