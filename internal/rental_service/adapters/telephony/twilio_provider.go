package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

const apiVersion = "2010-04-01"

var _ Provider = (*TwilioProvider)(nil)

// TwilioProvider talks to the Twilio REST API. Authentication is HTTP basic
// auth with the account SID and token of whichever Account the call carries.
type TwilioProvider struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
}

func NewTwilioProvider(logger *slog.Logger, baseURL string, timeout time.Duration, httpClient *http.Client) *TwilioProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &TwilioProvider{
		logger:     logger.With("provider", "twilio"),
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type availableNumbersResponse struct {
	AvailablePhoneNumbers []struct {
		PhoneNumber string `json:"phone_number"`
	} `json:"available_phone_numbers"`
}

type incomingNumberResponse struct {
	SID         string `json:"sid"`
	PhoneNumber string `json:"phone_number"`
}

type messageListResponse struct {
	Messages []struct {
		Body string `json:"body"`
	} `json:"messages"`
}

type twilioErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (p *TwilioProvider) Search(ctx context.Context, acct Account, region string, limit int) ([]string, error) {
	endpoint := fmt.Sprintf("%s/%s/Accounts/%s/AvailablePhoneNumbers/%s/Local.json?PageSize=%s",
		p.baseURL, apiVersion, url.PathEscape(acct.SID), url.PathEscape(region), strconv.Itoa(limit))

	body, err := p.do(ctx, acct, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp availableNumbersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		p.logger.ErrorContext(ctx, "Failed to decode available numbers response", "error", err)
		return nil, fmt.Errorf("%w: decoding search response: %v", domain.ErrUpstreamUnavailable, err)
	}

	numbers := make([]string, 0, len(resp.AvailablePhoneNumbers))
	for _, n := range resp.AvailablePhoneNumbers {
		numbers = append(numbers, n.PhoneNumber)
	}
	p.logger.DebugContext(ctx, "Upstream search completed", "region", region, "count", len(numbers))
	return numbers, nil
}

func (p *TwilioProvider) Purchase(ctx context.Context, acct Account, number string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/Accounts/%s/IncomingPhoneNumbers.json",
		p.baseURL, apiVersion, url.PathEscape(acct.SID))
	form := url.Values{"PhoneNumber": {number}}

	body, err := p.do(ctx, acct, http.MethodPost, endpoint, form)
	if err != nil {
		return "", err
	}

	var resp incomingNumberResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Upstream allocated the number but we cannot read the reference.
		// There is no rollback here; surface it as an upstream failure.
		p.logger.ErrorContext(ctx, "Failed to decode purchase response", "number", number, "error", err)
		return "", fmt.Errorf("%w: decoding purchase response: %v", domain.ErrUpstreamUnavailable, err)
	}
	p.logger.InfoContext(ctx, "Upstream purchase completed", "number", number, "upstream_sid", resp.SID)
	return resp.SID, nil
}

func (p *TwilioProvider) Release(ctx context.Context, acct Account, upstreamSID string) error {
	endpoint := fmt.Sprintf("%s/%s/Accounts/%s/IncomingPhoneNumbers/%s.json",
		p.baseURL, apiVersion, url.PathEscape(acct.SID), url.PathEscape(upstreamSID))

	_, err := p.do(ctx, acct, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "Upstream release completed", "upstream_sid", upstreamSID)
	return nil
}

func (p *TwilioProvider) LatestMessage(ctx context.Context, acct Account, number string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/Accounts/%s/Messages.json?To=%s&PageSize=5",
		p.baseURL, apiVersion, url.PathEscape(acct.SID), url.QueryEscape(number))

	body, err := p.do(ctx, acct, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	var resp messageListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decoding message list: %v", domain.ErrUpstreamUnavailable, err)
	}
	if len(resp.Messages) == 0 {
		return "", nil
	}
	// Twilio orders the list most recent first.
	return resp.Messages[0].Body, nil
}

func (p *TwilioProvider) Verify(ctx context.Context, acct Account) (bool, error) {
	endpoint := fmt.Sprintf("%s/%s/Accounts/%s.json", p.baseURL, apiVersion, url.PathEscape(acct.SID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("creating verify request: %w", err)
	}
	req.SetBasicAuth(acct.SID, acct.Token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.WarnContext(ctx, "Credential verification transport failure", "error", err)
		return false, fmt.Errorf("%w: verify: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound {
		// Definitive rejection, not a transport problem.
		return false, nil
	}
	return false, fmt.Errorf("%w: verify status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
}

// do issues a request with basic auth and maps the outcome to the error
// taxonomy: transport failures and 5xx become ErrUpstreamUnavailable, 4xx
// becomes ErrUpstreamRejected.
func (p *TwilioProvider) do(ctx context.Context, acct Account, method, endpoint string, form url.Values) ([]byte, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating twilio request: %w", err)
	}
	req.SetBasicAuth(acct.SID, acct.Token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.WarnContext(ctx, "Twilio request transport failure", "method", method, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", domain.ErrUpstreamUnavailable, readErr)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	errMsg := fmt.Sprintf("status %d", resp.StatusCode)
	var twErr twilioErrorResponse
	if err := json.Unmarshal(body, &twErr); err == nil && twErr.Message != "" {
		errMsg = fmt.Sprintf("status %d, code %d: %s", resp.StatusCode, twErr.Code, twErr.Message)
	}

	if resp.StatusCode >= 500 {
		p.logger.WarnContext(ctx, "Twilio request failed upstream", "method", method, "detail", errMsg)
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamUnavailable, errMsg)
	}
	p.logger.WarnContext(ctx, "Twilio rejected request", "method", method, "detail", errMsg)
	return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamRejected, errMsg)
}
