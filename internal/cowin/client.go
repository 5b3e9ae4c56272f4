// Package cowin is the client for the remote appointment API and the
// auth-retry policy every authenticated call goes through.
package cowin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaxwatch/vax-agent/internal/models"
)

// DefaultBaseURL is the upstream production API.
const DefaultBaseURL = "https://cdn-api.co-vin.in/api/v2"

// The API rejects default Go user agents.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_10_1)"

// TokenProvider yields the current bearer token. The client reads it on every
// request so a retried call never reuses a token captured before a refresh.
type TokenProvider interface {
	Token() string
}

// Client issues requests against the appointment API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	logger     zerolog.Logger
}

// NewClient creates a Client. tokens may be nil for a purely unauthenticated
// client.
func NewClient(baseURL string, timeout time.Duration, tokens TokenProvider, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
		logger: logger,
	}
}

// GenerateOTP asks the API to text an OTP to the account's phone and returns
// the transaction id the validation call must echo back.
func (c *Client) GenerateOTP(ctx context.Context, mobile, secret string) (string, error) {
	req := models.GenerateOTPRequest{Mobile: mobile, Secret: secret}

	var resp models.GenerateOTPResponse
	if err := c.post(ctx, "/auth/generateMobileOTP", req, &resp, false); err != nil {
		return "", err
	}
	if resp.TxnID == "" {
		return "", fmt.Errorf("generateMobileOTP returned no transaction id")
	}
	return resp.TxnID, nil
}

// ValidateOTP completes the OTP transaction and returns the bearer token.
// otpHash must be the sha256 hex digest of the code, not the code itself.
func (c *Client) ValidateOTP(ctx context.Context, otpHash, txnID string) (string, error) {
	req := models.ValidateOTPRequest{OTP: otpHash, TxnID: txnID}

	var resp models.ValidateOTPResponse
	if err := c.post(ctx, "/auth/validateMobileOtp", req, &resp, false); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("validateMobileOtp returned no token")
	}
	return resp.Token, nil
}

// SessionsByPin lists candidate sessions for a postal code on a date
// (DD-MM-YYYY).
func (c *Client) SessionsByPin(ctx context.Context, pincode, date string) (*models.SessionsResponse, error) {
	query := url.Values{
		"pincode": {pincode},
		"date":    {date},
	}

	var resp models.SessionsResponse
	if err := c.get(ctx, "/appointment/sessions/findByPin", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Beneficiaries lists the people the account may book for.
func (c *Client) Beneficiaries(ctx context.Context) (*models.BeneficiariesResponse, error) {
	var resp models.BeneficiariesResponse
	if err := c.get(ctx, "/appointment/beneficiaries", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScheduleAppointment books the slot described by req.
func (c *Client) ScheduleAppointment(ctx context.Context, req models.BookingRequest) (*models.BookingConfirmation, error) {
	var resp models.BookingConfirmation
	if err := c.post(ctx, "/appointment/schedule", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}

	return c.do(req, endpoint, out, true)
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any, authenticated bool) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to serialize request for %s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, endpoint, out, authenticated)
}

func (c *Client) do(req *http.Request, endpoint string, out any, authenticated bool) error {
	req.Header.Set("User-Agent", userAgent)
	if authenticated && c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	c.logger.Trace().Str("endpoint", endpoint).Str("method", req.Method).Msg("Calling API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", endpoint, err)
	}
	return nil
}
