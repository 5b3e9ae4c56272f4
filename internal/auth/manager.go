// Package auth owns the OTP login protocol and the token refresh policy.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaxwatch/vax-agent/pkg/token"
)

// ErrAuthExhausted means every authentication attempt failed. Fatal: without
// a token the agent cannot do anything.
var ErrAuthExhausted = errors.New("failed to authenticate after exhausting attempts")

// DefaultOtpTimeout is how long one login attempt waits for the user's OTP to
// arrive through a receiver.
const DefaultOtpTimeout = 180 * time.Second

// DefaultMaxAttempts bounds full authenticate cycles per refresh.
const DefaultMaxAttempts = 5

// OtpAwaiter is the pull side of the OTP handoff.
type OtpAwaiter interface {
	Await(timeout time.Duration) (string, error)
}

// AuthAPI is the slice of the remote client the login protocol needs.
type AuthAPI interface {
	GenerateOTP(ctx context.Context, mobile, secret string) (string, error)
	ValidateOTP(ctx context.Context, otpHash, txnID string) (string, error)
}

// Manager drives request-OTP → await-OTP → validate-OTP → token, persisting
// the result so restarts inside the freshness window skip the whole dance.
type Manager struct {
	mobile      string
	secret      string
	api         AuthAPI
	otpChannel  OtpAwaiter
	store       token.StoreInterface
	logger      zerolog.Logger
	otpTimeout  time.Duration
	maxAttempts int

	// Serializes login cycles; at most one live OTP transaction at a time.
	mu sync.Mutex
}

// NewManager initializes a Manager for the given credential.
func NewManager(mobile, secret string, api AuthAPI, otpChannel OtpAwaiter,
	store token.StoreInterface, otpTimeout time.Duration, maxAttempts int,
	logger zerolog.Logger) *Manager {

	if otpTimeout <= 0 {
		otpTimeout = DefaultOtpTimeout
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Manager{
		mobile:      mobile,
		secret:      secret,
		api:         api,
		otpChannel:  otpChannel,
		store:       store,
		logger:      logger,
		otpTimeout:  otpTimeout,
		maxAttempts: maxAttempts,
	}
}

// Authenticate reuses a persisted fresh token when one exists and otherwise
// runs the full OTP login cycle.
func (m *Manager) Authenticate() (string, error) {
	if _, _, err := m.store.Load(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to load persisted token, authenticating from scratch")
	}

	if m.store.IsFresh() {
		m.logger.Info().Msg("Reusing saved token from file")
		return m.store.Token(), nil
	}

	return m.Refresh()
}

// Refresh unconditionally re-runs the login cycle, ignoring any stored token;
// it is what the retry wrapper calls once the server has rejected the current
// one. Bounded attempts, no delay between them: backoff between business-call
// retries lives in the retry policy, not here.
func (m *Manager) Refresh() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info().Msg("Refreshing token")

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		tok, err := m.fetchToken()
		if err == nil {
			return tok, nil
		}
		m.logger.Error().Err(err).Int("attempt", attempt).Msg("Authentication attempt failed")
	}

	m.logger.Error().Int("attempts", m.maxAttempts).Msg("Failed to obtain an OTP token")
	return "", ErrAuthExhausted
}

// fetchToken runs one full OTP transaction.
func (m *Manager) fetchToken() (string, error) {
	ctx := context.Background()

	m.logger.Info().Msg("Fetching new token")

	txnID, err := m.api.GenerateOTP(ctx, m.mobile, m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	m.logger.Info().Str("txn_id", txnID).Dur("timeout", m.otpTimeout).Msg("Waiting for OTP")

	code, err := m.otpChannel.Await(m.otpTimeout)
	if err != nil {
		return "", err
	}

	tok, err := m.api.ValidateOTP(ctx, hashOTP(code), txnID)
	if err != nil {
		return "", fmt.Errorf("failed to validate otp: %w", err)
	}

	if err := m.store.Save(tok); err != nil {
		// The token is still good for this run even if persisting it failed.
		m.logger.Warn().Err(err).Msg("Failed to persist token")
	}

	m.logger.Info().Msg("Authenticated successfully")
	return tok, nil
}

// hashOTP produces the sha256 hex digest the validate endpoint expects; the
// raw code never leaves the process.
func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
