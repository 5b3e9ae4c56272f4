package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vaxwatch/vax-agent/pkg/otp"
)

type mockAuthAPI struct {
	mock.Mock
}

func (m *mockAuthAPI) GenerateOTP(ctx context.Context, mobile, secret string) (string, error) {
	args := m.Called(ctx, mobile, secret)
	return args.String(0), args.Error(1)
}

func (m *mockAuthAPI) ValidateOTP(ctx context.Context, otpHash, txnID string) (string, error) {
	args := m.Called(ctx, otpHash, txnID)
	return args.String(0), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load() (string, time.Time, error) {
	args := m.Called()
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockStore) Save(token string) error {
	return m.Called(token).Error(0)
}

func (m *mockStore) Token() string {
	return m.Called().String(0)
}

func (m *mockStore) IsFresh() bool {
	return m.Called().Bool(0)
}

func otpDigest(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// TestManager_Authenticate_ReusesFreshToken tests that a fresh stored token
// short-circuits the OTP cycle entirely.
func TestManager_Authenticate_ReusesFreshToken(t *testing.T) {
	api := new(mockAuthAPI)
	store := new(mockStore)
	channel := otp.NewChannel()

	store.On("Load").Return("saved-token", time.Now(), nil)
	store.On("IsFresh").Return(true)
	store.On("Token").Return("saved-token")

	m := NewManager("9999999999", "secret", api, channel, store, time.Second, 5, zerolog.Nop())

	tok, err := m.Authenticate()

	assert.NoError(t, err)
	assert.Equal(t, "saved-token", tok)
	api.AssertNotCalled(t, "GenerateOTP", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

// TestManager_Authenticate_FullCycle tests the generate → await → validate →
// save path, including the sha256 digest of the OTP.
func TestManager_Authenticate_FullCycle(t *testing.T) {
	api := new(mockAuthAPI)
	store := new(mockStore)
	channel := otp.NewChannel()

	store.On("Load").Return("", time.Time{}, nil)
	store.On("IsFresh").Return(false)
	store.On("Save", "new-token").Return(nil)

	api.On("GenerateOTP", mock.Anything, "9999999999", "secret").Return("txn-1", nil)
	api.On("ValidateOTP", mock.Anything, otpDigest("123456"), "txn-1").Return("new-token", nil)

	channel.Submit("123456")

	m := NewManager("9999999999", "secret", api, channel, store, time.Second, 5, zerolog.Nop())

	tok, err := m.Authenticate()

	assert.NoError(t, err)
	assert.Equal(t, "new-token", tok)
	api.AssertExpectations(t)
	store.AssertExpectations(t)
}

// TestManager_Refresh_IgnoresFreshToken tests that Refresh re-authenticates
// even when the stored token is still inside the freshness window.
func TestManager_Refresh_IgnoresFreshToken(t *testing.T) {
	api := new(mockAuthAPI)
	store := new(mockStore)
	channel := otp.NewChannel()

	store.On("Save", "new-token").Return(nil)
	api.On("GenerateOTP", mock.Anything, "9999999999", "secret").Return("txn-1", nil)
	api.On("ValidateOTP", mock.Anything, otpDigest("654321"), "txn-1").Return("new-token", nil)

	channel.Submit("654321")

	m := NewManager("9999999999", "secret", api, channel, store, time.Second, 5, zerolog.Nop())

	tok, err := m.Refresh()

	assert.NoError(t, err)
	assert.Equal(t, "new-token", tok)
	store.AssertNotCalled(t, "IsFresh")
}

// TestManager_Refresh_ExhaustsAttempts tests that bounded OTP timeouts end in
// ErrAuthExhausted.
func TestManager_Refresh_ExhaustsAttempts(t *testing.T) {
	api := new(mockAuthAPI)
	store := new(mockStore)
	channel := otp.NewChannel()

	api.On("GenerateOTP", mock.Anything, "9999999999", "secret").Return("txn-1", nil)

	m := NewManager("9999999999", "secret", api, channel, store, 5*time.Millisecond, 3, zerolog.Nop())

	// Nothing is ever submitted; every attempt times out waiting.
	_, err := m.Refresh()

	assert.ErrorIs(t, err, ErrAuthExhausted)
	api.AssertNumberOfCalls(t, "GenerateOTP", 3)
	api.AssertNotCalled(t, "ValidateOTP", mock.Anything, mock.Anything, mock.Anything)
}

// TestManager_Refresh_RetriesAfterRemoteRejection tests that a rejected OTP
// validation starts a fresh cycle instead of failing outright.
func TestManager_Refresh_RetriesAfterRemoteRejection(t *testing.T) {
	api := new(mockAuthAPI)
	store := new(mockStore)
	channel := otp.NewChannel()

	store.On("Save", "good-token").Return(nil)

	// The code is submitted as each transaction opens so the manager's wait
	// always finds exactly the matching OTP.
	api.On("GenerateOTP", mock.Anything, "9999999999", "secret").Return("txn-1", nil).Once().
		Run(func(mock.Arguments) { channel.Submit("111111") })
	api.On("GenerateOTP", mock.Anything, "9999999999", "secret").Return("txn-2", nil).Once().
		Run(func(mock.Arguments) { channel.Submit("222222") })
	api.On("ValidateOTP", mock.Anything, otpDigest("111111"), "txn-1").
		Return("", errors.New("otp rejected")).Once()
	api.On("ValidateOTP", mock.Anything, otpDigest("222222"), "txn-2").
		Return("good-token", nil).Once()

	m := NewManager("9999999999", "secret", api, channel, store, 200*time.Millisecond, 5, zerolog.Nop())

	tok, err := m.Refresh()

	assert.NoError(t, err)
	assert.Equal(t, "good-token", tok)
	api.AssertExpectations(t)
}
