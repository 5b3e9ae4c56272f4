package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestChannel_SubmitThenAwait_ReturnsImmediately tests that a submitted OTP is
// delivered without waiting.
func TestChannel_SubmitThenAwait_ReturnsImmediately(t *testing.T) {
	c := NewChannel()
	c.Submit("123456")

	start := time.Now()
	otp, err := c.Await(180 * time.Second)

	assert.NoError(t, err)
	assert.Equal(t, "123456", otp)
	assert.Less(t, time.Since(start), time.Second)
}

// TestChannel_Await_TimesOut tests that Await fails after roughly the timeout
// when nothing was submitted.
func TestChannel_Await_TimesOut(t *testing.T) {
	c := NewChannel()

	start := time.Now()
	_, err := c.Await(50 * time.Millisecond)

	assert.ErrorIs(t, err, ErrOtpTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

// TestChannel_Submit_OverwritesUnconsumedValue tests that only the latest
// submission is retained.
func TestChannel_Submit_OverwritesUnconsumedValue(t *testing.T) {
	c := NewChannel()
	c.Submit("111111")
	c.Submit("222222")

	otp, err := c.Await(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "222222", otp)

	// Slot was cleared by the delivery above.
	_, err = c.Await(20 * time.Millisecond)
	assert.ErrorIs(t, err, ErrOtpTimeout)
}

// TestChannel_Submit_ReleasesBlockedWaiter tests the concurrent handoff path.
func TestChannel_Submit_ReleasesBlockedWaiter(t *testing.T) {
	c := NewChannel()

	done := make(chan string, 1)
	go func() {
		otp, err := c.Await(2 * time.Second)
		assert.NoError(t, err)
		done <- otp
	}()

	time.Sleep(20 * time.Millisecond)
	c.Submit("654321")

	select {
	case otp := <-done:
		assert.Equal(t, "654321", otp)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was never released")
	}
}

// TestExtract tests 6-digit code extraction from SMS bodies.
func TestExtract(t *testing.T) {
	otp, ok := Extract("Your OTP to register/access CoWIN is 987654. It will expire in 3 minutes.")
	assert.True(t, ok)
	assert.Equal(t, "987654", otp)

	_, ok = Extract("no code in this message")
	assert.False(t, ok)

	// First 6-digit run wins.
	otp, ok = Extract("codes 123456 and 999999")
	assert.True(t, ok)
	assert.Equal(t, "123456", otp)
}
