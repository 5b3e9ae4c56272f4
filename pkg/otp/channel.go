package otp

import (
	"errors"
	"sync"
	"time"
)

// ErrOtpTimeout is returned when no OTP arrives within the wait window.
var ErrOtpTimeout = errors.New("timed out waiting for otp")

// Channel is a single-slot handoff between the inbound OTP receivers and the
// authentication flow. Only the most recent submission is retained: a value
// submitted while an older one is still unconsumed replaces it.
type Channel struct {
	mu   sync.Mutex
	slot chan string
}

// NewChannel creates an empty OTP channel.
func NewChannel() *Channel {
	return &Channel{
		slot: make(chan string, 1),
	}
}

// Submit stores the OTP without blocking, overwriting any unconsumed value.
func (c *Channel) Submit(otp string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Drain a stale value so the latest submission always wins.
	select {
	case <-c.slot:
	default:
	}
	c.slot <- otp
}

// Await blocks until an OTP is available or the timeout elapses. A delivered
// value is consumed; no other waiter will observe it.
func (c *Channel) Await(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case otp := <-c.slot:
		return otp, nil
	case <-timer.C:
		return "", ErrOtpTimeout
	}
}
