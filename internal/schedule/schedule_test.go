package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestBookingDate_TomorrowLiteral tests that "tomorrow" resolves to the next
// day regardless of the current hour.
func TestBookingDate_TomorrowLiteral(t *testing.T) {
	morning := time.Date(2021, 5, 10, 6, 0, 0, 0, time.Local)
	evening := time.Date(2021, 5, 10, 23, 0, 0, 0, time.Local)

	got, err := BookingDate(Tomorrow, morning)
	assert.NoError(t, err)
	assert.Equal(t, "11-05-2021", got)

	got, err = BookingDate(Tomorrow, evening)
	assert.NoError(t, err)
	assert.Equal(t, "11-05-2021", got)
}

// TestBookingDate_Default tests the today-before-8AM rule.
func TestBookingDate_Default(t *testing.T) {
	early := time.Date(2021, 5, 10, 7, 59, 0, 0, time.Local)
	got, err := BookingDate("", early)
	assert.NoError(t, err)
	assert.Equal(t, "10-05-2021", got)

	atEight := time.Date(2021, 5, 10, 8, 0, 0, 0, time.Local)
	got, err = BookingDate("", atEight)
	assert.NoError(t, err)
	assert.Equal(t, "10-05-2021", got)

	late := time.Date(2021, 5, 10, 9, 0, 0, 0, time.Local)
	got, err = BookingDate("", late)
	assert.NoError(t, err)
	assert.Equal(t, "11-05-2021", got)
}

// TestBookingDate_Explicit tests explicit dates and malformed input.
func TestBookingDate_Explicit(t *testing.T) {
	at := time.Date(2021, 5, 10, 12, 0, 0, 0, time.Local)

	got, err := BookingDate("15-05-2021", at)
	assert.NoError(t, err)
	assert.Equal(t, "15-05-2021", got)

	_, err = BookingDate("2021-05-15", at)
	assert.Error(t, err)
}

// TestInQuietHours tests the evening cutoff.
func TestInQuietHours(t *testing.T) {
	assert.False(t, InQuietHours(time.Date(2021, 5, 10, 19, 59, 0, 0, time.Local)))
	assert.False(t, InQuietHours(time.Date(2021, 5, 10, 20, 30, 0, 0, time.Local)))
	assert.True(t, InQuietHours(time.Date(2021, 5, 10, 21, 0, 0, 0, time.Local)))
}

// TestNextWakeTime tests the next-05:30 computation on both sides of the
// boundary.
func TestNextWakeTime(t *testing.T) {
	lateEvening := time.Date(2021, 5, 10, 22, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2021, 5, 11, 5, 30, 0, 0, time.Local), NextWakeTime(lateEvening))

	smallHours := time.Date(2021, 5, 11, 1, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2021, 5, 11, 5, 30, 0, 0, time.Local), NextWakeTime(smallHours))

	pastWake := time.Date(2021, 5, 11, 5, 30, 0, 0, time.Local)
	assert.Equal(t, time.Date(2021, 5, 12, 5, 30, 0, 0, time.Local), NextWakeTime(pastWake))
}
