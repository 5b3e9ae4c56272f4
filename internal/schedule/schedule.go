// Package schedule resolves when the agent polls and which calendar day it
// books for.
package schedule

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// DateFormat is the wire format the appointment API expects.
const DateFormat = "02-01-2006"

// Tomorrow is the configuration literal selecting the next calendar day.
const Tomorrow = "tomorrow"

// Slots for the target day open in the early morning; polling after 20:00
// only burns rate limit.
const (
	quietHourStart = 20
	wakeHour       = 5
	wakeMinute     = 30
)

// BookingDate resolves the target date for the whole run. An explicit
// configured date wins, "tomorrow" picks the next day, and with no
// configuration the agent books for today when it is still early morning
// (at or before 08:00) and for tomorrow otherwise.
func BookingDate(configured string, at time.Time) (string, error) {
	day := now.With(at).BeginningOfDay()

	switch configured {
	case "":
		if at.Hour() > 8 {
			day = day.AddDate(0, 0, 1)
		}
		return day.Format(DateFormat), nil
	case Tomorrow:
		return day.AddDate(0, 0, 1).Format(DateFormat), nil
	default:
		parsed, err := time.ParseInLocation(DateFormat, configured, at.Location())
		if err != nil {
			return "", fmt.Errorf("invalid booking date %q (want DD-MM-YYYY or %q): %w",
				configured, Tomorrow, err)
		}
		return parsed.Format(DateFormat), nil
	}
}

// InQuietHours reports whether the agent should sleep instead of starting.
func InQuietHours(at time.Time) bool {
	return at.Hour() > quietHourStart
}

// NextWakeTime returns the next 05:30 wall-clock instant after at.
func NextWakeTime(at time.Time) time.Time {
	wake := now.With(at).BeginningOfDay().
		Add(wakeHour*time.Hour + wakeMinute*time.Minute)
	if !wake.After(at) {
		wake = wake.AddDate(0, 0, 1)
	}
	return wake
}
