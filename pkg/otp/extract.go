package otp

import "regexp"

var otpPattern = regexp.MustCompile(`\d{6}`)

// Extract pulls the first 6-digit sequence out of a free-text message, as sent
// by the upstream SMS. Returns false when the message carries no code.
func Extract(message string) (string, bool) {
	match := otpPattern.FindString(message)
	if match == "" {
		return "", false
	}
	return match, true
}
