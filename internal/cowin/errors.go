package cowin

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRetryExhausted means the auth-retry bound was exceeded on a business
// call. Fatal: the process cannot make authenticated progress.
var ErrRetryExhausted = errors.New("api call failed after exhausting auth retries")

// APIError is any non-2xx response from the remote API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsAuthError reports whether err is an authorization-class API failure, the
// only class the retry wrapper treats as retryable.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
