package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse is returned when the endpoint answers without any choice
var ErrEmptyResponse = errors.New("model returned no choices")

// APIError is a non-success HTTP status returned by the model endpoint
type APIError struct {
	Provider   string
	StatusCode int
	Code       string // provider error code, e.g. "insufficient_quota"
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, msg)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsRateLimited reports a throttling status that is not a billing problem
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests && !isQuotaCode(apiErr.Code)
}

// IsQuotaExceeded reports a billing/payment-required failure. OpenAI signals
// an exhausted quota with a 429 carrying the insufficient_quota code;
// Anthropic uses the billing_error type.
func IsQuotaExceeded(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusPaymentRequired || isQuotaCode(apiErr.Code)
}

func isQuotaCode(code string) bool {
	switch code {
	case "insufficient_quota", "billing_not_active", "billing_error":
		return true
	}
	return false
}
