package agent

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/calcagent/calcagent/internal/llm"
)

// Failure taxonomy of a calculation. Errors returned by Handle wrap exactly
// one of these. Division by zero is not in the list: it is a result.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("AI service unavailable")
	ErrRateLimited         = errors.New("rate limited by AI service")
	ErrQuotaExceeded       = errors.New("AI service quota exceeded")
	ErrMalformedToolCall   = errors.New("malformed tool call")
	ErrUnknownTool         = errors.New("unknown tool")
	ErrMisconfigured       = errors.New("AI service is not configured")
)

const (
	rateLimitedMessage   = "Rate limits exceeded, please try again later."
	quotaExceededMessage = "Payment required, please add funds to your AI workspace."
)

// StatusCode maps a Handle error onto the HTTP status returned to the caller
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage is the user-facing text placed in the reply's error field
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return rateLimitedMessage
	case errors.Is(err, ErrQuotaExceeded):
		return quotaExceededMessage
	}
	return err.Error()
}

// classifyUpstream sorts a model endpoint failure into the taxonomy.
// Timeouts and cancellations count as unavailability.
func classifyUpstream(round int, err error) error {
	switch {
	case llm.IsQuotaExceeded(err):
		return fmt.Errorf("%w: round %d: %w", ErrQuotaExceeded, round, err)
	case llm.IsRateLimited(err):
		return fmt.Errorf("%w: round %d: %w", ErrRateLimited, round, err)
	default:
		return fmt.Errorf("%w: round %d: %w", ErrUpstreamUnavailable, round, err)
	}
}
