package security

import (
	"crypto/sha256"
	"fmt"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs calculation events with hashed identifiers
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// CalculationEvent is one handled calculation request
type CalculationEvent struct {
	Message         string
	APIKey          string
	ToolUsed        string
	Success         bool
	ErrMsg          string
	ExecutionTimeMs int64
}

// LogCalculation records a calculation event. The message and API key are
// never logged in clear.
func (a *AuditLogger) LogCalculation(evt CalculationEvent) {
	if !a.enabled {
		return
	}

	e := log.Info().
		Str("event", "calculation_audit").
		Str("message_hash", hashStr(evt.Message)[:16]).
		Str("tool_used", evt.ToolUsed).
		Bool("success", evt.Success).
		Int64("execution_time_ms", evt.ExecutionTimeMs)

	if evt.APIKey != "" {
		e = e.Str("api_key_hash", hashStr(evt.APIKey)[:16])
	}
	if evt.ErrMsg != "" {
		e = e.Str("error", evt.ErrMsg)
	}
	e.Msg("audit")
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
