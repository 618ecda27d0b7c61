package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/calcagent/calcagent/internal/agent"
	"github.com/calcagent/calcagent/internal/models"
	"github.com/calcagent/calcagent/internal/security"
)

// Calculator runs the calculation protocol for one message
type Calculator interface {
	Handle(ctx context.Context, message string) (*models.CalculationReply, error)
}

// CalculateHandler handles POST /api/v1/calculate
type CalculateHandler struct {
	calc         Calculator
	auditLogger  *security.AuditLogger
	apiKeyHeader string
	maxBodyBytes int64
}

// NewCalculateHandler rejects bodies larger than maxBodyBytes before decoding.
// A non-positive limit disables the cap.
func NewCalculateHandler(calc Calculator, auditLogger *security.AuditLogger, apiKeyHeader string, maxBodyBytes int64) *CalculateHandler {
	return &CalculateHandler{
		calc:         calc,
		auditLogger:  auditLogger,
		apiKeyHeader: apiKeyHeader,
		maxBodyBytes: maxBodyBytes,
	}
}

// MaxBodyBytes sizes the request body cap for messages of up to maxMessageRunes
// characters. Each character may be escaped as a six-byte \uXXXX sequence.
func MaxBodyBytes(maxMessageRunes int) int64 {
	return int64(maxMessageRunes)*6 + 1024
}

// Calculate handles POST /api/v1/calculate
func (h *CalculateHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req models.CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			models.WriteJSON(w, http.StatusRequestEntityTooLarge, &models.CalculationReply{
				Error: fmt.Sprintf("%s: request body exceeds %d bytes", agent.ErrInvalidInput, tooLarge.Limit),
			})
			return
		}
		models.WriteJSON(w, http.StatusBadRequest, &models.CalculationReply{
			Error: fmt.Sprintf("%s: invalid request body: %v", agent.ErrInvalidInput, err),
		})
		return
	}

	start := time.Now()
	reply, err := h.calc.Handle(r.Context(), req.Message)
	if reply == nil {
		reply = &models.CalculationReply{}
		if err != nil {
			reply.Error = agent.ErrorMessage(err)
		}
	}

	if h.auditLogger != nil {
		evt := security.CalculationEvent{
			Message:         req.Message,
			APIKey:          r.Header.Get(h.apiKeyHeader),
			Success:         err == nil && !reply.Failed(),
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}
		if reply.ToolUsed != nil {
			evt.ToolUsed = *reply.ToolUsed
		}
		if err != nil {
			evt.ErrMsg = err.Error()
		}
		h.auditLogger.LogCalculation(evt)
	}

	models.WriteJSON(w, agent.StatusCode(err), reply)
}
