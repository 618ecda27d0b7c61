package models

import "github.com/calcagent/calcagent/internal/tools"

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// CalculationReply is returned by POST /api/v1/calculate.
//
// ToolUsed, Arguments and Result are either all nil (the model answered
// directly, or the request failed) or all set. Error is only set on failure,
// in which case every other field is empty.
type CalculationReply struct {
	ToolUsed    *string          `json:"toolUsed"`
	Arguments   *tools.Arguments `json:"arguments"`
	Result      *tools.Outcome   `json:"result"`
	FinalAnswer string           `json:"finalAnswer"`
	Error       string           `json:"error,omitempty"`
}

// Failed reports whether the reply describes a failure
func (r *CalculationReply) Failed() bool {
	return r.Error != ""
}
