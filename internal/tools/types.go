// Package tools defines the arithmetic operations offered to the model and the
// outcome type they produce.
package tools

import (
	"encoding/json"
	"math"
	"strconv"
)

// Param describes one numeric argument of an operation
type Param struct {
	Name        string
	Description string
}

// Operation is a callable arithmetic function the model can select
type Operation struct {
	Name        string
	Description string
	Params      []Param
	Apply       func(a, b float64) Outcome
}

// InputSchema returns the JSON-schema object describing the operation's arguments.
// Every parameter is a required number with no default.
func (o Operation) InputSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(o.Params))
	required := make([]string, 0, len(o.Params))
	for _, p := range o.Params {
		props[p.Name] = map[string]interface{}{
			"type":        "number",
			"description": p.Description,
		}
		required = append(required, p.Name)
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Arguments is the validated argument pair of a tool invocation
type Arguments struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Outcome is the result of executing an operation: either a number or a
// domain error message that is still narrated back to the model.
type Outcome struct {
	value  float64
	errMsg string
}

// Number wraps a numeric result
func Number(v float64) Outcome {
	return Outcome{value: v}
}

// DomainError wraps a computation error that is reported as a value
func DomainError(msg string) Outcome {
	return Outcome{errMsg: msg}
}

// IsError reports whether the outcome is a domain error
func (o Outcome) IsError() bool {
	return o.errMsg != ""
}

// Value returns the numeric value and true, or 0 and false for a domain error
func (o Outcome) Value() (float64, bool) {
	if o.IsError() {
		return 0, false
	}
	return o.value, true
}

// String is the form sent to the model as the tool result
func (o Outcome) String() string {
	if o.IsError() {
		return o.errMsg
	}
	switch {
	case math.IsNaN(o.value):
		return "NaN"
	case math.IsInf(o.value, 1):
		return "Infinity"
	case math.IsInf(o.value, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(o.value, 'f', -1, 64)
}

// MarshalJSON encodes finite numbers as JSON numbers and everything else as
// its string form.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if v, ok := o.Value(); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return json.Marshal(v)
	}
	return json.Marshal(o.String())
}
