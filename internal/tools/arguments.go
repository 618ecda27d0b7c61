package tools

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedArguments is returned when a tool invocation's argument payload
// is not an object with numeric a and b.
var ErrMalformedArguments = errors.New("malformed arguments")

// ParseArguments decodes the raw JSON argument payload of a tool invocation.
// Both fields must be present JSON numbers; nothing is coerced or defaulted.
func ParseArguments(raw string) (Arguments, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Arguments{}, fmt.Errorf("%w: %v", ErrMalformedArguments, err)
	}
	if fields == nil {
		return Arguments{}, fmt.Errorf("%w: expected an object", ErrMalformedArguments)
	}

	a, err := numberField(fields, "a")
	if err != nil {
		return Arguments{}, err
	}
	b, err := numberField(fields, "b")
	if err != nil {
		return Arguments{}, err
	}
	return Arguments{A: a, B: b}, nil
}

func numberField(fields map[string]json.RawMessage, name string) (float64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrMalformedArguments, name)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedArguments, name, err)
	}
	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %q must be a number, got %s", ErrMalformedArguments, name, string(raw))
	}
	return n, nil
}
