package tools

// SubtractOperation returns a - b. The minuend comes first, so
// "subtract 15 from 42" is a=42, b=15.
func SubtractOperation() Operation {
	return Operation{
		Name:        "subtract",
		Description: "Subtract the second number from the first. Returns a - b.",
		Params:      operandParams("The number to subtract from (minuend)", "The number to subtract (subtrahend)"),
		Apply: func(a, b float64) Outcome {
			return Number(a - b)
		},
	}
}
