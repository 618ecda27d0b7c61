package tools

// MultiplyOperation returns a * b
func MultiplyOperation() Operation {
	return Operation{
		Name:        "multiply",
		Description: "Multiply two numbers. Returns a * b.",
		Params:      operandParams("The first factor", "The second factor"),
		Apply: func(a, b float64) Outcome {
			return Number(a * b)
		},
	}
}
