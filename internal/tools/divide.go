package tools

// DivisionByZero is the outcome of dividing by zero. It is a value, not a
// failure, so the model can narrate it.
const DivisionByZero = "Error: division by zero"

// DivideOperation returns a / b, or the DivisionByZero outcome when b is 0
func DivideOperation() Operation {
	return Operation{
		Name:        "divide",
		Description: "Divide the first number by the second. Returns a / b.",
		Params:      operandParams("The dividend", "The divisor"),
		Apply: func(a, b float64) Outcome {
			if b == 0 {
				return DomainError(DivisionByZero)
			}
			return Number(a / b)
		},
	}
}
