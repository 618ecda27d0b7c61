package tools

// AddOperation returns a + b
func AddOperation() Operation {
	return Operation{
		Name:        "add",
		Description: "Add two numbers together. Returns a + b.",
		Params:      operandParams("The first number", "The second number"),
		Apply: func(a, b float64) Outcome {
			return Number(a + b)
		},
	}
}

func operandParams(aDesc, bDesc string) []Param {
	return []Param{
		{Name: "a", Description: aDesc},
		{Name: "b", Description: bDesc},
	}
}
