package tools

import (
	"errors"
	"fmt"
)

// ErrUnknownTool is returned when an operation name is not in the catalog
var ErrUnknownTool = errors.New("unknown tool")

// Catalog is the fixed, ordered set of operations offered to the model
type Catalog struct {
	ops   []Operation
	index map[string]int
}

// NewCatalog builds a catalog from ops, preserving their order
func NewCatalog(ops ...Operation) *Catalog {
	c := &Catalog{
		ops:   make([]Operation, 0, len(ops)),
		index: make(map[string]int, len(ops)),
	}
	for _, op := range ops {
		if _, dup := c.index[op.Name]; dup {
			continue
		}
		c.index[op.Name] = len(c.ops)
		c.ops = append(c.ops, op)
	}
	return c
}

// Default returns the catalog of the four arithmetic operations
func Default() *Catalog {
	return NewCatalog(
		AddOperation(),
		SubtractOperation(),
		MultiplyOperation(),
		DivideOperation(),
	)
}

// List returns the operations in declaration order
func (c *Catalog) List() []Operation {
	out := make([]Operation, len(c.ops))
	copy(out, c.ops)
	return out
}

// Lookup finds an operation by name
func (c *Catalog) Lookup(name string) (Operation, bool) {
	i, ok := c.index[name]
	if !ok {
		return Operation{}, false
	}
	return c.ops[i], true
}

// Execute runs the named operation against (a, b)
func (c *Catalog) Execute(name string, a, b float64) (Outcome, error) {
	op, ok := c.Lookup(name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return op.Apply(a, b), nil
}
