package input

import "math/rand"

// Variable is one named uncertain input.
type Variable struct {
	Name string
	Dist Distribution
}

// Space is an ordered collection of uncertain variables. It implements
// the pilot's InputSampler: each realization is a vector with one entry
// per variable, in declaration order.
type Space struct {
	variables []Variable
}

// NewSpace creates a Space over the given variables.
func NewSpace(variables ...Variable) *Space {
	return &Space{variables: variables}
}

// Add appends a variable and returns the space for chaining.
func (s *Space) Add(name string, dist Distribution) *Space {
	s.variables = append(s.variables, Variable{Name: name, Dist: dist})
	return s
}

// Dim returns the number of variables.
func (s *Space) Dim() int {
	return len(s.variables)
}

// Names returns the variable names in declaration order.
func (s *Space) Names() []string {
	names := make([]string, len(s.variables))
	for i, v := range s.variables {
		names[i] = v.Name
	}
	return names
}

// Batch draws n independent realizations from the supplied stream.
func (s *Space) Batch(rng *rand.Rand, n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		x := make([]float64, len(s.variables))
		for j, v := range s.variables {
			x[j] = draw(v.Dist, rng)
		}
		out[i] = x
	}
	return out
}
