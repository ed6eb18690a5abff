// Package springmass provides a built-in multi-fidelity benchmark for the
// sampling pilot: the maximum displacement of a mass hanging from a spring
// of uncertain stiffness.
//
// The dynamics follow m z'' = -k z + m g with z(0) = z'(0) = 0, integrated
// with a fixed-step RK4 scheme. Fidelity is the integration time step:
// halving the step doubles the evaluation cost, which gives a natural
// geometric level hierarchy for multilevel estimation.
package springmass

import "fmt"

// Model integrates the spring-mass dynamics at one fidelity.
type Model struct {
	Mass        float64
	Gravity     float64
	InitialTime float64
	FinalTime   float64
	TimeStep    float64
}

// NewModel creates a model with the reference parametrization
// (m = 1.5, g = 9.8, t in [0, 10]) at the given time step.
func NewModel(timeStep float64) *Model {
	return &Model{
		Mass:      1.5,
		Gravity:   9.8,
		FinalTime: 10.0,
		TimeStep:  timeStep,
	}
}

// Cost returns the evaluation cost of the model, proportional to the
// number of integration steps: 1 / timeStep.
func (m *Model) Cost() float64 {
	return 1.0 / m.TimeStep
}

// MaxDisplacement computes the maximum displacement of the object for the
// given spring stiffness.
func (m *Model) MaxDisplacement(stiffness float64) (float64, error) {
	if stiffness <= 0 {
		return 0, fmt.Errorf("stiffness must be positive, got %v", stiffness)
	}
	z, v := 0.0, 0.0
	maxZ := z
	for t := m.InitialTime; t < m.FinalTime; t += m.TimeStep {
		z, v = m.step(z, v, stiffness)
		if z > maxZ {
			maxZ = z
		}
	}
	return maxZ, nil
}

// step advances (z, v) by one RK4 step.
func (m *Model) step(z, v, k float64) (float64, float64) {
	h := m.TimeStep
	accel := func(z float64) float64 {
		return -k*z/m.Mass + m.Gravity
	}

	k1z, k1v := v, accel(z)
	k2z, k2v := v+h/2*k1v, accel(z+h/2*k1z)
	k3z, k3v := v+h/2*k2v, accel(z+h/2*k2z)
	k4z, k4v := v+h*k3v, accel(z+h*k3z)

	z += h / 6 * (k1z + 2*k2z + 2*k3z + k4z)
	v += h / 6 * (k1v + 2*k2v + 2*k3v + k4v)
	return z, v
}

// Evaluate adapts the model to the pilot's evaluator signature: the input
// realization carries the stiffness in its first component.
func (m *Model) Evaluate(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("empty input realization")
	}
	max, err := m.MaxDisplacement(x[0])
	if err != nil {
		return nil, err
	}
	return []float64{max}, nil
}
