// Package input provides uncertain-input samplers for the sampling pilot.
// Distributions are backed by gonum's distuv and sampled by inverse-CDF
// transform of the pilot's per-level random streams, so a run's draws are
// a pure function of the master seed.
package input

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution maps a uniform draw to a realization through its quantile
// function. All continuous distuv distributions satisfy it.
type Distribution interface {
	Quantile(p float64) float64
}

// Uniform returns a uniform distribution on [min, max].
func Uniform(min, max float64) Distribution {
	return distuv.Uniform{Min: min, Max: max}
}

// Normal returns a normal distribution with the given mean and standard
// deviation.
func Normal(mu, sigma float64) Distribution {
	return distuv.Normal{Mu: mu, Sigma: sigma}
}

// LogNormal returns a log-normal distribution: exp(N(mu, sigma)).
func LogNormal(mu, sigma float64) Distribution {
	return distuv.LogNormal{Mu: mu, Sigma: sigma}
}

// Triangular returns a triangular distribution on [a, b] with mode c.
func Triangular(a, b, c float64) Distribution {
	// The source argument only feeds distuv's own Rand; sampling here goes
	// through Quantile, so none is needed.
	return distuv.NewTriangle(a, b, c, nil)
}

// draw samples one realization by inverse-CDF transform. A zero uniform
// draw is nudged off the boundary: some quantile functions diverge at 0.
func draw(dist Distribution, rng *rand.Rand) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 1e-300
	}
	return dist.Quantile(u)
}
