// Package rng provides the PCG-seeded random streams the price process and
// retail generator draw from, plus the Poisson and log-normal samplers
// math/rand/v2 does not ship.
package rng

import (
	"math"
	"math/rand/v2"
)

// New returns a *rand.Rand backed by a PCG source seeded deterministically
// from seed. Two Streams constructed with the same seed draw identical
// sequences; different seeds are independent for all practical purposes.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

// Poisson draws a single sample from Poisson(lambda) using Knuth's
// product-of-uniforms algorithm. lambda must be > 0.
func Poisson(r *rand.Rand, lambda float64) int {
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= r.Float64()
		if p <= l {
			return k - 1
		}
	}
}

// LogNormal draws a single sample from a log-normal distribution with
// log-space parameters (mu, sigma): exp(Normal(mu, sigma)).
func LogNormal(r *rand.Rand, mu, sigma float64) float64 {
	z := r.NormFloat64()
	return math.Exp(mu + sigma*z)
}
