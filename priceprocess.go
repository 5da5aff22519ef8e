package ammsim

import (
	"math"
	"math/rand/v2"

	"github.com/wanxinwanxin/ammsim/internal/rng"
)

// GBMPriceProcess generates fair prices by Geometric Brownian Motion:
// dS = mu*S*dt + sigma*S*dW.
type GBMPriceProcess struct {
	currentPrice float64
	mu, sigma, dt float64

	driftTerm float64
	volTerm   float64

	r *rand.Rand
}

// NewGBMPriceProcess constructs a process starting at initialPrice. seed, if
// present, makes the price stream deterministic.
func NewGBMPriceProcess(initialPrice, mu, sigma, dt float64, seed *uint64) *GBMPriceProcess {
	var r *rand.Rand
	if seed != nil {
		r = rng.New(*seed)
	} else {
		r = rng.New(rand.Uint64())
	}
	return &GBMPriceProcess{
		currentPrice: initialPrice,
		mu:           mu,
		sigma:        sigma,
		dt:           dt,
		driftTerm:    (mu - 0.5*sigma*sigma) * dt,
		volTerm:      sigma * math.Sqrt(dt),
		r:            r,
	}
}

// CurrentPrice returns the process's current price without advancing it.
func (p *GBMPriceProcess) CurrentPrice() float64 { return p.currentPrice }

// Step draws Z~N(0,1) and advances the price by exp(drift + vol*Z).
func (p *GBMPriceProcess) Step() float64 {
	z := p.r.NormFloat64()
	p.currentPrice *= math.Exp(p.driftTerm + p.volTerm*z)
	return p.currentPrice
}

// Reset restores initialPrice and, if seed is non-nil, reseeds the RNG.
func (p *GBMPriceProcess) Reset(initialPrice float64, seed *uint64) {
	p.currentPrice = initialPrice
	if seed != nil {
		p.r = rng.New(*seed)
	}
}
