package ammsim

import (
	"math"
	"math/rand/v2"

	"github.com/wanxinwanxin/ammsim/internal/rng"
)

// RetailSide is the side of a retail order.
type RetailSide int

const (
	RetailBuy RetailSide = iota
	RetailSell
)

func (s RetailSide) String() string {
	if s == RetailBuy {
		return "buy"
	}
	return "sell"
}

// RetailOrder is a single uninformed order, sized in Y units.
type RetailOrder struct {
	Side RetailSide
	Size float64
}

const (
	minArrivalRate = 0.01
	minMeanSize    = 0.01
	minSizeSigma   = 0.01
)

// RetailTrader generates batches of retail orders each step: a Poisson
// arrival count, log-normal sizes, and a Bernoulli side draw.
type RetailTrader struct {
	arrivalRate float64
	meanSize    float64
	sizeSigma   float64
	buyProb     float64

	logMu float64
	r     *rand.Rand
}

// NewRetailTrader constructs a trader. Inputs below small positive floors
// are coerced up so sampling can never fail, an intentional resilience
// measure, not a validation error.
func NewRetailTrader(arrivalRate, meanSize, sizeSigma, buyProb float64, seed *uint64) *RetailTrader {
	arrivalRate = math.Max(arrivalRate, minArrivalRate)
	meanSize = math.Max(meanSize, minMeanSize)
	sizeSigma = math.Max(sizeSigma, minSizeSigma)

	var r *rand.Rand
	if seed != nil {
		r = rng.New(*seed)
	} else {
		r = rng.New(rand.Uint64())
	}

	return &RetailTrader{
		arrivalRate: arrivalRate,
		meanSize:    meanSize,
		sizeSigma:   sizeSigma,
		buyProb:     buyProb,
		logMu:       math.Log(meanSize) - 0.5*sizeSigma*sizeSigma,
		r:           r,
	}
}

// GenerateOrders draws a fresh batch of retail orders for one step.
func (t *RetailTrader) GenerateOrders() []RetailOrder {
	n := rng.Poisson(t.r, t.arrivalRate)
	if n == 0 {
		return nil
	}
	orders := make([]RetailOrder, n)
	for i := 0; i < n; i++ {
		size := rng.LogNormal(t.r, t.logMu, t.sizeSigma)
		side := RetailSell
		if t.r.Float64() < t.buyProb {
			side = RetailBuy
		}
		orders[i] = RetailOrder{Side: side, Size: size}
	}
	return orders
}

// Reset reseeds the RNG; arrival rate, mean size, and sigma are fixed at
// construction and do not need rebuilding.
func (t *RetailTrader) Reset(seed uint64) {
	t.r = rng.New(seed)
}
