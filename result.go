package ammsim

import "math/rand/v2"

// SimulationConfig parameterizes one simulation run.
type SimulationConfig struct {
	NSteps       uint32
	InitialPrice float64
	InitialX     float64
	InitialY     float64

	GBMMu    float64
	GBMSigma float64
	GBMDt    float64

	RetailArrivalRate float64
	RetailMeanSize    float64
	RetailSizeSigma   float64
	RetailBuyProb     float64

	// Seed is optional; nil means a non-deterministic run.
	Seed *uint64
}

// HyperparameterVariance describes per-parameter ranges a batch may draw
// simulation configs from, one draw per simulation seed.
type HyperparameterVariance struct {
	RetailMeanSizeMin, RetailMeanSizeMax float64
	VaryRetailMeanSize                   bool

	RetailArrivalRateMin, RetailArrivalRateMax float64
	VaryRetailArrivalRate                      bool

	GBMSigmaMin, GBMSigmaMax float64
	VaryGBMSigma             bool
}

// Apply seeds a fresh PCG from seed and draws every "vary"-flagged
// parameter uniformly from its configured range; unvaried parameters pass
// through from base. The returned config always carries Seed=seed.
func (hv HyperparameterVariance) Apply(base SimulationConfig, seed uint64) SimulationConfig {
	r := rand.New(rand.NewPCG(seed, 0))

	out := base
	if hv.VaryRetailMeanSize {
		out.RetailMeanSize = uniform(r, hv.RetailMeanSizeMin, hv.RetailMeanSizeMax)
	}
	if hv.VaryRetailArrivalRate {
		out.RetailArrivalRate = uniform(r, hv.RetailArrivalRateMin, hv.RetailArrivalRateMax)
	}
	if hv.VaryGBMSigma {
		out.GBMSigma = uniform(r, hv.GBMSigmaMin, hv.GBMSigmaMax)
	}
	out.Seed = &seed
	return out
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// StepResult is a lightweight per-step snapshot for charting.
type StepResult struct {
	Timestamp  uint32
	FairPrice  float64
	SpotPrices map[string]float64
	PnLs       map[string]float64
	Fees       map[string][2]float64 // [bid, ask]
}

// SimResult is the outcome of a single simulation.
type SimResult struct {
	Seed       uint64
	Strategies []string

	PnL              map[string]float64
	Edges            map[string]float64
	InitialFairPrice float64
	InitialReserves  map[string][2]float64 // [x, y]

	Steps []StepResult

	ArbVolumeY    map[string]float64
	RetailVolumeY map[string]float64
	AverageFees   map[string][2]float64 // [bid, ask]
}

// Winner returns the edge-maximising strategy for exactly two strategies; ok
// is false for a draw or for any other strategy count.
func (r SimResult) Winner() (name string, ok bool) {
	if len(r.Strategies) != 2 {
		return "", false
	}
	a, b := r.Strategies[0], r.Strategies[1]
	ea, eb := r.edgeOrPnL(a), r.edgeOrPnL(b)
	switch {
	case ea > eb:
		return a, true
	case eb > ea:
		return b, true
	default:
		return "", false
	}
}

func (r SimResult) edgeOrPnL(name string) float64 {
	if e, ok := r.Edges[name]; ok {
		return e
	}
	return r.PnL[name]
}

// BatchResult is the ordered outcome of every simulation in a batch.
type BatchResult struct {
	Results    []SimResult
	Strategies []string
}

// WinCounts returns (winsA, winsB, draws) for exactly two strategies.
func (b BatchResult) WinCounts() (winsA, winsB, draws uint32) {
	if len(b.Strategies) != 2 {
		return 0, 0, 0
	}
	a, bName := b.Strategies[0], b.Strategies[1]
	for _, res := range b.Results {
		ea, eb := res.edgeOrPnL(a), res.edgeOrPnL(bName)
		switch {
		case ea > eb:
			winsA++
		case eb > ea:
			winsB++
		default:
			draws++
		}
	}
	return winsA, winsB, draws
}

// WinCountsByStrategy returns the number of per-simulation wins for each
// strategy, defined for any N >= 2. WinCounts only covers the two-strategy
// case.
func (b BatchResult) WinCountsByStrategy() map[string]uint32 {
	wins := make(map[string]uint32, len(b.Strategies))
	for _, name := range b.Strategies {
		wins[name] = 0
	}
	for _, res := range b.Results {
		best := ""
		bestEdge := 0.0
		tie := false
		for _, name := range b.Strategies {
			e := res.edgeOrPnL(name)
			if best == "" || e > bestEdge {
				best, bestEdge, tie = name, e, false
			} else if e == bestEdge {
				tie = true
			}
		}
		if !tie && best != "" {
			wins[best]++
		}
	}
	return wins
}

// TotalPnL returns (totalA, totalB) for exactly two strategies.
func (b BatchResult) TotalPnL() (totalA, totalB float64) {
	if len(b.Strategies) != 2 {
		return 0, 0
	}
	a, bName := b.Strategies[0], b.Strategies[1]
	for _, res := range b.Results {
		totalA += res.PnL[a]
		totalB += res.PnL[bName]
	}
	return totalA, totalB
}

// OverallWinner returns the strategy with more simulation wins, defined
// only for exactly two strategies; ok is false for a tie.
func (b BatchResult) OverallWinner() (name string, ok bool) {
	winsA, winsB, _ := b.WinCounts()
	if len(b.Strategies) != 2 {
		return "", false
	}
	switch {
	case winsA > winsB:
		return b.Strategies[0], true
	case winsB > winsA:
		return b.Strategies[1], true
	default:
		return "", false
	}
}
