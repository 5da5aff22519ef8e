package ammsim

import (
	"errors"
	"fmt"
	"strconv"
)

// strategyName returns the positional name for index i in a strategy slice:
// "submission" for index 0, "normalizer" for index 1, and "Strategy_k" for
// any index k >= 2. Names are positional, never the strategy's own
// getName(), so two strategies reporting the same name still aggregate
// independently.
func strategyName(i int) string {
	switch i {
	case 0:
		return "submission"
	case 1:
		return "normalizer"
	default:
		return "Strategy_" + strconv.Itoa(i)
	}
}

// SimulationEngine runs one simulation: a price process, a retail trader, an
// arbitrageur, a router, and a slice of pools each wrapping its own EVM
// strategy, stepped forward NSteps times.
type SimulationEngine struct {
	cfg SimulationConfig

	pools []*CFMM
	names []string

	price  *GBMPriceProcess
	retail *RetailTrader
	arb    Arbitrageur
	router OrderRouter

	initialReserves  map[string][2]float64
	initialFairPrice float64
}

// NewSimulationEngine builds an engine over strategies, deploying a fresh
// CFMM per strategy using cfg's starting reserves and price process
// parameters. len(strategies) must be >= 2.
func NewSimulationEngine(cfg SimulationConfig, strategies []*EVMStrategy) (*SimulationEngine, error) {
	if len(strategies) < 2 {
		return nil, invalidConfigError(fmt.Errorf("need at least 2 strategies, got %d", len(strategies)))
	}
	if cfg.InitialX <= 0 || cfg.InitialY <= 0 {
		return nil, invalidConfigError(errors.New("initial reserves must be positive"))
	}

	names := make([]string, len(strategies))
	pools := make([]*CFMM, len(strategies))
	initial := make(map[string][2]float64, len(strategies))
	for i, s := range strategies {
		name := strategyName(i)
		names[i] = name
		pools[i] = NewCFMM(name, s, cfg.InitialX, cfg.InitialY)
		initial[name] = [2]float64{cfg.InitialX, cfg.InitialY}
	}

	return &SimulationEngine{
		cfg:              cfg,
		pools:            pools,
		names:            names,
		price:            NewGBMPriceProcess(cfg.InitialPrice, cfg.GBMMu, cfg.GBMSigma, cfg.GBMDt, cfg.Seed),
		retail:           NewRetailTrader(cfg.RetailArrivalRate, cfg.RetailMeanSize, cfg.RetailSizeSigma, cfg.RetailBuyProb, retailSeed(cfg.Seed)),
		arb:              NewArbitrageur(),
		router:           NewOrderRouter(),
		initialReserves:  initial,
		initialFairPrice: cfg.InitialPrice,
	}, nil
}

// retailSeed derives the retail generator's independent sub-seed: seed+1,
// so the price process and retail flow never share a stream even though
// both derive from the same top-level simulation seed.
func retailSeed(seed *uint64) *uint64 {
	if seed == nil {
		return nil
	}
	s := *seed + 1
	return &s
}

// Run initializes every pool, steps the simulation NSteps times, and
// returns the finalized result. An error here is fatal: the caller should
// surface it as a SimulationError rather than record a partial result.
func (e *SimulationEngine) Run() (SimResult, error) {
	for _, p := range e.pools {
		if err := p.Initialize(); err != nil {
			return SimResult{}, evmSimError(err)
		}
	}

	fairPrice := e.price.CurrentPrice()
	steps := make([]StepResult, 0, e.cfg.NSteps)

	arbVolY := make(map[string]float64, len(e.names))
	retailVolY := make(map[string]float64, len(e.names))
	feeSumBid := make(map[string]float64, len(e.names))
	feeSumAsk := make(map[string]float64, len(e.names))
	edges := make(map[string]float64, len(e.names))
	for _, name := range e.names {
		edges[name] = 0
	}

	for t := uint32(0); t < e.cfg.NSteps; t++ {
		fairPrice = e.price.Step()
		timestamp := uint64(t)

		for _, res := range e.arb.ArbitrageAll(e.pools, fairPrice, timestamp) {
			arbVolY[res.PoolName] += res.AmountY
			edges[res.PoolName] -= res.Profit
		}

		orders := e.retail.GenerateOrders()
		for _, trade := range e.router.RouteOrders(orders, e.pools, fairPrice, timestamp) {
			retailVolY[trade.PoolName] += trade.AmountY
			if trade.AmmBuysX {
				edges[trade.PoolName] += trade.AmountX*fairPrice - trade.AmountY
			} else {
				edges[trade.PoolName] += trade.AmountY - trade.AmountX*fairPrice
			}
		}

		step := StepResult{
			Timestamp:  t,
			FairPrice:  fairPrice,
			SpotPrices: make(map[string]float64, len(e.pools)),
			PnLs:       make(map[string]float64, len(e.pools)),
			Fees:       make(map[string][2]float64, len(e.pools)),
		}
		for _, p := range e.pools {
			step.SpotPrices[p.Name] = p.SpotPrice()
			step.PnLs[p.Name] = e.pnlOf(p, fairPrice)
			fees := p.Fees()
			step.Fees[p.Name] = [2]float64{fees.BidFee.ToFloat64(), fees.AskFee.ToFloat64()}
			feeSumBid[p.Name] += fees.BidFee.ToFloat64()
			feeSumAsk[p.Name] += fees.AskFee.ToFloat64()
		}
		steps = append(steps, step)
	}

	pnl := make(map[string]float64, len(e.pools))
	avgFees := make(map[string][2]float64, len(e.pools))
	for _, p := range e.pools {
		pnl[p.Name] = e.pnlOf(p, fairPrice)
		if e.cfg.NSteps > 0 {
			n := float64(e.cfg.NSteps)
			avgFees[p.Name] = [2]float64{feeSumBid[p.Name] / n, feeSumAsk[p.Name] / n}
		}
	}

	seed := uint64(0)
	if e.cfg.Seed != nil {
		seed = *e.cfg.Seed
	}

	return SimResult{
		Seed:             seed,
		Strategies:       e.names,
		PnL:              pnl,
		Edges:            edges,
		InitialFairPrice: e.cfg.InitialPrice,
		InitialReserves:  e.initialReserves,
		Steps:            steps,
		ArbVolumeY:       arbVolY,
		RetailVolumeY:    retailVolY,
		AverageFees:      avgFees,
	}, nil
}

// pnlOf values a pool's reserves plus its accumulated fee buckets
// mark-to-market at fairPrice, and subtracts the value of its starting
// reserves at the initial fair price: (x*f + y + accX*f + accY) -
// (x0*f0 + y0). The fee bucket is marked at the current step's fair
// price, never the initial one.
func (e *SimulationEngine) pnlOf(p *CFMM, fairPrice float64) float64 {
	initial := e.initialReserves[p.Name]
	x, y := p.Reserves()
	accX, accY := p.AccumulatedFees()
	currentValue := x*fairPrice + y + accX*fairPrice + accY
	initialValue := initial[0]*e.initialFairPrice + initial[1]
	return currentValue - initialValue
}
