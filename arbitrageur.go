package ammsim

import "math"

// ArbResult records an executed arbitrage trade.
type ArbResult struct {
	PoolName string
	Profit   float64
	Side     RetailSide // Buy: pool buys X. Sell: pool sells X.
	AmountX  float64
	AmountY  float64
}

// Arbitrageur extracts profit from a mispriced pool using the closed-form
// optimal trade size for a fee-on-input constant-product pool.
type Arbitrageur struct{}

// NewArbitrageur returns a (stateless) arbitrageur.
func NewArbitrageur() Arbitrageur { return Arbitrageur{} }

// ExecuteArb finds and executes the profit-maximising trade against pool at
// fairPrice, or returns nil if spot already equals fair price or no
// profitable trade exists.
func (Arbitrageur) ExecuteArb(pool *CFMM, fairPrice float64, timestamp uint64) *ArbResult {
	rx, ry := pool.Reserves()
	spot := ry / rx

	switch {
	case spot < fairPrice:
		return computeBuyArb(pool, fairPrice, timestamp)
	case spot > fairPrice:
		return computeSellArb(pool, fairPrice, timestamp)
	default:
		return nil
	}
}

// computeBuyArb handles the pool-underprices-X case: the arbitrageur buys X
// from the pool (the pool sells X). Optimal: deltaXOut = x - sqrt(k/(gamma*p)).
func computeBuyArb(pool *CFMM, fairPrice float64, timestamp uint64) *ArbResult {
	rx, ry := pool.Reserves()
	k := rx * ry
	gamma := 1 - pool.Fees().AskFee.ToFloat64()
	if gamma <= 0 || fairPrice <= 0 {
		return nil
	}

	newX := math.Sqrt(k / (gamma * fairPrice))
	amountX := rx - newX
	if amountX <= 0 {
		return nil
	}
	amountX = math.Min(amountX, rx*0.99)

	totalY, _ := pool.QuoteSellX(amountX)
	if totalY <= 0 {
		return nil
	}
	profit := amountX*fairPrice - totalY
	if profit <= 0 {
		return nil
	}

	if pool.ExecuteSellX(amountX, timestamp) == nil {
		return nil
	}
	return &ArbResult{PoolName: pool.Name, Profit: profit, Side: RetailSell, AmountX: amountX, AmountY: totalY}
}

// computeSellArb handles the pool-overprices-X case: the arbitrageur sells X
// to the pool (the pool buys X). Optimal gross input:
// deltaXIn = (sqrt(k*gamma/p) - x) / gamma.
func computeSellArb(pool *CFMM, fairPrice float64, timestamp uint64) *ArbResult {
	rx, ry := pool.Reserves()
	k := rx * ry
	gamma := 1 - pool.Fees().BidFee.ToFloat64()
	if gamma <= 0 || fairPrice <= 0 {
		return nil
	}

	xVirtual := math.Sqrt(k * gamma / fairPrice)
	netX := xVirtual - rx
	amountX := netX / gamma
	if amountX <= 0 {
		return nil
	}

	yOut, _ := pool.QuoteBuyX(amountX)
	if yOut <= 0 {
		return nil
	}
	profit := yOut - amountX*fairPrice
	if profit <= 0 {
		return nil
	}

	if pool.ExecuteBuyX(amountX, timestamp) == nil {
		return nil
	}
	return &ArbResult{PoolName: pool.Name, Profit: profit, Side: RetailBuy, AmountX: amountX, AmountY: yOut}
}

// ArbitrageAll runs ExecuteArb against every pool in order.
func (a Arbitrageur) ArbitrageAll(pools []*CFMM, fairPrice float64, timestamp uint64) []ArbResult {
	var results []ArbResult
	for _, p := range pools {
		if r := a.ExecuteArb(p, fairPrice, timestamp); r != nil {
			results = append(results, *r)
		}
	}
	return results
}
