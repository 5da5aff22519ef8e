package ammsim

import "math"

// RoutedTrade records one pool's leg of a routed retail order.
type RoutedTrade struct {
	PoolName string
	AmountY  float64
	AmountX  float64
	AmmBuysX bool
}

const (
	routerMinAmount            = 0.0001
	routerMaxIterations        = 10
	routerConvergenceThreshold = 0.001
)

// OrderRouter splits retail orders across pools so post-trade marginal
// prices equalise: closed-form for exactly two pools, an iterative
// pairwise-rebalance heuristic for three or more.
type OrderRouter struct{}

// NewOrderRouter returns a (stateless) router.
func NewOrderRouter() OrderRouter { return OrderRouter{} }

// RouteOrders routes each order in orders against pools in sequence,
// returning every executed leg.
func (r OrderRouter) RouteOrders(orders []RetailOrder, pools []*CFMM, fairPrice float64, timestamp uint64) []RoutedTrade {
	var all []RoutedTrade
	for _, o := range orders {
		all = append(all, r.RouteOrder(o, pools, fairPrice, timestamp)...)
	}
	return all
}

// RouteOrder routes a single order across pools.
func (r OrderRouter) RouteOrder(order RetailOrder, pools []*CFMM, fairPrice float64, timestamp uint64) []RoutedTrade {
	switch len(pools) {
	case 0:
		return nil
	case 1:
		return routeToSingle(order, pools[0], fairPrice, timestamp)
	case 2:
		return routeToTwo(order, pools[0], pools[1], fairPrice, timestamp)
	default:
		return routeToMany(order, pools, fairPrice, timestamp)
	}
}

func routeToSingle(order RetailOrder, pool *CFMM, fairPrice float64, timestamp uint64) []RoutedTrade {
	if order.Side == RetailBuy {
		tr := pool.ExecuteBuyXWithY(order.Size, timestamp)
		return tradesFrom(pool, tr, false)
	}
	deltaX := order.Size / fairPrice
	tr := pool.ExecuteBuyX(deltaX, timestamp)
	return tradesFrom(pool, tr, true)
}

func tradesFrom(pool *CFMM, tr *TradeResult, ammBuysX bool) []RoutedTrade {
	if tr == nil {
		return nil
	}
	return []RoutedTrade{{
		PoolName: pool.Name,
		AmountY:  tr.Trade.AmountY.ToFloat64(),
		AmountX:  tr.Trade.AmountX.ToFloat64(),
		AmmBuysX: ammBuysX,
	}}
}

// splitBuyTwo computes the closed-form Y-split of a total Y=total buy order
// across two pools using ask fees: with A_i = sqrt(x_i*gamma_i*y_i) and
// r = A1/A2, y1* = (r*(y2 + gamma2*Y) - y1) / (gamma1 + r*gamma2), clamped
// to [0, Y].
func splitBuyTwo(pool1, pool2 *CFMM, total float64) (y1, y2 float64) {
	x1, y1r := pool1.Reserves()
	x2, y2r := pool2.Reserves()
	gamma1 := 1 - pool1.Fees().AskFee.ToFloat64()
	gamma2 := 1 - pool2.Fees().AskFee.ToFloat64()

	a1 := math.Sqrt(x1 * gamma1 * y1r)
	a2 := math.Sqrt(x2 * gamma2 * y2r)

	if a2 == 0 {
		return total, 0
	}
	rRatio := a1 / a2

	denom := gamma1 + rRatio*gamma2
	if denom == 0 {
		return total / 2, total / 2
	}
	y1Star := (rRatio*(y2r+gamma2*total) - y1r) / denom
	y1Star = math.Max(0, math.Min(total, y1Star))
	return y1Star, total - y1Star
}

// splitSellTwo computes the closed-form X-split of a total X=total sell
// order across two pools using bid fees.
func splitSellTwo(pool1, pool2 *CFMM, total float64) (x1, x2 float64) {
	x1r, y1r := pool1.Reserves()
	x2r, y2r := pool2.Reserves()
	gamma1 := 1 - pool1.Fees().BidFee.ToFloat64()
	gamma2 := 1 - pool2.Fees().BidFee.ToFloat64()

	b1 := math.Sqrt(y1r * gamma1 * x1r)
	b2 := math.Sqrt(y2r * gamma2 * x2r)

	if b2 == 0 {
		return total, 0
	}
	rRatio := b1 / b2

	denom := gamma1 + rRatio*gamma2
	if denom == 0 {
		return total / 2, total / 2
	}
	x1Star := (rRatio*(x2r+gamma2*total) - x1r) / denom
	x1Star = math.Max(0, math.Min(total, x1Star))
	return x1Star, total - x1Star
}

func routeToTwo(order RetailOrder, pool1, pool2 *CFMM, fairPrice float64, timestamp uint64) []RoutedTrade {
	var trades []RoutedTrade
	if order.Side == RetailBuy {
		y1, y2 := splitBuyTwo(pool1, pool2, order.Size)
		for _, leg := range []struct {
			pool *CFMM
			amt  float64
		}{{pool1, y1}, {pool2, y2}} {
			if leg.amt > routerMinAmount {
				tr := leg.pool.ExecuteBuyXWithY(leg.amt, timestamp)
				trades = append(trades, tradesFrom(leg.pool, tr, false)...)
			}
		}
		return trades
	}

	totalX := order.Size / fairPrice
	x1, x2 := splitSellTwo(pool1, pool2, totalX)
	for _, leg := range []struct {
		pool *CFMM
		amt  float64
	}{{pool1, x1}, {pool2, x2}} {
		if leg.amt > routerMinAmount {
			tr := leg.pool.ExecuteBuyX(leg.amt, timestamp)
			trades = append(trades, tradesFrom(leg.pool, tr, true)...)
		}
	}
	return trades
}

// marginalPriceBuy returns the post-allocation marginal price y'/x' a pool
// would present after absorbing a buy-side allocation amountY, using the
// ask fee.
func marginalPriceBuy(pool *CFMM, amountY float64) float64 {
	x, y := pool.Reserves()
	gamma := 1 - pool.Fees().AskFee.ToFloat64()
	k := x * y
	yNew := y + gamma*amountY
	if yNew == 0 {
		return 0
	}
	xNew := k / yNew
	if xNew == 0 {
		return math.Inf(1)
	}
	return yNew / xNew
}

// marginalPriceSell returns the post-allocation marginal price a pool would
// present after absorbing a sell-side allocation amountX, using the bid fee.
func marginalPriceSell(pool *CFMM, amountX float64) float64 {
	x, y := pool.Reserves()
	gamma := 1 - pool.Fees().BidFee.ToFloat64()
	k := x * y
	xNew := x + gamma*amountX
	if xNew == 0 {
		return math.Inf(1)
	}
	yNew := k / xNew
	return yNew / xNew
}

func findMaxPriceGap(prices []float64) (i, j int, gap float64) {
	maxGap := -1.0
	bi, bj := 0, 1
	for a := 0; a < len(prices); a++ {
		for b := a + 1; b < len(prices); b++ {
			hi := math.Max(prices[a], prices[b])
			if hi == 0 {
				continue
			}
			g := math.Abs(prices[a]-prices[b]) / hi
			if g > maxGap {
				maxGap = g
				bi, bj = a, b
			}
		}
	}
	return bi, bj, maxGap
}

// routeToMany implements the iterative pairwise-rebalance heuristic for
// three or more pools: start with an equal split, repeatedly rebalance the
// pair with the largest relative marginal-price gap using the two-pool
// closed form, until convergence or the iteration cap.
func routeToMany(order RetailOrder, pools []*CFMM, fairPrice float64, timestamp uint64) []RoutedTrade {
	n := len(pools)
	isBuy := order.Side == RetailBuy

	var totalAmount float64
	if isBuy {
		totalAmount = order.Size
	} else {
		totalAmount = order.Size / fairPrice
	}

	alloc := make([]float64, n)
	for i := range alloc {
		alloc[i] = totalAmount / float64(n)
	}

	marginal := func() []float64 {
		prices := make([]float64, n)
		for i, p := range pools {
			if isBuy {
				prices[i] = marginalPriceBuy(p, alloc[i])
			} else {
				prices[i] = marginalPriceSell(p, alloc[i])
			}
		}
		return prices
	}

	for iter := 0; iter < routerMaxIterations; iter++ {
		prices := marginal()
		i, j, gap := findMaxPriceGap(prices)
		if gap < routerConvergenceThreshold {
			break
		}
		combined := alloc[i] + alloc[j]
		if isBuy {
			y1, y2 := splitBuyTwo(pools[i], pools[j], combined)
			alloc[i], alloc[j] = y1, y2
		} else {
			x1, x2 := splitSellTwo(pools[i], pools[j], combined)
			alloc[i], alloc[j] = x1, x2
		}
	}

	var trades []RoutedTrade
	for i, p := range pools {
		if alloc[i] < routerMinAmount {
			continue
		}
		if isBuy {
			tr := p.ExecuteBuyXWithY(alloc[i], timestamp)
			trades = append(trades, tradesFrom(p, tr, false)...)
		} else {
			tr := p.ExecuteBuyX(alloc[i], timestamp)
			trades = append(trades, tradesFrom(p, tr, true)...)
		}
	}
	return trades
}
