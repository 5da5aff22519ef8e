package ammsim

// FeeQuote is a (bidFee, askFee) pair, each clamped to [0, MaxFee]. BidFee
// applies when the pool buys X; AskFee when the pool sells X.
type FeeQuote struct {
	BidFee Wad
	AskFee Wad
}

// SymmetricFeeQuote returns a FeeQuote with both sides equal to fee.
func SymmetricFeeQuote(fee Wad) FeeQuote { return FeeQuote{BidFee: fee, AskFee: fee} }

// TradeResult pairs the TradeInfo passed to the strategy host with the fee
// amount (in Y or X units depending on direction) collected on that trade.
type TradeResult struct {
	Trade     TradeInfo
	FeeAmount float64
}

// CFMM is a constant-product (x*y=k) pool with fee-on-input accounting.
// Fees are skimmed into a separate bucket and never reinvested into k.
type CFMM struct {
	Name     string
	strategy *EVMStrategy

	reserveX, reserveY float64
	currentFees        FeeQuote
	initialized        bool

	accumulatedFeesX, accumulatedFeesY float64
}

// NewCFMM constructs a pool over strategy with the given starting reserves.
// Before Initialize runs, the pool quotes a placeholder symmetric 30bps fee,
// so a pool queried before initialization still has a sane fee.
func NewCFMM(name string, strategy *EVMStrategy, reserveX, reserveY float64) *CFMM {
	return &CFMM{
		Name:        name,
		strategy:    strategy,
		reserveX:    reserveX,
		reserveY:    reserveY,
		currentFees: SymmetricFeeQuote(WadFromBps(30)),
	}
}

// Initialize calls afterInitialize, stores the clamped starting fee quote,
// and marks the pool ready to trade. Errors here are fatal to the
// simulation: the pool has no usable fees otherwise.
func (c *CFMM) Initialize() error {
	x0 := WadFromFloat64(c.reserveX)
	y0 := WadFromFloat64(c.reserveY)
	bid, ask, err := c.strategy.AfterInitialize(x0, y0)
	if err != nil {
		return err
	}
	c.currentFees = FeeQuote{BidFee: bid.ClampFee(), AskFee: ask.ClampFee()}
	c.initialized = true
	return nil
}

// Reserves returns the current (x, y) reserves.
func (c *CFMM) Reserves() (float64, float64) { return c.reserveX, c.reserveY }

// K returns the pool's current constant-product invariant.
func (c *CFMM) K() float64 { return c.reserveX * c.reserveY }

// Fees returns the pool's current fee quote.
func (c *CFMM) Fees() FeeQuote { return c.currentFees }

// AccumulatedFees returns the (X, Y) fee buckets collected so far.
func (c *CFMM) AccumulatedFees() (float64, float64) {
	return c.accumulatedFeesX, c.accumulatedFeesY
}

// SpotPrice returns y/x, the pool's instantaneous marginal price, or 0 if
// x is zero.
func (c *CFMM) SpotPrice() float64 {
	if c.reserveX == 0 {
		return 0
	}
	return c.reserveY / c.reserveX
}

// QuoteBuyX quotes the pool buying deltaXIn units of X (a trader selling X
// to the pool), net of the bid fee.
func (c *CFMM) QuoteBuyX(deltaXIn float64) (yOut, fee float64) {
	if deltaXIn <= 0 {
		return 0, 0
	}
	gamma := 1 - c.currentFees.BidFee.ToFloat64()
	if gamma <= 0 {
		return 0, 0
	}
	net := deltaXIn * gamma
	k := c.K()
	yOut = c.reserveY - k/(c.reserveX+net)
	if yOut <= 0 {
		return 0, 0
	}
	fee = deltaXIn * c.currentFees.BidFee.ToFloat64()
	return yOut, fee
}

// QuoteSellX quotes the pool selling deltaXOut units of X (a trader buying X
// from the pool), grossed up by the ask fee.
func (c *CFMM) QuoteSellX(deltaXOut float64) (totalY, fee float64) {
	if deltaXOut <= 0 || deltaXOut >= c.reserveX {
		return 0, 0
	}
	gamma := 1 - c.currentFees.AskFee.ToFloat64()
	if gamma <= 0 {
		return 0, 0
	}
	k := c.K()
	netY := k/(c.reserveX-deltaXOut) - c.reserveY
	if netY <= 0 {
		return 0, 0
	}
	totalY = netY / gamma
	fee = totalY - netY
	return totalY, fee
}

// QuoteXForY quotes the pool selling X paid for in Y (deltaYIn units of Y
// in), net of the ask fee.
func (c *CFMM) QuoteXForY(deltaYIn float64) (xOut, fee float64) {
	if deltaYIn <= 0 {
		return 0, 0
	}
	gamma := 1 - c.currentFees.AskFee.ToFloat64()
	if gamma <= 0 {
		return 0, 0
	}
	netY := deltaYIn * gamma
	k := c.K()
	xOut = c.reserveX - k/(c.reserveY+netY)
	if xOut <= 0 {
		return 0, 0
	}
	fee = deltaYIn * c.currentFees.AskFee.ToFloat64()
	return xOut, fee
}

// ExecuteBuyX executes a pool-buys-X trade of gross size deltaXIn at
// timestamp t, updates reserves and fee buckets, and refreshes fees via
// afterSwap. Returns nil if the quote was zero.
func (c *CFMM) ExecuteBuyX(deltaXIn float64, t uint64) *TradeResult {
	yOut, fee := c.QuoteBuyX(deltaXIn)
	if yOut <= 0 {
		return nil
	}
	gamma := 1 - c.currentFees.BidFee.ToFloat64()
	net := deltaXIn * gamma
	c.reserveX += net
	c.reserveY -= yOut
	c.accumulatedFeesX += fee

	trade := TradeInfo{
		IsBuy:     true,
		AmountX:   WadFromFloat64(deltaXIn),
		AmountY:   WadFromFloat64(yOut),
		Timestamp: t,
		ReserveX:  WadFromFloat64(c.reserveX),
		ReserveY:  WadFromFloat64(c.reserveY),
	}
	c.updateFees(trade)
	return &TradeResult{Trade: trade, FeeAmount: fee}
}

// ExecuteSellX executes a pool-sells-X trade of size deltaXOut at timestamp
// t. Returns nil if the quote was zero.
func (c *CFMM) ExecuteSellX(deltaXOut float64, t uint64) *TradeResult {
	totalY, fee := c.QuoteSellX(deltaXOut)
	if totalY <= 0 {
		return nil
	}
	c.reserveX -= deltaXOut
	netY := totalY - fee
	c.reserveY += netY
	c.accumulatedFeesY += fee

	trade := TradeInfo{
		IsBuy:     false,
		AmountX:   WadFromFloat64(deltaXOut),
		AmountY:   WadFromFloat64(totalY),
		Timestamp: t,
		ReserveX:  WadFromFloat64(c.reserveX),
		ReserveY:  WadFromFloat64(c.reserveY),
	}
	c.updateFees(trade)
	return &TradeResult{Trade: trade, FeeAmount: fee}
}

// ExecuteBuyXWithY executes a pool-sells-X trade sized by a fixed Y input
// (a retail buy order quoted in Y), at timestamp t.
func (c *CFMM) ExecuteBuyXWithY(deltaYIn float64, t uint64) *TradeResult {
	xOut, fee := c.QuoteXForY(deltaYIn)
	if xOut <= 0 {
		return nil
	}
	gamma := 1 - c.currentFees.AskFee.ToFloat64()
	netY := deltaYIn * gamma
	c.reserveX -= xOut
	c.reserveY += netY
	c.accumulatedFeesY += fee

	trade := TradeInfo{
		IsBuy:     false,
		AmountX:   WadFromFloat64(xOut),
		AmountY:   WadFromFloat64(deltaYIn),
		Timestamp: t,
		ReserveX:  WadFromFloat64(c.reserveX),
		ReserveY:  WadFromFloat64(c.reserveY),
	}
	c.updateFees(trade)
	return &TradeResult{Trade: trade, FeeAmount: fee}
}

// updateFees calls afterSwap and, on success, refreshes the current fee
// quote (clamped). Any host error silently retains the previous quote;
// after-swap failures never abort a simulation.
func (c *CFMM) updateFees(trade TradeInfo) {
	bid, ask, err := c.strategy.AfterSwap(trade)
	if err != nil {
		return
	}
	c.currentFees = FeeQuote{BidFee: bid.ClampFee(), AskFee: ask.ClampFee()}
}

// Reset restores starting reserves, clears accumulated fees, and re-deploys
// the underlying strategy host.
func (c *CFMM) Reset(reserveX, reserveY float64) error {
	c.reserveX = reserveX
	c.reserveY = reserveY
	c.accumulatedFeesX = 0
	c.accumulatedFeesY = 0
	c.initialized = false
	return c.strategy.Reset()
}
