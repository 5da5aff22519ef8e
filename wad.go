package ammsim

import "math/big"

// Wad is an 18-decimal signed fixed-point scalar: the stored integer equals
// the represented value times One. It is the unit strategies see across the
// EVM ABI boundary, where go-ethereum carries every 256-bit word as *big.Int.
type Wad struct {
	v *big.Int
}

var (
	// One represents the fixed-point value 1.0.
	One = big.NewInt(1_000_000_000_000_000_000)
	// Bps represents one basis point (1e-4) in fixed-point.
	Bps = big.NewInt(100_000_000_000_000)
	// MaxFee is the maximum fee a strategy may quote: 10% in fixed-point.
	MaxFee = big.NewInt(100_000_000_000_000_000)
)

// NewWad wraps a raw fixed-point integer (already scaled by One).
func NewWad(raw *big.Int) Wad {
	if raw == nil {
		return Wad{v: big.NewInt(0)}
	}
	return Wad{v: new(big.Int).Set(raw)}
}

// NewWadFromInt64 wraps a raw fixed-point integer given as int64.
func NewWadFromInt64(raw int64) Wad {
	return Wad{v: big.NewInt(raw)}
}

// ZeroWad is the additive identity.
func ZeroWad() Wad { return Wad{v: big.NewInt(0)} }

// OneWad is the fixed-point value 1.0.
func OneWad() Wad { return Wad{v: new(big.Int).Set(One)} }

// WadFromFloat64 converts a float64 to fixed-point by plain scale.
func WadFromFloat64(x float64) Wad {
	bf := new(big.Float).SetPrec(128).SetFloat64(x)
	bf.Mul(bf, new(big.Float).SetPrec(128).SetInt(One))
	raw, _ := bf.Int(nil)
	return Wad{v: raw}
}

// WadFromBps converts an integer basis-point count to fixed-point.
func WadFromBps(bps int64) Wad {
	return Wad{v: new(big.Int).Mul(big.NewInt(bps), Bps)}
}

// ToFloat64 converts the fixed-point value back to float64 by plain scale.
func (w Wad) ToFloat64() float64 {
	bf := new(big.Float).SetPrec(128).SetInt(w.Raw())
	bf.Quo(bf, new(big.Float).SetPrec(128).SetInt(One))
	f, _ := bf.Float64()
	return f
}

// ToBps converts the fixed-point value to an integer basis-point count,
// truncating any remainder.
func (w Wad) ToBps() int64 {
	q := new(big.Int).Quo(w.Raw(), Bps)
	return q.Int64()
}

// Raw returns the underlying scaled integer, never nil.
func (w Wad) Raw() *big.Int {
	if w.v == nil {
		return big.NewInt(0)
	}
	return w.v
}

// Add returns w + o.
func (w Wad) Add(o Wad) Wad { return Wad{v: new(big.Int).Add(w.Raw(), o.Raw())} }

// Sub returns w - o.
func (w Wad) Sub(o Wad) Wad { return Wad{v: new(big.Int).Sub(w.Raw(), o.Raw())} }

// Neg returns -w.
func (w Wad) Neg() Wad { return Wad{v: new(big.Int).Neg(w.Raw())} }

// Wmul returns the fixed-point product floor(w*o/One).
func (w Wad) Wmul(o Wad) Wad {
	prod := new(big.Int).Mul(w.Raw(), o.Raw())
	return Wad{v: prod.Quo(prod, One)}
}

// Wdiv returns the fixed-point quotient floor(w*One/o), or zero if o is
// zero: division never fails, by policy.
func (w Wad) Wdiv(o Wad) Wad {
	if o.Raw().Sign() == 0 {
		return ZeroWad()
	}
	num := new(big.Int).Mul(w.Raw(), One)
	return Wad{v: num.Quo(num, o.Raw())}
}

// ClampFee truncates w to [0, MaxFee].
func (w Wad) ClampFee() Wad {
	return w.Clamp(ZeroWad(), Wad{v: new(big.Int).Set(MaxFee)})
}

// Clamp truncates w to [lo, hi].
func (w Wad) Clamp(lo, hi Wad) Wad {
	v := w.Raw()
	if v.Cmp(lo.Raw()) < 0 {
		return lo
	}
	if v.Cmp(hi.Raw()) > 0 {
		return hi
	}
	return w
}

// Abs returns |w|.
func (w Wad) Abs() Wad { return Wad{v: new(big.Int).Abs(w.Raw())} }

// AbsDiff returns |w - o|.
func (w Wad) AbsDiff(o Wad) Wad { return w.Sub(o).Abs() }

// IsZero reports whether w is exactly zero.
func (w Wad) IsZero() bool { return w.Raw().Sign() == 0 }

// IsPositive reports whether w is strictly greater than zero.
func (w Wad) IsPositive() bool { return w.Raw().Sign() > 0 }

// IsNegative reports whether w is strictly less than zero.
func (w Wad) IsNegative() bool { return w.Raw().Sign() < 0 }

// Cmp compares w and o the way big.Int.Cmp does.
func (w Wad) Cmp(o Wad) int { return w.Raw().Cmp(o.Raw()) }

// Sqrt computes the fixed-point square root via integer Newton iteration on
// the value pre-scaled by One. Non-positive inputs return zero.
func (w Wad) Sqrt() Wad {
	if w.Raw().Sign() <= 0 {
		return ZeroWad()
	}
	// target = w.raw * One, so that isqrt(target) == sqrt(w) * One.
	target := new(big.Int).Mul(w.Raw(), One)

	// Seed the iterate at the input value itself, a safe, always
	// over-estimating start for Newton's method on integers this large.
	x := new(big.Int).Set(target)
	two := big.NewInt(2)
	prev := new(big.Int).Set(x)
	for {
		// x_{n+1} = (x_n + target/x_n) / 2
		next := new(big.Int).Quo(target, x)
		next.Add(next, x)
		next.Quo(next, two)
		if next.Cmp(prev) >= 0 {
			break
		}
		prev.Set(next)
		x.Set(next)
	}
	return Wad{v: prev}
}
