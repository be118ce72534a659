// Package sharemath implements the fixed-width share, fee, and PnL
// arithmetic for pooled funds. All multiply-then-divide paths run in
// 128-bit intermediate precision and fail explicitly on overflow or
// malformed division instead of wrapping.
package sharemath

import (
	"math/bits"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// MulDiv returns floor(a * b / div) computed with a 128-bit intermediate.
// It fails when div is zero or the quotient does not fit in 64 bits.
func MulDiv(a, b, div uint64) (uint64, error) {
	if div == 0 {
		return 0, domain.ErrArithmeticOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= div {
		// Quotient would overflow uint64; bits.Div64 panics in this case.
		return 0, domain.ErrArithmeticOverflow
	}
	q, _ := bits.Div64(hi, lo, div)
	return q, nil
}

// CheckedAdd returns a + b, failing on overflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, domain.ErrArithmeticOverflow
	}
	return sum, nil
}

// CheckedSub returns a - b, failing on underflow.
func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, domain.ErrArithmeticOverflow
	}
	return diff, nil
}

// SaturatingSub returns a - b, clamped at zero.
func SaturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

// SharesToMint computes the shares minted for a contribution against the
// pre-update fund totals. The first contribution mints 1:1.
func SharesToMint(amount, totalShares, totalValue uint64) (uint64, error) {
	if totalShares == 0 {
		return amount, nil
	}
	return MulDiv(amount, totalShares, totalValue)
}

// ValueOfShares computes the current value of a share position:
// floor(shares * totalValue / totalShares).
func ValueOfShares(shares, totalValue, totalShares uint64) (uint64, error) {
	return MulDiv(shares, totalValue, totalShares)
}

// FeeOnProfit computes the trading fee skimmed from a profit amount:
// floor(profit * feeBps / 10000).
func FeeOnProfit(profit uint64, feeBps uint16) (uint64, error) {
	return MulDiv(profit, uint64(feeBps), domain.BpsDenominator)
}

// PnLAmount converts a basis-point outcome on a trade amount into an
// absolute value change, truncated toward zero. The boolean reports a
// loss (negative PnL).
func PnLAmount(amount uint64, pnlBps int64) (uint64, bool, error) {
	neg := pnlBps < 0
	mag := uint64(pnlBps)
	if neg {
		mag = uint64(-pnlBps)
	}
	v, err := MulDiv(amount, mag, domain.BpsDenominator)
	if err != nil {
		return 0, false, err
	}
	return v, neg, nil
}

// ReputationDelta returns the unsigned reputation adjustment for a
// settled trade: floor(pnl/10) for a gain, floor(|pnl|/5) for a loss.
// Losses cost twice what gains earn.
func ReputationDelta(pnlBps int64) uint64 {
	if pnlBps > 0 {
		return uint64(pnlBps / 10)
	}
	return uint64(-pnlBps / 5)
}
