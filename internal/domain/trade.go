package domain

import "time"

// Trade is a free-form record of a trade executed on the fund's behalf.
// No value moves when the record is opened; settlement applies the
// realized PnL to the fund books exactly once.
type Trade struct {
	ID          string // uuid
	GroupID     string
	Trader      string
	Description string // bounded length
	Amount      uint64

	// ExpectedOutcomeBps is the trader's declared expectation in basis
	// points. Informational only; settlement uses the actual figure.
	ExpectedOutcomeBps int16

	// ActualPnLBps is the realized outcome in basis points, set at
	// settlement. Positive is a gain, negative a loss.
	ActualPnLBps int64

	Timestamp time.Time
	IsSettled bool
}
