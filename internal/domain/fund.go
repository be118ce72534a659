package domain

// Bounds enforced on fund and member records. String fields that exceed
// their bound fail validation; they are never truncated.
const (
	MaxGroupIDLen     = 64
	MaxFundNameLen    = 64
	MaxLabelLen       = 64
	MaxDescriptionLen = 256

	// MaxApprovedTraders caps the trading allowlist per fund.
	MaxApprovedTraders = 10

	// BpsDenominator is the basis-point scale used for fees and PnL.
	BpsDenominator = 10_000
)

// Fund is the pooled treasury for a single group. One fund exists per
// group id. TotalShares and TotalValue track the aggregate books; the
// invariant TotalShares == sum of member shares holds at every observable
// point.
type Fund struct {
	Authority       string // wallet that administers the fund
	GroupID         string // unique group identifier
	Name            string
	TotalShares     uint64
	TotalValue      uint64
	MinContribution uint64
	TradingFeeBps   uint16 // 0..=10000, skimmed from distributed profit
	IsActive        bool

	// ApprovedTraders is the trading allowlist. Capability to trade
	// requires both a trading role and membership here.
	ApprovedTraders []string

	// RequiredApprovals is the quorum for trade proposals,
	// 1..=len(ApprovedTraders).
	RequiredApprovals uint8

	// NextProposalID is the fund-scoped monotonic proposal counter.
	NextProposalID uint64
}

// IsApprovedTrader reports whether the wallet is on the trading allowlist.
func (f *Fund) IsApprovedTrader(wallet string) bool {
	for _, t := range f.ApprovedTraders {
		if t == wallet {
			return true
		}
	}
	return false
}

// SharePrice returns the prevailing value per share and whether it is
// defined. It is undefined only when no shares exist.
func (f *Fund) SharePrice() (uint64, bool) {
	if f.TotalShares == 0 {
		return 0, false
	}
	return f.TotalValue / f.TotalShares, true
}
