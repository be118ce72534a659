package engine

import (
	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/guard"
	"github.com/alanyoungcy/groupfund/internal/sharemath"
)

// DistributionResult reports a full-exit distribution.
type DistributionResult struct {
	SharesBurned uint64
	CostBasis    uint64
	CurrentValue uint64
	Profit       uint64
	Fee          uint64
	Payout       uint64
	TotalShares  uint64
	TotalValue   uint64
}

// DistributeValue pays out a member's entire position. The trading fee is
// skimmed from profit only; losses and break-even exits pay the full
// current value. The fee amount is not paid out and not removed from the
// vault: it remains as residual value, lifting the share price for the
// members who stay.
func DistributeValue(f *domain.Fund, m *domain.Member) (DistributionResult, error) {
	if err := guard.ActiveFund(f); err != nil {
		return DistributionResult{}, err
	}
	if err := guard.ActiveMember(m); err != nil {
		return DistributionResult{}, err
	}
	if m.Shares == 0 {
		return DistributionResult{}, domain.ErrInsufficientShares
	}
	if f.TotalShares == 0 {
		return DistributionResult{}, domain.ErrSharesRemaining
	}

	current, err := sharemath.ValueOfShares(m.Shares, f.TotalValue, f.TotalShares)
	if err != nil {
		return DistributionResult{}, err
	}
	if current == 0 {
		return DistributionResult{}, domain.ErrInsufficientFunds
	}

	basis := m.TotalContributed
	var profit, fee uint64
	payout := current
	if current > basis {
		profit = current - basis
		fee, err = sharemath.FeeOnProfit(profit, f.TradingFeeBps)
		if err != nil {
			return DistributionResult{}, err
		}
		payout, err = sharemath.CheckedSub(current, fee)
		if err != nil {
			return DistributionResult{}, err
		}
	}

	totalValue, err := sharemath.CheckedSub(f.TotalValue, payout)
	if err != nil {
		return DistributionResult{}, err
	}
	totalShares, err := sharemath.CheckedSub(f.TotalShares, m.Shares)
	if err != nil {
		return DistributionResult{}, err
	}

	burned := m.Shares
	m.Shares = 0
	f.TotalValue = totalValue
	f.TotalShares = totalShares

	return DistributionResult{
		SharesBurned: burned,
		CostBasis:    basis,
		CurrentValue: current,
		Profit:       profit,
		Fee:          fee,
		Payout:       payout,
		TotalShares:  totalShares,
		TotalValue:   totalValue,
	}, nil
}

// ProfitDistributionResult reports a profit-only distribution.
type ProfitDistributionResult struct {
	Shares       uint64
	CostBasis    uint64
	CurrentValue uint64
	GrossProfit  uint64
	Fee          uint64
	NetProfit    uint64
}

// DistributeProfits pays out only the profit above the member's cost
// basis, net of the trading fee, while the member keeps all shares. The
// cost basis is intentionally left unchanged to match the reference
// semantics: absent an intervening value change, a second call recomputes
// and pays the same profit again. Sequencing of calls is the operator's
// responsibility.
func DistributeProfits(f *domain.Fund, m *domain.Member) (ProfitDistributionResult, error) {
	if err := guard.ActiveFund(f); err != nil {
		return ProfitDistributionResult{}, err
	}
	if err := guard.ActiveMember(m); err != nil {
		return ProfitDistributionResult{}, err
	}
	if m.Shares == 0 {
		return ProfitDistributionResult{}, domain.ErrInsufficientShares
	}
	if f.TotalShares == 0 {
		return ProfitDistributionResult{}, domain.ErrSharesRemaining
	}

	current, err := sharemath.ValueOfShares(m.Shares, f.TotalValue, f.TotalShares)
	if err != nil {
		return ProfitDistributionResult{}, err
	}

	basis := m.TotalContributed
	if current <= basis {
		return ProfitDistributionResult{}, domain.ErrNoProfit
	}

	profit := current - basis
	fee, err := sharemath.FeeOnProfit(profit, f.TradingFeeBps)
	if err != nil {
		return ProfitDistributionResult{}, err
	}
	net, err := sharemath.CheckedSub(profit, fee)
	if err != nil {
		return ProfitDistributionResult{}, err
	}

	return ProfitDistributionResult{
		Shares:       m.Shares,
		CostBasis:    basis,
		CurrentValue: current,
		GrossProfit:  profit,
		Fee:          fee,
		NetProfit:    net,
	}, nil
}
