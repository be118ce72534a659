// Package engine implements the pure state transitions of the pooled
// fund: share accounting, distributions, trade settlement, and the
// proposal workflow. Functions validate against the guard predicates
// first and mutate the passed records only when every check and every
// arithmetic step has succeeded. Persistence, value transfer, and event
// emission are the caller's concern.
package engine

import (
	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/guard"
	"github.com/alanyoungcy/groupfund/internal/sharemath"
)

// ContributionResult reports the share mint applied by Contribute.
type ContributionResult struct {
	Amount       uint64
	SharesMinted uint64
	MemberShares uint64
	TotalShares  uint64
	TotalValue   uint64
}

// Contribute mints shares for a deposit of amount into the fund vault.
// The mint uses the pre-update totals as denominator: the first
// contribution mints 1:1, later ones mint floor(amount * totalShares /
// totalValue), so the prevailing share price is preserved up to rounding.
func Contribute(f *domain.Fund, m *domain.Member, amount uint64) (ContributionResult, error) {
	if err := guard.ActiveFund(f); err != nil {
		return ContributionResult{}, err
	}
	if err := guard.ActiveMember(m); err != nil {
		return ContributionResult{}, err
	}
	if amount < f.MinContribution {
		return ContributionResult{}, domain.ErrBelowMinContribution
	}

	minted, err := sharemath.SharesToMint(amount, f.TotalShares, f.TotalValue)
	if err != nil {
		return ContributionResult{}, err
	}

	memberShares, err := sharemath.CheckedAdd(m.Shares, minted)
	if err != nil {
		return ContributionResult{}, err
	}
	contributed, err := sharemath.CheckedAdd(m.TotalContributed, amount)
	if err != nil {
		return ContributionResult{}, err
	}
	totalShares, err := sharemath.CheckedAdd(f.TotalShares, minted)
	if err != nil {
		return ContributionResult{}, err
	}
	totalValue, err := sharemath.CheckedAdd(f.TotalValue, amount)
	if err != nil {
		return ContributionResult{}, err
	}

	m.Shares = memberShares
	m.TotalContributed = contributed
	f.TotalShares = totalShares
	f.TotalValue = totalValue

	return ContributionResult{
		Amount:       amount,
		SharesMinted: minted,
		MemberShares: memberShares,
		TotalShares:  totalShares,
		TotalValue:   totalValue,
	}, nil
}

// WithdrawalResult reports the share burn applied by Withdraw.
type WithdrawalResult struct {
	SharesBurned uint64
	Payout       uint64
	MemberShares uint64
	TotalShares  uint64
	TotalValue   uint64
}

// Withdraw burns sharesToBurn and computes the proportional payout:
// floor(shares * totalValue / totalShares). Withdrawal is an exit path
// and is deliberately not gated on the fund or member being active.
func Withdraw(f *domain.Fund, m *domain.Member, sharesToBurn uint64) (WithdrawalResult, error) {
	if m.Shares < sharesToBurn {
		return WithdrawalResult{}, domain.ErrInsufficientShares
	}

	payout, err := sharemath.ValueOfShares(sharesToBurn, f.TotalValue, f.TotalShares)
	if err != nil {
		return WithdrawalResult{}, err
	}

	totalShares, err := sharemath.CheckedSub(f.TotalShares, sharesToBurn)
	if err != nil {
		return WithdrawalResult{}, err
	}
	totalValue, err := sharemath.CheckedSub(f.TotalValue, payout)
	if err != nil {
		return WithdrawalResult{}, err
	}

	m.Shares -= sharesToBurn
	f.TotalShares = totalShares
	f.TotalValue = totalValue

	return WithdrawalResult{
		SharesBurned: sharesToBurn,
		Payout:       payout,
		MemberShares: m.Shares,
		TotalShares:  totalShares,
		TotalValue:   totalValue,
	}, nil
}
