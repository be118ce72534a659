// Package guard holds the stateless authorization and state predicates
// evaluated first in every fund operation. Each predicate returns a typed
// domain error so enforcement is visible at the call site.
package guard

import "github.com/alanyoungcy/groupfund/internal/domain"

// Authority fails unless the caller is the fund's authority.
func Authority(f *domain.Fund, caller string) error {
	if caller != f.Authority {
		return domain.ErrNotAuthority
	}
	return nil
}

// ActiveFund fails unless the fund is active.
func ActiveFund(f *domain.Fund) error {
	if !f.IsActive {
		return domain.ErrFundNotActive
	}
	return nil
}

// ActiveMember fails unless the member is active.
func ActiveMember(m *domain.Member) error {
	if !m.IsActive {
		return domain.ErrMemberNotActive
	}
	return nil
}

// TradingCapability fails unless the member both holds a trading role and
// is on the fund's approved trader list. Promoting a role without list
// membership grants nothing, and vice versa.
func TradingCapability(f *domain.Fund, m *domain.Member) error {
	if !m.Role.CanTrade() {
		return domain.ErrNotApprovedTrader
	}
	if !f.IsApprovedTrader(m.Wallet) {
		return domain.ErrNotApprovedTrader
	}
	return nil
}
