package engine

import (
	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/guard"
)

// NewFund validates and builds a fresh fund for a group. The quorum
// starts at one; it only matters once traders are approved.
func NewFund(authority, groupID, name string, minContribution uint64, feeBps uint16) (domain.Fund, error) {
	if groupID == "" || len(groupID) > domain.MaxGroupIDLen {
		return domain.Fund{}, domain.ErrLabelTooLong
	}
	if len(name) > domain.MaxFundNameLen {
		return domain.Fund{}, domain.ErrLabelTooLong
	}
	if feeBps > domain.BpsDenominator {
		return domain.Fund{}, domain.ErrInvalidFeeBps
	}

	return domain.Fund{
		Authority:         authority,
		GroupID:           groupID,
		Name:              name,
		MinContribution:   minContribution,
		TradingFeeBps:     feeBps,
		IsActive:          true,
		RequiredApprovals: 1,
	}, nil
}

// NewMember validates and builds a member record for a fund. Members
// join as contributors with no shares.
func NewMember(f *domain.Fund, wallet, telegramID string, role domain.Role) (domain.Member, error) {
	if err := guard.ActiveFund(f); err != nil {
		return domain.Member{}, err
	}
	if len(telegramID) > domain.MaxLabelLen {
		return domain.Member{}, domain.ErrLabelTooLong
	}
	if !role.Valid() {
		return domain.Member{}, domain.ErrInvalidRole
	}

	return domain.Member{
		GroupID:    f.GroupID,
		Wallet:     wallet,
		TelegramID: telegramID,
		Role:       role,
		IsActive:   true,
	}, nil
}

// PauseFund halts contributions, trading, and distributions. Withdrawals
// stay open.
func PauseFund(f *domain.Fund, caller string) error {
	if err := guard.Authority(f, caller); err != nil {
		return err
	}
	f.IsActive = false
	return nil
}

// ResumeFund reactivates a paused fund.
func ResumeFund(f *domain.Fund, caller string) error {
	if err := guard.Authority(f, caller); err != nil {
		return err
	}
	f.IsActive = true
	return nil
}

// CloseFund verifies the fund can be removed: every unit of value paid
// out and every share burned.
func CloseFund(f *domain.Fund, caller string) error {
	if err := guard.Authority(f, caller); err != nil {
		return err
	}
	if f.TotalValue != 0 {
		return domain.ErrFundNotEmpty
	}
	if f.TotalShares != 0 {
		return domain.ErrSharesRemaining
	}
	return nil
}

// SetMemberRole changes a member's role. Role alone never grants trading
// capability; the allowlist is managed separately.
func SetMemberRole(f *domain.Fund, caller string, m *domain.Member, role domain.Role) error {
	if err := guard.Authority(f, caller); err != nil {
		return err
	}
	if !role.Valid() {
		return domain.ErrInvalidRole
	}
	m.Role = role
	return nil
}

// SetMemberActive toggles a member's active flag. There is no member
// deletion path; deactivation is the only way to bar a member.
func SetMemberActive(f *domain.Fund, caller string, m *domain.Member, active bool) error {
	if err := guard.Authority(f, caller); err != nil {
		return err
	}
	m.IsActive = active
	return nil
}

// AddApprovedTrader puts a wallet on the trading allowlist, failing when
// the list is at capacity or the wallet is already present.
func AddApprovedTrader(f *domain.Fund, caller, wallet string) error {
	if err := guard.Authority(f, caller); err != nil {
		return err
	}
	if len(f.ApprovedTraders) >= domain.MaxApprovedTraders {
		return domain.ErrTraderListFull
	}
	if f.IsApprovedTrader(wallet) {
		return domain.ErrTraderAlreadyListed
	}
	f.ApprovedTraders = append(f.ApprovedTraders, wallet)
	return nil
}

// RemoveApprovedTrader takes a wallet off the allowlist. Removal is
// idempotent. If the quorum would exceed the shrunken list it is clamped
// down, never below one.
func RemoveApprovedTrader(f *domain.Fund, caller, wallet string) error {
	if err := guard.Authority(f, caller); err != nil {
		return err
	}
	for i, t := range f.ApprovedTraders {
		if t == wallet {
			f.ApprovedTraders = append(f.ApprovedTraders[:i], f.ApprovedTraders[i+1:]...)
			break
		}
	}
	if n := len(f.ApprovedTraders); n > 0 && int(f.RequiredApprovals) > n {
		f.RequiredApprovals = uint8(n)
	}
	return nil
}

// SetApprovalThreshold sets the proposal quorum, which must fit the
// current allowlist: 1..=len(approved traders).
func SetApprovalThreshold(f *domain.Fund, caller string, n uint8) error {
	if err := guard.Authority(f, caller); err != nil {
		return err
	}
	if n < 1 || int(n) > len(f.ApprovedTraders) {
		return domain.ErrInvalidThreshold
	}
	f.RequiredApprovals = n
	return nil
}
