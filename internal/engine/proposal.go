package engine

import (
	"time"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/guard"
	"github.com/alanyoungcy/groupfund/internal/sharemath"
)

// ProposeTrade opens a quorum-gated trade proposal. The proposal takes
// the fund's next id and the fund counter advances, so ids are unique and
// monotonic within a fund. The approval window closes 24 hours after
// creation.
func ProposeTrade(f *domain.Fund, proposer *domain.Member, fromToken, toToken string, amount, minimumOut uint64, now time.Time) (domain.TradeProposal, error) {
	if err := guard.ActiveFund(f); err != nil {
		return domain.TradeProposal{}, err
	}
	if err := guard.ActiveMember(proposer); err != nil {
		return domain.TradeProposal{}, err
	}
	if err := guard.TradingCapability(f, proposer); err != nil {
		return domain.TradeProposal{}, err
	}
	if amount > f.TotalValue {
		return domain.TradeProposal{}, domain.ErrInsufficientFunds
	}

	id := f.NextProposalID
	next, err := sharemath.CheckedAdd(f.NextProposalID, 1)
	if err != nil {
		return domain.TradeProposal{}, err
	}
	f.NextProposalID = next

	return domain.TradeProposal{
		GroupID:    f.GroupID,
		ProposalID: id,
		Proposer:   proposer.Wallet,
		FromToken:  fromToken,
		ToToken:    toToken,
		Amount:     amount,
		MinimumOut: minimumOut,
		Status:     domain.ProposalStatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(domain.ProposalTTL),
	}, nil
}

// ApproveProposal records one distinct, non-proposer approval. When the
// approval count reaches the fund's quorum the proposal transitions to
// approved. Expiry is checked lazily here; an expired proposal rejects
// the interaction but no stored transition is written.
func ApproveProposal(f *domain.Fund, approver *domain.Member, p *domain.TradeProposal, now time.Time) (quorum bool, err error) {
	if err := guard.ActiveFund(f); err != nil {
		return false, err
	}
	if err := guard.ActiveMember(approver); err != nil {
		return false, err
	}
	if err := guard.TradingCapability(f, approver); err != nil {
		return false, err
	}

	switch p.Status {
	case domain.ProposalStatusPending:
		// fall through to the checks below
	case domain.ProposalStatusApproved, domain.ProposalStatusRejected,
		domain.ProposalStatusExecuted, domain.ProposalStatusExpired:
		return false, domain.ErrProposalNotPending
	default:
		return false, domain.ErrProposalNotPending
	}

	if p.IsExpired(now) {
		return false, domain.ErrProposalExpired
	}
	if approver.Wallet == p.Proposer {
		return false, domain.ErrSelfApproval
	}
	if p.HasApproved(approver.Wallet) {
		return false, domain.ErrAlreadyApproved
	}
	if len(p.Approvals) >= domain.MaxProposalApprovals {
		return false, domain.ErrApprovalListFull
	}

	p.Approvals = append(p.Approvals, approver.Wallet)
	if len(p.Approvals) >= int(f.RequiredApprovals) {
		p.Status = domain.ProposalStatusApproved
		return true, nil
	}
	return false, nil
}

// RejectProposal lets the authority veto a pending proposal. There is no
// expiry check: the authority can always reject, even past the window.
func RejectProposal(f *domain.Fund, caller string, p *domain.TradeProposal) error {
	if err := guard.Authority(f, caller); err != nil {
		return err
	}

	switch p.Status {
	case domain.ProposalStatusPending:
		p.Status = domain.ProposalStatusRejected
		return nil
	case domain.ProposalStatusApproved, domain.ProposalStatusRejected,
		domain.ProposalStatusExecuted, domain.ProposalStatusExpired:
		return domain.ErrProposalNotPending
	default:
		return domain.ErrProposalNotPending
	}
}

// ProposalExecution reports the book change applied by ExecuteProposal.
type ProposalExecution struct {
	Amount        uint64
	MinimumOut    uint64
	OldTotalValue uint64
	NewTotalValue uint64
}

// ExecuteProposal settles an approved proposal against the fund books:
// amount leaves for the pool, minimumOut returns. The swap economics were
// negotiated externally; the engine only moves the pre-agreed quantities.
// The caller performs the two vault transfers before committing this
// transition.
func ExecuteProposal(f *domain.Fund, p *domain.TradeProposal) (ProposalExecution, error) {
	switch p.Status {
	case domain.ProposalStatusApproved:
		// executable
	case domain.ProposalStatusPending, domain.ProposalStatusRejected,
		domain.ProposalStatusExecuted, domain.ProposalStatusExpired:
		return ProposalExecution{}, domain.ErrProposalNotApproved
	default:
		return ProposalExecution{}, domain.ErrProposalNotApproved
	}
	if err := guard.ActiveFund(f); err != nil {
		return ProposalExecution{}, err
	}

	oldValue := f.TotalValue
	afterOut, err := sharemath.CheckedSub(f.TotalValue, p.Amount)
	if err != nil {
		return ProposalExecution{}, domain.ErrInsufficientFunds
	}
	newValue, err := sharemath.CheckedAdd(afterOut, p.MinimumOut)
	if err != nil {
		return ProposalExecution{}, err
	}

	f.TotalValue = newValue
	p.Status = domain.ProposalStatusExecuted

	return ProposalExecution{
		Amount:        p.Amount,
		MinimumOut:    p.MinimumOut,
		OldTotalValue: oldValue,
		NewTotalValue: newValue,
	}, nil
}
