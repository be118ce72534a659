package domain

import "time"

// ProposalStatus tracks the trade proposal lifecycle.
type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusExecuted ProposalStatus = "executed"
	ProposalStatusExpired  ProposalStatus = "expired"
)

// Valid reports whether the status is one of the known values.
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusPending, ProposalStatusApproved, ProposalStatusRejected,
		ProposalStatusExecuted, ProposalStatusExpired:
		return true
	}
	return false
}

// ProposalTTL is how long a proposal remains approvable after creation.
const ProposalTTL = 24 * time.Hour

// MaxProposalApprovals caps the approval set per proposal.
const MaxProposalApprovals = 10

// TradeProposal is a trade that requires quorum approval before execution.
// ProposalID is unique per fund, assigned from the fund's monotonic counter.
type TradeProposal struct {
	GroupID    string
	ProposalID uint64
	Proposer   string
	FromToken  string
	ToToken    string
	Amount     uint64
	MinimumOut uint64

	// Approvals holds distinct approver wallets. The proposer never
	// appears here.
	Approvals []string

	Status    ProposalStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

// HasApproved reports whether the wallet already approved this proposal.
func (p *TradeProposal) HasApproved(wallet string) bool {
	for _, a := range p.Approvals {
		if a == wallet {
			return true
		}
	}
	return false
}

// IsExpired reports whether the proposal is past its approval window.
// Expiry is evaluated lazily; no stored transition happens on its own.
func (p *TradeProposal) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
