package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// proposalFixture builds a fund with three capable traders and quorum 2,
// plus a pending proposal from the first trader.
func proposalFixture(t *testing.T) (domain.Fund, domain.Member, domain.Member, domain.Member, domain.TradeProposal) {
	t.Helper()

	f := testFund()
	f.TotalValue = 10_000
	for _, w := range []string{walletA, walletB, walletC} {
		require.NoError(t, AddApprovedTrader(&f, authority, w))
	}
	require.NoError(t, SetApprovalThreshold(&f, authority, 2))

	a := testMember(&f, walletA, domain.RoleTrader)
	b := testMember(&f, walletB, domain.RoleTrader)
	c := testMember(&f, walletC, domain.RoleManager)

	p, err := ProposeTrade(&f, &a, "SOL", "USDC", 1000, 950, time.Now())
	require.NoError(t, err)
	return f, a, b, c, p
}

func TestProposeTradeAssignsFundScopedIDs(t *testing.T) {
	t.Parallel()

	f := testFund()
	f.TotalValue = 10_000
	require.NoError(t, AddApprovedTrader(&f, authority, walletA))
	a := testMember(&f, walletA, domain.RoleTrader)

	now := time.Now()
	p1, err := ProposeTrade(&f, &a, "SOL", "USDC", 100, 95, now)
	require.NoError(t, err)
	p2, err := ProposeTrade(&f, &a, "SOL", "USDC", 100, 95, now)
	require.NoError(t, err)

	require.Equal(t, uint64(0), p1.ProposalID)
	require.Equal(t, uint64(1), p2.ProposalID)
	require.Equal(t, uint64(2), f.NextProposalID)
	require.Equal(t, domain.ProposalStatusPending, p1.Status)
	require.Equal(t, now.Add(domain.ProposalTTL), p1.ExpiresAt)
	require.Empty(t, p1.Approvals)
}

func TestProposeTradeChecks(t *testing.T) {
	t.Parallel()

	f := testFund()
	f.TotalValue = 500
	require.NoError(t, AddApprovedTrader(&f, authority, walletA))
	a := testMember(&f, walletA, domain.RoleTrader)
	b := testMember(&f, walletB, domain.RoleContributor)

	_, err := ProposeTrade(&f, &b, "SOL", "USDC", 100, 95, time.Now())
	require.ErrorIs(t, err, domain.ErrNotApprovedTrader)

	_, err = ProposeTrade(&f, &a, "SOL", "USDC", 501, 95, time.Now())
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestApprovalQuorum(t *testing.T) {
	t.Parallel()

	f, _, b, c, p := proposalFixture(t)
	now := time.Now()

	quorum, err := ApproveProposal(&f, &b, &p, now)
	require.NoError(t, err)
	require.False(t, quorum)
	require.Equal(t, domain.ProposalStatusPending, p.Status)

	quorum, err = ApproveProposal(&f, &c, &p, now)
	require.NoError(t, err)
	require.True(t, quorum)
	require.Equal(t, domain.ProposalStatusApproved, p.Status)
	require.Len(t, p.Approvals, 2)
}

func TestApprovalRejectsSelfAndDuplicates(t *testing.T) {
	t.Parallel()

	f, a, b, _, p := proposalFixture(t)
	now := time.Now()

	_, err := ApproveProposal(&f, &a, &p, now)
	require.ErrorIs(t, err, domain.ErrSelfApproval)

	_, err = ApproveProposal(&f, &b, &p, now)
	require.NoError(t, err)

	_, err = ApproveProposal(&f, &b, &p, now)
	require.ErrorIs(t, err, domain.ErrAlreadyApproved)
}

func TestApprovalLazyExpiry(t *testing.T) {
	t.Parallel()

	f, _, b, _, p := proposalFixture(t)

	late := p.ExpiresAt.Add(time.Second)
	_, err := ApproveProposal(&f, &b, &p, late)
	require.ErrorIs(t, err, domain.ErrProposalExpired)

	// No stored transition: the proposal still reads pending.
	require.Equal(t, domain.ProposalStatusPending, p.Status)
}

func TestRejectProposal(t *testing.T) {
	t.Parallel()

	f, _, b, _, p := proposalFixture(t)

	err := RejectProposal(&f, walletB, &p)
	require.ErrorIs(t, err, domain.ErrNotAuthority)

	// Authority can reject even past expiry.
	p.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, RejectProposal(&f, authority, &p))
	require.Equal(t, domain.ProposalStatusRejected, p.Status)

	err = RejectProposal(&f, authority, &p)
	require.ErrorIs(t, err, domain.ErrProposalNotPending)

	_, err = ApproveProposal(&f, &b, &p, time.Now())
	require.ErrorIs(t, err, domain.ErrProposalNotPending)
}

func TestExecuteProposal(t *testing.T) {
	t.Parallel()

	f, _, b, c, p := proposalFixture(t)
	now := time.Now()

	_, err := ExecuteProposal(&f, &p)
	require.ErrorIs(t, err, domain.ErrProposalNotApproved)

	_, err = ApproveProposal(&f, &b, &p, now)
	require.NoError(t, err)
	_, err = ApproveProposal(&f, &c, &p, now)
	require.NoError(t, err)

	exec, err := ExecuteProposal(&f, &p)
	require.NoError(t, err)
	require.Equal(t, uint64(10_000), exec.OldTotalValue)
	require.Equal(t, uint64(9950), f.TotalValue) // -1000 +950
	require.Equal(t, domain.ProposalStatusExecuted, p.Status)

	_, err = ExecuteProposal(&f, &p)
	require.ErrorIs(t, err, domain.ErrProposalNotApproved)
}

func TestExecuteProposalRequiresActiveFund(t *testing.T) {
	t.Parallel()

	f, _, b, c, p := proposalFixture(t)
	now := time.Now()
	_, err := ApproveProposal(&f, &b, &p, now)
	require.NoError(t, err)
	_, err = ApproveProposal(&f, &c, &p, now)
	require.NoError(t, err)

	require.NoError(t, PauseFund(&f, authority))
	_, err = ExecuteProposal(&f, &p)
	require.ErrorIs(t, err, domain.ErrFundNotActive)
}

func TestTraderRosterCapacityAndThreshold(t *testing.T) {
	t.Parallel()

	f := testFund()
	for i := 0; i < domain.MaxApprovedTraders; i++ {
		require.NoError(t, AddApprovedTrader(&f, authority, walletA+string(rune('0'+i))))
	}

	err := AddApprovedTrader(&f, authority, "one-too-many")
	require.ErrorIs(t, err, domain.ErrTraderListFull)

	err = AddApprovedTrader(&f, authority, walletA+"0")
	require.ErrorIs(t, err, domain.ErrTraderListFull)

	err = SetApprovalThreshold(&f, authority, 0)
	require.ErrorIs(t, err, domain.ErrInvalidThreshold)

	err = SetApprovalThreshold(&f, authority, uint8(len(f.ApprovedTraders)+1))
	require.ErrorIs(t, err, domain.ErrInvalidThreshold)

	require.NoError(t, SetApprovalThreshold(&f, authority, uint8(len(f.ApprovedTraders))))
}

func TestRemoveApprovedTraderClampsQuorum(t *testing.T) {
	t.Parallel()

	f := testFund()
	require.NoError(t, AddApprovedTrader(&f, authority, walletA))
	require.NoError(t, AddApprovedTrader(&f, authority, walletB))
	require.NoError(t, SetApprovalThreshold(&f, authority, 2))

	// Removal is idempotent.
	require.NoError(t, RemoveApprovedTrader(&f, authority, "not-listed"))

	require.NoError(t, RemoveApprovedTrader(&f, authority, walletB))
	require.Equal(t, uint8(1), f.RequiredApprovals)
}

func TestDuplicateTraderCheckBeforeCapacity(t *testing.T) {
	t.Parallel()

	f := testFund()
	require.NoError(t, AddApprovedTrader(&f, authority, walletA))
	err := AddApprovedTrader(&f, authority, walletA)
	require.ErrorIs(t, err, domain.ErrTraderAlreadyListed)
}

func TestFundLifecycle(t *testing.T) {
	t.Parallel()

	f := testFund()
	m := testMember(&f, walletA, domain.RoleContributor)
	_, err := Contribute(&f, &m, 100)
	require.NoError(t, err)

	err = CloseFund(&f, walletA)
	require.ErrorIs(t, err, domain.ErrNotAuthority)

	err = CloseFund(&f, authority)
	require.ErrorIs(t, err, domain.ErrFundNotEmpty)

	_, err = Withdraw(&f, &m, m.Shares)
	require.NoError(t, err)

	require.NoError(t, CloseFund(&f, authority))
}

func TestNewFundValidation(t *testing.T) {
	t.Parallel()

	_, err := NewFund(authority, "", "name", 0, 0)
	require.ErrorIs(t, err, domain.ErrLabelTooLong)

	_, err = NewFund(authority, "g", "name", 0, 10_001)
	require.ErrorIs(t, err, domain.ErrInvalidFeeBps)

	f, err := NewFund(authority, "g", "name", 0, 10_000)
	require.NoError(t, err)
	require.True(t, f.IsActive)
	require.Equal(t, uint8(1), f.RequiredApprovals)
}
