package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/store/memory"
	"github.com/alanyoungcy/groupfund/internal/vault"
)

const (
	testAuthority = "auth-wallet"
	testGroup     = "group-1"
	testWalletA   = "wallet-a"
	testWalletB   = "wallet-b"
	testWalletC   = "wallet-c"
	testPool      = "pool-wallet"
)

// harness wires every service against the in-memory store and ledger.
type harness struct {
	store    *memory.Store
	ledger   *vault.Ledger
	funds    *FundService
	members  *MemberService
	contribs *ContributionService
	dists    *DistributionService
	trades   *TradingService
	props    *ProposalService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.New()
	ledger := vault.NewLedger()
	d := Deps{
		UoW:      store,
		Audit:    store.Audit(),
		Transfer: ledger,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return &harness{
		store:    store,
		ledger:   ledger,
		funds:    NewFundService(d),
		members:  NewMemberService(d),
		contribs: NewContributionService(d),
		dists:    NewDistributionService(d),
		trades:   NewTradingService(d),
		props:    NewProposalService(d, testPool),
	}
}

// seedFund creates a fund with min contribution 100 and a 10% fee, plus
// two contributor members with funded wallets.
func (h *harness) seedFund(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	_, err := h.funds.CreateFund(ctx, testAuthority, testGroup, "test fund", 100, 1000)
	require.NoError(t, err)
	for _, w := range []string{testWalletA, testWalletB} {
		_, err := h.members.AddMember(ctx, testGroup, w, "", domain.RoleContributor)
		require.NoError(t, err)
		h.ledger.Credit(w, 10_000)
	}
}

func TestContributeMovesValueAndMintsShares(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)
	ctx := context.Background()

	res, err := h.contribs.Contribute(ctx, testGroup, testWalletA, 400)
	require.NoError(t, err)
	require.Equal(t, uint64(400), res.SharesMinted)

	bal, err := h.ledger.VaultBalance(ctx, testGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(400), bal)
	require.Equal(t, uint64(9600), h.ledger.Balance(testWalletA))

	f, err := h.funds.GetFund(ctx, testGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(400), f.TotalShares)
	require.Equal(t, uint64(400), f.TotalValue)
}

func TestContributeFailedTransferLeavesBooksUntouched(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)
	ctx := context.Background()

	// The wallet holds 10k; the books would accept more but the
	// transfer cannot.
	_, err := h.contribs.Contribute(ctx, testGroup, testWalletA, 20_000)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	f, err := h.funds.GetFund(ctx, testGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(0), f.TotalShares)
	require.Equal(t, uint64(0), f.TotalValue)
	require.Equal(t, uint64(10_000), h.ledger.Balance(testWalletA))
}

func TestContributeBelowMinimumRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)

	_, err := h.contribs.Contribute(context.Background(), testGroup, testWalletA, 99)
	require.ErrorIs(t, err, domain.ErrBelowMinContribution)
}

func TestWithdrawRoundTrip(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)
	ctx := context.Background()

	_, err := h.contribs.Contribute(ctx, testGroup, testWalletA, 500)
	require.NoError(t, err)

	res, err := h.contribs.Withdraw(ctx, testGroup, testWalletA, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(500), res.Payout)
	require.Equal(t, uint64(10_000), h.ledger.Balance(testWalletA))

	bal, err := h.ledger.VaultBalance(ctx, testGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(0), bal)
}

func TestWithdrawWorksOnPausedFund(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)
	ctx := context.Background()

	_, err := h.contribs.Contribute(ctx, testGroup, testWalletA, 500)
	require.NoError(t, err)
	require.NoError(t, h.funds.PauseFund(ctx, testGroup, testAuthority))

	_, err = h.contribs.Contribute(ctx, testGroup, testWalletA, 500)
	require.ErrorIs(t, err, domain.ErrFundNotActive)

	_, err = h.contribs.Withdraw(ctx, testGroup, testWalletA, 500)
	require.NoError(t, err)
}

func TestDistributeValueLeavesFeeInVault(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)
	ctx := context.Background()

	_, err := h.contribs.Contribute(ctx, testGroup, testWalletA, 100)
	require.NoError(t, err)

	// Appreciate the vault 100 -> 150 via a recorded swap.
	h.ledger.Credit(testPool, 1000)
	require.NoError(t, h.ledger.Deposit(ctx, testPool, testGroup, 50))
	_, err = h.trades.RecordSwap(ctx, testGroup, testAuthority, 0, 50)
	require.NoError(t, err)

	res, err := h.dists.DistributeValue(ctx, testGroup, testWalletA)
	require.NoError(t, err)
	require.Equal(t, uint64(50), res.Profit)
	require.Equal(t, uint64(5), res.Fee)
	require.Equal(t, uint64(145), res.Payout)

	// The 5 unit fee stays behind as vault residual.
	bal, err := h.ledger.VaultBalance(ctx, testGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(5), bal)

	f, err := h.funds.GetFund(ctx, testGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(5), f.TotalValue)
	require.Equal(t, uint64(0), f.TotalShares)
}

func TestDistributeProfitsPaysWithoutBurningShares(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)
	ctx := context.Background()

	_, err := h.contribs.Contribute(ctx, testGroup, testWalletA, 100)
	require.NoError(t, err)
	h.ledger.Credit(testPool, 1000)
	require.NoError(t, h.ledger.Deposit(ctx, testPool, testGroup, 50))
	_, err = h.trades.RecordSwap(ctx, testGroup, testAuthority, 0, 50)
	require.NoError(t, err)

	res, err := h.dists.DistributeProfits(ctx, testGroup, testWalletA)
	require.NoError(t, err)
	require.Equal(t, uint64(45), res.NetProfit)

	m, err := h.members.GetMember(ctx, testGroup, testWalletA)
	require.NoError(t, err)
	require.Equal(t, uint64(100), m.Shares)

	// Books did not change, so the fund still reads as fully valued.
	f, err := h.funds.GetFund(ctx, testGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(150), f.TotalValue)
}

func TestTradeOpenAndSettle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)
	ctx := context.Background()

	_, err := h.contribs.Contribute(ctx, testGroup, testWalletA, 1000)
	require.NoError(t, err)

	require.NoError(t, h.members.SetMemberRole(ctx, testGroup, testAuthority, testWalletA, domain.RoleTrader))
	require.NoError(t, h.funds.AddApprovedTrader(ctx, testGroup, testAuthority, testWalletA))

	trade, err := h.trades.ExecuteTrade(ctx, testGroup, testWalletA, "SOL breakout", 1000, 500)
	require.NoError(t, err)
	require.NotEmpty(t, trade.ID)
	require.False(t, trade.IsSettled)

	res, err := h.trades.SettleTrade(ctx, testGroup, testAuthority, trade.ID, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(50), res.PnLAmount)
	require.False(t, res.Loss)
	require.Equal(t, uint64(50), res.NewReputation)

	f, err := h.funds.GetFund(ctx, testGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(1050), f.TotalValue)

	_, err = h.trades.SettleTrade(ctx, testGroup, testAuthority, trade.ID, 500)
	require.ErrorIs(t, err, domain.ErrTradeAlreadySettled)
}

func TestTradeRequiresRoleAndAllowlist(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)
	ctx := context.Background()

	_, err := h.contribs.Contribute(ctx, testGroup, testWalletA, 1000)
	require.NoError(t, err)

	// Role without allowlist entry.
	require.NoError(t, h.members.SetMemberRole(ctx, testGroup, testAuthority, testWalletA, domain.RoleTrader))
	_, err = h.trades.ExecuteTrade(ctx, testGroup, testWalletA, "x", 100, 0)
	require.ErrorIs(t, err, domain.ErrNotApprovedTrader)

	// Allowlist entry without role.
	require.NoError(t, h.funds.AddApprovedTrader(ctx, testGroup, testAuthority, testWalletB))
	_, err = h.trades.ExecuteTrade(ctx, testGroup, testWalletB, "x", 100, 0)
	require.ErrorIs(t, err, domain.ErrNotApprovedTrader)
}

// seedProposalFund adds three capable traders with quorum 2 and a funded
// vault.
func (h *harness) seedProposalFund(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	h.seedFund(t)
	_, err := h.members.AddMember(ctx, testGroup, testWalletC, "", domain.RoleContributor)
	require.NoError(t, err)
	_, err = h.contribs.Contribute(ctx, testGroup, testWalletA, 5000)
	require.NoError(t, err)

	for _, w := range []string{testWalletA, testWalletB, testWalletC} {
		require.NoError(t, h.members.SetMemberRole(ctx, testGroup, testAuthority, w, domain.RoleTrader))
		require.NoError(t, h.funds.AddApprovedTrader(ctx, testGroup, testAuthority, w))
	}
	require.NoError(t, h.funds.SetApprovalThreshold(ctx, testGroup, testAuthority, 2))
	h.ledger.Credit(testPool, 10_000)
}

func TestProposalLifecycle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedProposalFund(t)
	ctx := context.Background()

	p, err := h.props.ProposeTrade(ctx, testGroup, testWalletA, "SOL", "USDC", 1000, 950)
	require.NoError(t, err)
	require.Equal(t, uint64(0), p.ProposalID)
	require.Equal(t, domain.ProposalStatusPending, p.Status)

	// The proposer cannot approve their own proposal.
	_, err = h.props.ApproveProposal(ctx, testGroup, testWalletA, p.ProposalID)
	require.ErrorIs(t, err, domain.ErrSelfApproval)

	quorum, err := h.props.ApproveProposal(ctx, testGroup, testWalletB, p.ProposalID)
	require.NoError(t, err)
	require.False(t, quorum)

	quorum, err = h.props.ApproveProposal(ctx, testGroup, testWalletC, p.ProposalID)
	require.NoError(t, err)
	require.True(t, quorum)

	exec, err := h.props.ExecuteProposal(ctx, testGroup, testWalletA, p.ProposalID)
	require.NoError(t, err)
	require.Equal(t, uint64(5000), exec.OldTotalValue)
	require.Equal(t, uint64(4950), exec.NewTotalValue)

	// Vault: -1000 to the pool, +950 back.
	bal, err := h.ledger.VaultBalance(ctx, testGroup)
	require.NoError(t, err)
	require.Equal(t, uint64(4950), bal)
	require.Equal(t, uint64(10_050), h.ledger.Balance(testPool))

	_, err = h.props.ExecuteProposal(ctx, testGroup, testWalletA, p.ProposalID)
	require.ErrorIs(t, err, domain.ErrProposalNotApproved)
}

func TestProposalRejectByAuthority(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedProposalFund(t)
	ctx := context.Background()

	p, err := h.props.ProposeTrade(ctx, testGroup, testWalletA, "SOL", "USDC", 1000, 950)
	require.NoError(t, err)

	err = h.props.RejectProposal(ctx, testGroup, testWalletB, p.ProposalID)
	require.ErrorIs(t, err, domain.ErrNotAuthority)

	require.NoError(t, h.props.RejectProposal(ctx, testGroup, testAuthority, p.ProposalID))

	got, err := h.props.GetProposal(ctx, testGroup, p.ProposalID)
	require.NoError(t, err)
	require.Equal(t, domain.ProposalStatusRejected, got.Status)
}

func TestExecuteProposalRequiresCapability(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedProposalFund(t)
	ctx := context.Background()

	p, err := h.props.ProposeTrade(ctx, testGroup, testWalletA, "SOL", "USDC", 1000, 950)
	require.NoError(t, err)
	_, err = h.props.ApproveProposal(ctx, testGroup, testWalletB, p.ProposalID)
	require.NoError(t, err)

	// A plain contributor cannot trigger execution.
	_, err = h.members.AddMember(ctx, testGroup, "wallet-d", "", domain.RoleContributor)
	require.NoError(t, err)
	_, err = h.props.ExecuteProposal(ctx, testGroup, "wallet-d", p.ProposalID)
	require.ErrorIs(t, err, domain.ErrNotApprovedTrader)
}

func TestCloseFundDeletesRecord(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)
	ctx := context.Background()

	_, err := h.contribs.Contribute(ctx, testGroup, testWalletA, 500)
	require.NoError(t, err)

	err = h.funds.CloseFund(ctx, testGroup, testAuthority)
	require.ErrorIs(t, err, domain.ErrFundNotEmpty)

	_, err = h.contribs.Withdraw(ctx, testGroup, testWalletA, 500)
	require.NoError(t, err)
	require.NoError(t, h.funds.CloseFund(ctx, testGroup, testAuthority))

	_, err = h.funds.GetFund(ctx, testGroup)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuditTrailRecordsOperations(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seedFund(t)
	ctx := context.Background()

	_, err := h.contribs.Contribute(ctx, testGroup, testWalletA, 500)
	require.NoError(t, err)

	entries, err := h.store.Audit().List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	// Newest first.
	require.Equal(t, "contribution", entries[0].Event)
}
