package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

const (
	authority = "authority-wallet"
	walletA   = "wallet-a"
	walletB   = "wallet-b"
	walletC   = "wallet-c"
)

func testFund() domain.Fund {
	f, err := NewFund(authority, "group-1", "Group One", 100, 1000)
	if err != nil {
		panic(err)
	}
	return f
}

func testMember(f *domain.Fund, wallet string, role domain.Role) domain.Member {
	m, err := NewMember(f, wallet, "tg-"+wallet, role)
	if err != nil {
		panic(err)
	}
	return m
}

// sumShares verifies the conservation invariant: fund total shares equal
// the sum of member shares.
func sumShares(t *testing.T, f *domain.Fund, members ...*domain.Member) {
	t.Helper()
	var sum uint64
	for _, m := range members {
		sum += m.Shares
	}
	require.Equal(t, f.TotalShares, sum, "fund total shares must equal member share sum")
}

func TestContributeFirstAndProportional(t *testing.T) {
	t.Parallel()

	f := testFund()
	a := testMember(&f, walletA, domain.RoleContributor)
	b := testMember(&f, walletB, domain.RoleContributor)

	res, err := Contribute(&f, &a, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), res.SharesMinted)
	require.Equal(t, uint64(100), a.Shares)
	require.Equal(t, uint64(100), f.TotalShares)
	require.Equal(t, uint64(100), f.TotalValue)

	res, err = Contribute(&f, &b, 300)
	require.NoError(t, err)
	require.Equal(t, uint64(300), res.SharesMinted)
	require.Equal(t, uint64(300), b.Shares)
	require.Equal(t, uint64(400), f.TotalShares)
	require.Equal(t, uint64(400), f.TotalValue)

	sumShares(t, &f, &a, &b)
}

func TestContributePreservesSharePrice(t *testing.T) {
	t.Parallel()

	f := testFund()
	a := testMember(&f, walletA, domain.RoleContributor)
	b := testMember(&f, walletB, domain.RoleContributor)

	_, err := Contribute(&f, &a, 1000)
	require.NoError(t, err)

	// Appreciate the fund: price goes from 1 to 2.
	f.TotalValue = 2000
	priceBefore, ok := f.SharePrice()
	require.True(t, ok)

	_, err = Contribute(&f, &b, 500)
	require.NoError(t, err)

	priceAfter, ok := f.SharePrice()
	require.True(t, ok)
	require.Equal(t, priceBefore, priceAfter)
	sumShares(t, &f, &a, &b)
}

func TestContributeBoundaries(t *testing.T) {
	t.Parallel()

	f := testFund()
	m := testMember(&f, walletA, domain.RoleContributor)

	_, err := Contribute(&f, &m, 99)
	require.ErrorIs(t, err, domain.ErrBelowMinContribution)

	_, err = Contribute(&f, &m, 100)
	require.NoError(t, err)
}

func TestContributeGuards(t *testing.T) {
	t.Parallel()

	f := testFund()
	m := testMember(&f, walletA, domain.RoleContributor)

	f.IsActive = false
	_, err := Contribute(&f, &m, 100)
	require.ErrorIs(t, err, domain.ErrFundNotActive)

	f.IsActive = true
	m.IsActive = false
	_, err = Contribute(&f, &m, 100)
	require.ErrorIs(t, err, domain.ErrMemberNotActive)
}

func TestWithdrawRoundTrip(t *testing.T) {
	t.Parallel()

	f := testFund()
	m := testMember(&f, walletA, domain.RoleContributor)

	_, err := Contribute(&f, &m, 500)
	require.NoError(t, err)

	res, err := Withdraw(&f, &m, m.Shares)
	require.NoError(t, err)
	require.LessOrEqual(t, res.Payout, uint64(500))
	require.Equal(t, uint64(500), res.Payout) // no intervening value change, no rounding loss
	require.Equal(t, uint64(0), m.Shares)
	require.Equal(t, uint64(0), f.TotalShares)
	require.Equal(t, uint64(0), f.TotalValue)
}

func TestWithdrawInsufficientShares(t *testing.T) {
	t.Parallel()

	f := testFund()
	m := testMember(&f, walletA, domain.RoleContributor)

	_, err := Contribute(&f, &m, 100)
	require.NoError(t, err)

	_, err = Withdraw(&f, &m, 101)
	require.ErrorIs(t, err, domain.ErrInsufficientShares)
}

func TestWithdrawAllowedWhilePaused(t *testing.T) {
	t.Parallel()

	f := testFund()
	m := testMember(&f, walletA, domain.RoleContributor)
	_, err := Contribute(&f, &m, 200)
	require.NoError(t, err)

	require.NoError(t, PauseFund(&f, authority))

	res, err := Withdraw(&f, &m, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), res.Payout)
}

func TestDistributeValueWithProfit(t *testing.T) {
	t.Parallel()

	f := testFund() // fee 1000 bps
	m := testMember(&f, walletA, domain.RoleContributor)
	_, err := Contribute(&f, &m, 100)
	require.NoError(t, err)

	// Fund appreciates: member value becomes 150 on basis 100.
	f.TotalValue = 150

	res, err := DistributeValue(&f, &m)
	require.NoError(t, err)
	require.Equal(t, uint64(150), res.CurrentValue)
	require.Equal(t, uint64(50), res.Profit)
	require.Equal(t, uint64(5), res.Fee)
	require.Equal(t, uint64(145), res.Payout)
	require.Equal(t, uint64(0), m.Shares)
	require.Equal(t, uint64(0), f.TotalShares)

	// The fee is retained in the books, not paid out.
	require.Equal(t, uint64(5), f.TotalValue)
}

func TestDistributeValueNoFeeOnLoss(t *testing.T) {
	t.Parallel()

	f := testFund()
	m := testMember(&f, walletA, domain.RoleContributor)
	_, err := Contribute(&f, &m, 100)
	require.NoError(t, err)

	f.TotalValue = 80 // loss

	res, err := DistributeValue(&f, &m)
	require.NoError(t, err)
	require.Equal(t, uint64(0), res.Fee)
	require.Equal(t, uint64(80), res.Payout)
	require.Equal(t, uint64(0), f.TotalValue)
}

func TestDistributeValueTwiceFails(t *testing.T) {
	t.Parallel()

	f := testFund()
	m := testMember(&f, walletA, domain.RoleContributor)
	_, err := Contribute(&f, &m, 100)
	require.NoError(t, err)

	_, err = DistributeValue(&f, &m)
	require.NoError(t, err)

	_, err = DistributeValue(&f, &m)
	require.ErrorIs(t, err, domain.ErrInsufficientShares)
}

func TestDistributeProfitsLeavesBooksAlone(t *testing.T) {
	t.Parallel()

	f := testFund() // fee 1000 bps
	m := testMember(&f, walletA, domain.RoleContributor)
	_, err := Contribute(&f, &m, 100)
	require.NoError(t, err)

	f.TotalValue = 150

	res, err := DistributeProfits(&f, &m)
	require.NoError(t, err)
	require.Equal(t, uint64(50), res.GrossProfit)
	require.Equal(t, uint64(5), res.Fee)
	require.Equal(t, uint64(45), res.NetProfit)

	// Shares, basis, and fund books all unchanged.
	require.Equal(t, uint64(100), m.Shares)
	require.Equal(t, uint64(100), m.TotalContributed)
	require.Equal(t, uint64(100), f.TotalShares)
	require.Equal(t, uint64(150), f.TotalValue)

	// The reference semantics recompute the same profit on a second call.
	res2, err := DistributeProfits(&f, &m)
	require.NoError(t, err)
	require.Equal(t, res.NetProfit, res2.NetProfit)
}

func TestDistributeProfitsNoProfit(t *testing.T) {
	t.Parallel()

	f := testFund()
	m := testMember(&f, walletA, domain.RoleContributor)
	_, err := Contribute(&f, &m, 100)
	require.NoError(t, err)

	_, err = DistributeProfits(&f, &m)
	require.ErrorIs(t, err, domain.ErrNoProfit)

	f.TotalValue = 80
	_, err = DistributeProfits(&f, &m)
	require.ErrorIs(t, err, domain.ErrNoProfit)
}

func TestOpenTradeRequiresCapability(t *testing.T) {
	t.Parallel()

	f := testFund()
	f.TotalValue = 10_000
	now := time.Now()

	// Trading role without roster membership: no capability.
	m := testMember(&f, walletA, domain.RoleTrader)
	_, err := OpenTrade(&f, &m, "t1", "long SOL", 1000, 250, now)
	require.ErrorIs(t, err, domain.ErrNotApprovedTrader)

	// Roster membership without trading role: still no capability.
	require.NoError(t, AddApprovedTrader(&f, authority, walletB))
	c := testMember(&f, walletB, domain.RoleContributor)
	_, err = OpenTrade(&f, &c, "t2", "long SOL", 1000, 250, now)
	require.ErrorIs(t, err, domain.ErrNotApprovedTrader)

	// Both: capability granted.
	require.NoError(t, AddApprovedTrader(&f, authority, walletA))
	tr, err := OpenTrade(&f, &m, "t3", "long SOL", 1000, 250, now)
	require.NoError(t, err)
	require.False(t, tr.IsSettled)
	require.Equal(t, walletA, tr.Trader)

	// Amount above fund value fails.
	_, err = OpenTrade(&f, &m, "t4", "too big", 10_001, 0, now)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestSettleTradeGain(t *testing.T) {
	t.Parallel()

	f := testFund()
	f.TotalValue = 5000
	require.NoError(t, AddApprovedTrader(&f, authority, walletA))
	m := testMember(&f, walletA, domain.RoleTrader)

	tr, err := OpenTrade(&f, &m, "t1", "momentum", 1000, 500, time.Now())
	require.NoError(t, err)

	res, err := SettleTrade(&f, &m, &tr, authority, 500)
	require.NoError(t, err)
	require.Equal(t, uint64(50), res.PnLAmount)
	require.Equal(t, uint64(5050), f.TotalValue)
	require.Equal(t, uint32(1), m.SuccessfulTrades)
	require.Equal(t, uint64(50), m.ReputationScore)
	require.True(t, tr.IsSettled)
	require.Equal(t, int64(500), tr.ActualPnLBps)
}

func TestSettleTradeLossAsymmetry(t *testing.T) {
	t.Parallel()

	f := testFund()
	f.TotalValue = 5000
	require.NoError(t, AddApprovedTrader(&f, authority, walletA))
	m := testMember(&f, walletA, domain.RoleTrader)
	m.ReputationScore = 30

	tr, err := OpenTrade(&f, &m, "t1", "reversal", 1000, 0, time.Now())
	require.NoError(t, err)

	// -500 bps on 1000: value drops 50, penalty floor(500/5)=100,
	// saturating at zero from 30.
	res, err := SettleTrade(&f, &m, &tr, authority, -500)
	require.NoError(t, err)
	require.True(t, res.Loss)
	require.Equal(t, uint64(4950), f.TotalValue)
	require.Equal(t, uint32(1), m.FailedTrades)
	require.Equal(t, uint64(0), m.ReputationScore)
}

func TestSettleTradeZeroCountsAsFailed(t *testing.T) {
	t.Parallel()

	f := testFund()
	f.TotalValue = 5000
	require.NoError(t, AddApprovedTrader(&f, authority, walletA))
	m := testMember(&f, walletA, domain.RoleTrader)

	tr, err := OpenTrade(&f, &m, "t1", "flat", 1000, 0, time.Now())
	require.NoError(t, err)

	_, err = SettleTrade(&f, &m, &tr, authority, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), m.SuccessfulTrades)
	require.Equal(t, uint32(1), m.FailedTrades)
	require.Equal(t, uint64(5000), f.TotalValue)
}

func TestSettleTradeOnceOnly(t *testing.T) {
	t.Parallel()

	f := testFund()
	f.TotalValue = 5000
	require.NoError(t, AddApprovedTrader(&f, authority, walletA))
	m := testMember(&f, walletA, domain.RoleTrader)

	tr, err := OpenTrade(&f, &m, "t1", "once", 1000, 0, time.Now())
	require.NoError(t, err)

	_, err = SettleTrade(&f, &m, &tr, authority, 100)
	require.NoError(t, err)

	_, err = SettleTrade(&f, &m, &tr, authority, 100)
	require.ErrorIs(t, err, domain.ErrTradeAlreadySettled)
}

func TestSettleTradeAuthorityOnly(t *testing.T) {
	t.Parallel()

	f := testFund()
	f.TotalValue = 5000
	require.NoError(t, AddApprovedTrader(&f, authority, walletA))
	m := testMember(&f, walletA, domain.RoleTrader)

	tr, err := OpenTrade(&f, &m, "t1", "x", 1000, 0, time.Now())
	require.NoError(t, err)

	_, err = SettleTrade(&f, &m, &tr, walletA, 100)
	require.ErrorIs(t, err, domain.ErrNotAuthority)
}

func TestRecordSwap(t *testing.T) {
	t.Parallel()

	f := testFund()
	f.TotalValue = 1000

	res, err := RecordSwap(&f, authority, 400, 450)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), res.OldTotalValue)
	require.Equal(t, uint64(1050), f.TotalValue)

	_, err = RecordSwap(&f, walletA, 1, 1)
	require.ErrorIs(t, err, domain.ErrNotAuthority)

	_, err = RecordSwap(&f, authority, 2000, 0)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
}
