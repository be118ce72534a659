package engine

import (
	"time"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/guard"
	"github.com/alanyoungcy/groupfund/internal/sharemath"
)

// OpenTrade creates an unsettled trade record for a trader acting on the
// fund's behalf. No value moves; the record only declares intent and is
// the anchor for later settlement.
func OpenTrade(f *domain.Fund, m *domain.Member, id, description string, amount uint64, expectedBps int16, now time.Time) (domain.Trade, error) {
	if err := guard.ActiveFund(f); err != nil {
		return domain.Trade{}, err
	}
	if err := guard.ActiveMember(m); err != nil {
		return domain.Trade{}, err
	}
	if err := guard.TradingCapability(f, m); err != nil {
		return domain.Trade{}, err
	}
	if len(description) > domain.MaxDescriptionLen {
		return domain.Trade{}, domain.ErrDescriptionTooLong
	}
	if amount > f.TotalValue {
		return domain.Trade{}, domain.ErrInsufficientFunds
	}

	return domain.Trade{
		ID:                 id,
		GroupID:            f.GroupID,
		Trader:             m.Wallet,
		Description:        description,
		Amount:             amount,
		ExpectedOutcomeBps: expectedBps,
		Timestamp:          now,
		IsSettled:          false,
	}, nil
}

// SettlementResult reports the books and reputation changes applied by
// SettleTrade.
type SettlementResult struct {
	PnLAmount     uint64
	Loss          bool
	OldTotalValue uint64
	NewTotalValue uint64
	OldReputation uint64
	NewReputation uint64
	SuccessfulCnt uint32
	FailedCnt     uint32
}

// SettleTrade applies the realized outcome of a trade to the fund books
// and the trader's track record, exactly once per trade. The value change
// is floor(amount * pnlBps / 10000), truncated toward zero. A gain
// rewards reputation by floor(pnl/10); a loss (or flat outcome) counts as
// failed and penalizes by floor(|pnl|/5) -- losses cost twice what gains
// earn, by the reference semantics.
func SettleTrade(f *domain.Fund, trader *domain.Member, t *domain.Trade, caller string, pnlBps int64) (SettlementResult, error) {
	if err := guard.Authority(f, caller); err != nil {
		return SettlementResult{}, err
	}
	if t.IsSettled {
		return SettlementResult{}, domain.ErrTradeAlreadySettled
	}

	pnlAmount, loss, err := sharemath.PnLAmount(t.Amount, pnlBps)
	if err != nil {
		return SettlementResult{}, err
	}

	oldValue := f.TotalValue
	var newValue uint64
	if loss {
		newValue, err = sharemath.CheckedSub(f.TotalValue, pnlAmount)
		if err != nil {
			return SettlementResult{}, domain.ErrInsufficientFunds
		}
	} else {
		newValue, err = sharemath.CheckedAdd(f.TotalValue, pnlAmount)
		if err != nil {
			return SettlementResult{}, err
		}
	}

	delta := sharemath.ReputationDelta(pnlBps)
	oldRep := trader.ReputationScore
	res := SettlementResult{
		PnLAmount:     pnlAmount,
		Loss:          loss,
		OldTotalValue: oldValue,
		NewTotalValue: newValue,
		OldReputation: oldRep,
	}

	f.TotalValue = newValue
	t.ActualPnLBps = pnlBps
	t.IsSettled = true
	if pnlBps > 0 {
		trader.SuccessfulTrades++
		trader.ReputationScore = saturatingAdd(oldRep, delta)
	} else {
		trader.FailedTrades++
		trader.ReputationScore = sharemath.SaturatingSub(oldRep, delta)
	}

	res.NewReputation = trader.ReputationScore
	res.SuccessfulCnt = trader.SuccessfulTrades
	res.FailedCnt = trader.FailedTrades
	return res, nil
}

func saturatingAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}

// SwapResult reports the book change applied by RecordSwap.
type SwapResult struct {
	AmountIn      uint64
	AmountOut     uint64
	OldTotalValue uint64
	NewTotalValue uint64
}

// RecordSwap applies a swap outcome reported by the external execution
// service: the engine trusts the declared in/out figures and only moves
// the books, total_value - in + out, with checked arithmetic.
func RecordSwap(f *domain.Fund, caller string, amountIn, amountOut uint64) (SwapResult, error) {
	if err := guard.ActiveFund(f); err != nil {
		return SwapResult{}, err
	}
	if err := guard.Authority(f, caller); err != nil {
		return SwapResult{}, err
	}

	oldValue := f.TotalValue
	afterOut, err := sharemath.CheckedSub(f.TotalValue, amountIn)
	if err != nil {
		return SwapResult{}, domain.ErrInsufficientFunds
	}
	newValue, err := sharemath.CheckedAdd(afterOut, amountOut)
	if err != nil {
		return SwapResult{}, err
	}

	f.TotalValue = newValue
	return SwapResult{
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		OldTotalValue: oldValue,
		NewTotalValue: newValue,
	}, nil
}
