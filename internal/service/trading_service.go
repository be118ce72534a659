package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/engine"
)

// TradingService records trades opened by approved traders, settles
// their outcomes against the fund books, and books externally executed
// swaps.
type TradingService struct {
	base
}

// NewTradingService creates a TradingService.
func NewTradingService(d Deps) *TradingService {
	return &TradingService{base: newBase(d, "trading_service")}
}

// ExecuteTrade opens an unsettled trade record on behalf of the fund.
// No value moves until settlement.
func (s *TradingService) ExecuteTrade(ctx context.Context, groupID, wallet, description string, amount uint64, expectedBps int16) (domain.Trade, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return domain.Trade{}, err
	}
	defer unlock()

	var trade domain.Trade
	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		m, err := st.Members().Get(ctx, groupID, wallet)
		if err != nil {
			return err
		}
		t, err := engine.OpenTrade(&f, &m, uuid.NewString(), description, amount, expectedBps, s.now())
		if err != nil {
			return err
		}
		if err := st.Trades().Create(ctx, t); err != nil {
			return err
		}
		trade = t
		return nil
	})
	if err != nil {
		return domain.Trade{}, fmt.Errorf("trading_service: execute trade on %q: %w", groupID, err)
	}

	s.audit(ctx, "trade_opened", map[string]any{
		"group_id":     groupID,
		"trade_id":     trade.ID,
		"trader":       wallet,
		"amount":       amount,
		"expected_bps": expectedBps,
	})
	s.publish(ctx, "trade_opened", map[string]any{
		"group_id": groupID,
		"trade_id": trade.ID,
		"trader":   wallet,
		"amount":   amount,
	})
	s.log.InfoContext(ctx, "trade opened",
		slog.String("group_id", groupID),
		slog.String("trade_id", trade.ID),
		slog.String("trader", wallet),
		slog.Uint64("amount", amount),
	)
	return trade, nil
}

// SettleTrade applies a trade's realized outcome to the fund books and
// the trader's track record, exactly once per trade.
func (s *TradingService) SettleTrade(ctx context.Context, groupID, caller, tradeID string, pnlBps int64) (engine.SettlementResult, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return engine.SettlementResult{}, err
	}
	defer unlock()

	var (
		res  engine.SettlementResult
		fund domain.Fund
	)
	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		t, err := st.Trades().Get(ctx, tradeID)
		if err != nil {
			return err
		}
		if t.GroupID != groupID {
			return domain.ErrNotFound
		}
		m, err := st.Members().Get(ctx, groupID, t.Trader)
		if err != nil {
			return err
		}
		r, err := engine.SettleTrade(&f, &m, &t, caller, pnlBps)
		if err != nil {
			return err
		}
		if err := st.Funds().Update(ctx, f); err != nil {
			return err
		}
		if err := st.Members().Update(ctx, m); err != nil {
			return err
		}
		if err := st.Trades().Update(ctx, t); err != nil {
			return err
		}
		res = r
		fund = f
		return nil
	})
	if err != nil {
		return engine.SettlementResult{}, fmt.Errorf("trading_service: settle trade %q: %w", tradeID, err)
	}

	s.cacheFund(ctx, fund)
	s.audit(ctx, "trade_settled", map[string]any{
		"group_id":        groupID,
		"trade_id":        tradeID,
		"pnl_bps":         pnlBps,
		"pnl_amount":      res.PnLAmount,
		"loss":            res.Loss,
		"old_total_value": res.OldTotalValue,
		"new_total_value": res.NewTotalValue,
		"old_reputation":  res.OldReputation,
		"new_reputation":  res.NewReputation,
	})
	s.publish(ctx, "trade_settled", map[string]any{
		"group_id":   groupID,
		"trade_id":   tradeID,
		"pnl_bps":    pnlBps,
		"pnl_amount": res.PnLAmount,
		"loss":       res.Loss,
	})
	if res.Loss {
		s.notifyOps(ctx, "trade_settled", "Trade settled at a loss",
			fmt.Sprintf("Trade %s on fund %s lost %d", tradeID, groupID, res.PnLAmount))
	}
	s.log.InfoContext(ctx, "trade settled",
		slog.String("group_id", groupID),
		slog.String("trade_id", tradeID),
		slog.Int64("pnl_bps", pnlBps),
		slog.Uint64("pnl_amount", res.PnLAmount),
		slog.Bool("loss", res.Loss),
	)
	return res, nil
}

// RecordSwap books a swap executed by the external venue: amountIn left
// the vault, amountOut came back.
func (s *TradingService) RecordSwap(ctx context.Context, groupID, caller string, amountIn, amountOut uint64) (engine.SwapResult, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return engine.SwapResult{}, err
	}
	defer unlock()

	var (
		res  engine.SwapResult
		fund domain.Fund
	)
	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		r, err := engine.RecordSwap(&f, caller, amountIn, amountOut)
		if err != nil {
			return err
		}
		if err := st.Funds().Update(ctx, f); err != nil {
			return err
		}
		res = r
		fund = f
		return nil
	})
	if err != nil {
		return engine.SwapResult{}, fmt.Errorf("trading_service: record swap on %q: %w", groupID, err)
	}

	s.cacheFund(ctx, fund)
	s.audit(ctx, "swap_recorded", map[string]any{
		"group_id":        groupID,
		"amount_in":       amountIn,
		"amount_out":      amountOut,
		"old_total_value": res.OldTotalValue,
		"new_total_value": res.NewTotalValue,
	})
	s.publish(ctx, "swap_recorded", map[string]any{
		"group_id":   groupID,
		"amount_in":  amountIn,
		"amount_out": amountOut,
	})
	s.log.InfoContext(ctx, "swap recorded",
		slog.String("group_id", groupID),
		slog.Uint64("amount_in", amountIn),
		slog.Uint64("amount_out", amountOut),
	)
	return res, nil
}

// GetTrade returns one trade record.
func (s *TradingService) GetTrade(ctx context.Context, tradeID string) (domain.Trade, error) {
	var trade domain.Trade
	err := s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		t, err := st.Trades().Get(ctx, tradeID)
		if err != nil {
			return err
		}
		trade = t
		return nil
	})
	if err != nil {
		return domain.Trade{}, fmt.Errorf("trading_service: get trade %q: %w", tradeID, err)
	}
	return trade, nil
}

// ListTrades returns a fund's trades with pagination.
func (s *TradingService) ListTrades(ctx context.Context, groupID string, opts domain.ListOpts) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		ts, err := st.Trades().ListByFund(ctx, groupID, opts)
		if err != nil {
			return err
		}
		trades = ts
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("trading_service: list trades for %q: %w", groupID, err)
	}
	return trades, nil
}
