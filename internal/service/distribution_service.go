package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/engine"
)

// DistributionService pays members out of the fund vault: full exits
// with a fee skim on profit, and profit-only distributions that leave
// positions in place.
type DistributionService struct {
	base
}

// NewDistributionService creates a DistributionService.
func NewDistributionService(d Deps) *DistributionService {
	return &DistributionService{base: newBase(d, "distribution_service")}
}

// DistributeValue pays out a member's entire position, fee on profit
// only. The fee stays in the vault as residual value for the remaining
// members.
func (s *DistributionService) DistributeValue(ctx context.Context, groupID, wallet string) (engine.DistributionResult, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return engine.DistributionResult{}, err
	}
	defer unlock()

	var (
		res  engine.DistributionResult
		fund domain.Fund
	)
	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		m, err := st.Members().Get(ctx, groupID, wallet)
		if err != nil {
			return err
		}
		r, err := engine.DistributeValue(&f, &m)
		if err != nil {
			return err
		}
		if err := s.deps.Transfer.Payout(ctx, groupID, wallet, r.Payout); err != nil {
			return err
		}
		if err := st.Funds().Update(ctx, f); err != nil {
			return err
		}
		if err := st.Members().Update(ctx, m); err != nil {
			return err
		}
		res = r
		fund = f
		return nil
	})
	if err != nil {
		return engine.DistributionResult{}, fmt.Errorf("distribution_service: distribute value to %q: %w", wallet, err)
	}

	s.cacheFund(ctx, fund)
	s.audit(ctx, "value_distributed", map[string]any{
		"group_id":      groupID,
		"wallet":        wallet,
		"shares_burned": res.SharesBurned,
		"cost_basis":    res.CostBasis,
		"current_value": res.CurrentValue,
		"profit":        res.Profit,
		"fee":           res.Fee,
		"payout":        res.Payout,
		"total_value":   res.TotalValue,
	})
	s.publish(ctx, "value_distributed", map[string]any{
		"group_id": groupID,
		"wallet":   wallet,
		"payout":   res.Payout,
		"fee":      res.Fee,
	})
	s.notifyOps(ctx, "value_distributed", "Position closed",
		fmt.Sprintf("Member %s exited fund %s: payout %d, fee %d", wallet, groupID, res.Payout, res.Fee))
	s.log.InfoContext(ctx, "value distributed",
		slog.String("group_id", groupID),
		slog.String("wallet", wallet),
		slog.Uint64("payout", res.Payout),
		slog.Uint64("fee", res.Fee),
	)
	return res, nil
}

// DistributeProfits pays a member the net profit above their cost basis
// while the position stays in place. The fund books do not change; only
// vault value moves. Absent an intervening value change a repeat call
// pays the same profit again, so sequencing is the operator's call.
func (s *DistributionService) DistributeProfits(ctx context.Context, groupID, wallet string) (engine.ProfitDistributionResult, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return engine.ProfitDistributionResult{}, err
	}
	defer unlock()

	var res engine.ProfitDistributionResult
	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		m, err := st.Members().Get(ctx, groupID, wallet)
		if err != nil {
			return err
		}
		r, err := engine.DistributeProfits(&f, &m)
		if err != nil {
			return err
		}
		if err := s.deps.Transfer.Payout(ctx, groupID, wallet, r.NetProfit); err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return engine.ProfitDistributionResult{}, fmt.Errorf("distribution_service: distribute profits to %q: %w", wallet, err)
	}

	s.audit(ctx, "profits_distributed", map[string]any{
		"group_id":      groupID,
		"wallet":        wallet,
		"cost_basis":    res.CostBasis,
		"current_value": res.CurrentValue,
		"gross_profit":  res.GrossProfit,
		"fee":           res.Fee,
		"net_profit":    res.NetProfit,
	})
	s.publish(ctx, "profits_distributed", map[string]any{
		"group_id":   groupID,
		"wallet":     wallet,
		"net_profit": res.NetProfit,
	})
	s.log.InfoContext(ctx, "profits distributed",
		slog.String("group_id", groupID),
		slog.String("wallet", wallet),
		slog.Uint64("net_profit", res.NetProfit),
	)
	return res, nil
}
