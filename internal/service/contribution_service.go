package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/engine"
)

// ContributionService handles deposits into and withdrawals out of the
// fund vault, with share accounting kept in lockstep with the moved
// value.
type ContributionService struct {
	base
}

// NewContributionService creates a ContributionService.
func NewContributionService(d Deps) *ContributionService {
	return &ContributionService{base: newBase(d, "contribution_service")}
}

// Contribute moves amount from the member's wallet into the fund vault
// and mints proportional shares. The transfer runs inside the unit of
// work, before the accounting commits, so a failed transfer leaves the
// books untouched.
func (s *ContributionService) Contribute(ctx context.Context, groupID, wallet string, amount uint64) (engine.ContributionResult, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return engine.ContributionResult{}, err
	}
	defer unlock()

	var (
		res  engine.ContributionResult
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
		r, err := engine.Contribute(&f, &m, amount)
		if err != nil {
			return err
		}
		if err := s.deps.Transfer.Deposit(ctx, wallet, groupID, amount); err != nil {
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
		return engine.ContributionResult{}, fmt.Errorf("contribution_service: contribute %d to %q: %w", amount, groupID, err)
	}

	s.cacheFund(ctx, fund)
	s.audit(ctx, "contribution", map[string]any{
		"group_id":      groupID,
		"wallet":        wallet,
		"amount":        amount,
		"shares_minted": res.SharesMinted,
		"total_shares":  res.TotalShares,
		"total_value":   res.TotalValue,
	})
	s.publish(ctx, "contribution", map[string]any{
		"group_id": groupID,
		"wallet":   wallet,
		"amount":   amount,
		"shares":   res.SharesMinted,
	})
	s.log.InfoContext(ctx, "contribution accepted",
		slog.String("group_id", groupID),
		slog.String("wallet", wallet),
		slog.Uint64("amount", amount),
		slog.Uint64("shares_minted", res.SharesMinted),
	)
	return res, nil
}

// Withdraw burns shares and pays the proportional value out of the vault
// to the member's wallet. Withdrawal is an exit path and works on paused
// funds and deactivated members alike.
func (s *ContributionService) Withdraw(ctx context.Context, groupID, wallet string, shares uint64) (engine.WithdrawalResult, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return engine.WithdrawalResult{}, err
	}
	defer unlock()

	var (
		res  engine.WithdrawalResult
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
		r, err := engine.Withdraw(&f, &m, shares)
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
		return engine.WithdrawalResult{}, fmt.Errorf("contribution_service: withdraw %d shares from %q: %w", shares, groupID, err)
	}

	s.cacheFund(ctx, fund)
	s.audit(ctx, "withdrawal", map[string]any{
		"group_id":      groupID,
		"wallet":        wallet,
		"shares_burned": res.SharesBurned,
		"payout":        res.Payout,
		"total_shares":  res.TotalShares,
		"total_value":   res.TotalValue,
	})
	s.publish(ctx, "withdrawal", map[string]any{
		"group_id": groupID,
		"wallet":   wallet,
		"shares":   res.SharesBurned,
		"payout":   res.Payout,
	})
	s.log.InfoContext(ctx, "withdrawal paid",
		slog.String("group_id", groupID),
		slog.String("wallet", wallet),
		slog.Uint64("shares_burned", res.SharesBurned),
		slog.Uint64("payout", res.Payout),
	)
	return res, nil
}
