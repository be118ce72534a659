package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/engine"
)

// FundService manages fund lifecycle, the trading allowlist, and the
// approval quorum.
type FundService struct {
	base
}

// NewFundService creates a FundService.
func NewFundService(d Deps) *FundService {
	return &FundService{base: newBase(d, "fund_service")}
}

// CreateFund initializes the fund for a group. Exactly one fund may
// exist per group id.
func (s *FundService) CreateFund(ctx context.Context, authority, groupID, name string, minContribution uint64, feeBps uint16) (domain.Fund, error) {
	fund, err := engine.NewFund(authority, groupID, name, minContribution, feeBps)
	if err != nil {
		return domain.Fund{}, fmt.Errorf("fund_service: create %q: %w", groupID, err)
	}

	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		return st.Funds().Create(ctx, fund)
	})
	if err != nil {
		return domain.Fund{}, fmt.Errorf("fund_service: create %q: %w", groupID, err)
	}

	s.cacheFund(ctx, fund)
	s.audit(ctx, "fund_created", map[string]any{
		"group_id":         groupID,
		"authority":        authority,
		"min_contribution": minContribution,
		"trading_fee_bps":  feeBps,
	})
	s.publish(ctx, "fund_created", map[string]any{"group_id": groupID})
	s.notifyOps(ctx, "fund_created", "Fund created",
		fmt.Sprintf("Fund %q initialized for group %s", name, groupID))

	s.log.InfoContext(ctx, "fund created",
		slog.String("group_id", groupID),
		slog.String("authority", authority),
	)
	return fund, nil
}

// GetFund returns a fund snapshot, preferring the cache.
func (s *FundService) GetFund(ctx context.Context, groupID string) (domain.Fund, error) {
	if s.deps.Cache != nil {
		if f, err := s.deps.Cache.Get(ctx, groupID); err == nil {
			return f, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.log.WarnContext(ctx, "fund cache read failed",
				slog.String("group_id", groupID),
				slog.String("error", err.Error()),
			)
		}
	}

	var fund domain.Fund
	err := s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		fund = f
		return nil
	})
	if err != nil {
		return domain.Fund{}, fmt.Errorf("fund_service: get %q: %w", groupID, err)
	}
	s.cacheFund(ctx, fund)
	return fund, nil
}

// ListFunds returns funds with pagination.
func (s *FundService) ListFunds(ctx context.Context, opts domain.ListOpts) ([]domain.Fund, error) {
	var funds []domain.Fund
	err := s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		fs, err := st.Funds().List(ctx, opts)
		if err != nil {
			return err
		}
		funds = fs
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fund_service: list: %w", err)
	}
	return funds, nil
}

// mutateFund loads the fund, applies fn, and persists the result. The
// snapshot of the updated fund is returned for auditing.
func (s *FundService) mutateFund(ctx context.Context, groupID string, fn func(f *domain.Fund) error) (domain.Fund, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return domain.Fund{}, err
	}
	defer unlock()

	var fund domain.Fund
	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		if err := fn(&f); err != nil {
			return err
		}
		if err := st.Funds().Update(ctx, f); err != nil {
			return err
		}
		fund = f
		return nil
	})
	if err != nil {
		return domain.Fund{}, err
	}
	s.cacheFund(ctx, fund)
	return fund, nil
}

// PauseFund halts new activity on the fund. Withdrawals stay open.
func (s *FundService) PauseFund(ctx context.Context, groupID, caller string) error {
	_, err := s.mutateFund(ctx, groupID, func(f *domain.Fund) error {
		return engine.PauseFund(f, caller)
	})
	if err != nil {
		return fmt.Errorf("fund_service: pause %q: %w", groupID, err)
	}
	s.audit(ctx, "fund_paused", map[string]any{"group_id": groupID, "caller": caller})
	s.publish(ctx, "fund_paused", map[string]any{"group_id": groupID})
	s.log.InfoContext(ctx, "fund paused", slog.String("group_id", groupID))
	return nil
}

// ResumeFund reactivates a paused fund.
func (s *FundService) ResumeFund(ctx context.Context, groupID, caller string) error {
	_, err := s.mutateFund(ctx, groupID, func(f *domain.Fund) error {
		return engine.ResumeFund(f, caller)
	})
	if err != nil {
		return fmt.Errorf("fund_service: resume %q: %w", groupID, err)
	}
	s.audit(ctx, "fund_resumed", map[string]any{"group_id": groupID, "caller": caller})
	s.publish(ctx, "fund_resumed", map[string]any{"group_id": groupID})
	s.log.InfoContext(ctx, "fund resumed", slog.String("group_id", groupID))
	return nil
}

// CloseFund removes an empty fund: every unit of value must be paid out
// and every share burned first.
func (s *FundService) CloseFund(ctx context.Context, groupID, caller string) error {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		if err := engine.CloseFund(&f, caller); err != nil {
			return err
		}
		return st.Funds().Delete(ctx, groupID)
	})
	if err != nil {
		return fmt.Errorf("fund_service: close %q: %w", groupID, err)
	}

	s.dropFund(ctx, groupID)
	s.audit(ctx, "fund_closed", map[string]any{"group_id": groupID, "caller": caller})
	s.publish(ctx, "fund_closed", map[string]any{"group_id": groupID})
	s.notifyOps(ctx, "fund_closed", "Fund closed",
		fmt.Sprintf("Fund for group %s has been closed", groupID))
	s.log.InfoContext(ctx, "fund closed", slog.String("group_id", groupID))
	return nil
}

// AddApprovedTrader puts a wallet on the fund's trading allowlist.
func (s *FundService) AddApprovedTrader(ctx context.Context, groupID, caller, wallet string) error {
	fund, err := s.mutateFund(ctx, groupID, func(f *domain.Fund) error {
		return engine.AddApprovedTrader(f, caller, wallet)
	})
	if err != nil {
		return fmt.Errorf("fund_service: add trader %q: %w", wallet, err)
	}
	s.audit(ctx, "trader_added", map[string]any{
		"group_id":    groupID,
		"wallet":      wallet,
		"roster_size": len(fund.ApprovedTraders),
	})
	s.publish(ctx, "trader_added", map[string]any{"group_id": groupID, "wallet": wallet})
	s.log.InfoContext(ctx, "trader added",
		slog.String("group_id", groupID),
		slog.String("wallet", wallet),
		slog.Int("roster_size", len(fund.ApprovedTraders)),
	)
	return nil
}

// RemoveApprovedTrader takes a wallet off the allowlist; removal is
// idempotent and clamps the quorum to the shrunken roster when needed.
func (s *FundService) RemoveApprovedTrader(ctx context.Context, groupID, caller, wallet string) error {
	fund, err := s.mutateFund(ctx, groupID, func(f *domain.Fund) error {
		return engine.RemoveApprovedTrader(f, caller, wallet)
	})
	if err != nil {
		return fmt.Errorf("fund_service: remove trader %q: %w", wallet, err)
	}
	s.audit(ctx, "trader_removed", map[string]any{
		"group_id":           groupID,
		"wallet":             wallet,
		"roster_size":        len(fund.ApprovedTraders),
		"required_approvals": fund.RequiredApprovals,
	})
	s.publish(ctx, "trader_removed", map[string]any{"group_id": groupID, "wallet": wallet})
	s.log.InfoContext(ctx, "trader removed",
		slog.String("group_id", groupID),
		slog.String("wallet", wallet),
	)
	return nil
}

// SetApprovalThreshold sets the proposal quorum for the fund.
func (s *FundService) SetApprovalThreshold(ctx context.Context, groupID, caller string, n uint8) error {
	_, err := s.mutateFund(ctx, groupID, func(f *domain.Fund) error {
		return engine.SetApprovalThreshold(f, caller, n)
	})
	if err != nil {
		return fmt.Errorf("fund_service: set threshold %d: %w", n, err)
	}
	s.audit(ctx, "approval_threshold_set", map[string]any{
		"group_id":           groupID,
		"required_approvals": n,
	})
	s.publish(ctx, "approval_threshold_set", map[string]any{"group_id": groupID, "required_approvals": n})
	s.log.InfoContext(ctx, "approval threshold set",
		slog.String("group_id", groupID),
		slog.Int("required_approvals", int(n)),
	)
	return nil
}
