package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/engine"
	"github.com/alanyoungcy/groupfund/internal/guard"
)

// ProposalService runs the quorum-gated trade workflow: propose,
// approve, reject, execute. Execution moves value through the configured
// pool account: the proposal amount leaves the vault, the agreed minimum
// out returns.
type ProposalService struct {
	base
	poolAccount string
}

// NewProposalService creates a ProposalService. poolAccount is the
// counterparty wallet swaps settle through.
func NewProposalService(d Deps, poolAccount string) *ProposalService {
	return &ProposalService{
		base:        newBase(d, "proposal_service"),
		poolAccount: poolAccount,
	}
}

// ProposeTrade opens a proposal and assigns it the fund's next id.
func (s *ProposalService) ProposeTrade(ctx context.Context, groupID, wallet, fromToken, toToken string, amount, minimumOut uint64) (domain.TradeProposal, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return domain.TradeProposal{}, err
	}
	defer unlock()

	var proposal domain.TradeProposal
	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		m, err := st.Members().Get(ctx, groupID, wallet)
		if err != nil {
			return err
		}
		p, err := engine.ProposeTrade(&f, &m, fromToken, toToken, amount, minimumOut, s.now())
		if err != nil {
			return err
		}
		// The fund carries the proposal id counter.
		if err := st.Funds().Update(ctx, f); err != nil {
			return err
		}
		if err := st.Proposals().Create(ctx, p); err != nil {
			return err
		}
		proposal = p
		return nil
	})
	if err != nil {
		return domain.TradeProposal{}, fmt.Errorf("proposal_service: propose on %q: %w", groupID, err)
	}

	s.audit(ctx, "proposal_created", map[string]any{
		"group_id":    groupID,
		"proposal_id": proposal.ProposalID,
		"proposer":    wallet,
		"from_token":  fromToken,
		"to_token":    toToken,
		"amount":      amount,
		"minimum_out": minimumOut,
	})
	s.publish(ctx, "proposal_created", map[string]any{
		"group_id":    groupID,
		"proposal_id": proposal.ProposalID,
		"proposer":    wallet,
	})
	s.notifyOps(ctx, "proposal_created", "Trade proposed",
		fmt.Sprintf("Proposal %d on fund %s: %d %s -> %s", proposal.ProposalID, groupID, amount, fromToken, toToken))
	s.log.InfoContext(ctx, "proposal created",
		slog.String("group_id", groupID),
		slog.Uint64("proposal_id", proposal.ProposalID),
		slog.String("proposer", wallet),
	)
	return proposal, nil
}

// ApproveProposal records one approval. The returned flag reports
// whether this approval reached the quorum.
func (s *ProposalService) ApproveProposal(ctx context.Context, groupID, wallet string, proposalID uint64) (bool, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return false, err
	}
	defer unlock()

	var quorum bool
	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		m, err := st.Members().Get(ctx, groupID, wallet)
		if err != nil {
			return err
		}
		p, err := st.Proposals().Get(ctx, groupID, proposalID)
		if err != nil {
			return err
		}
		q, err := engine.ApproveProposal(&f, &m, &p, s.now())
		if err != nil {
			return err
		}
		if err := st.Proposals().Update(ctx, p); err != nil {
			return err
		}
		quorum = q
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("proposal_service: approve %d on %q: %w", proposalID, groupID, err)
	}

	s.audit(ctx, "proposal_approved", map[string]any{
		"group_id":       groupID,
		"proposal_id":    proposalID,
		"approver":       wallet,
		"quorum_reached": quorum,
	})
	s.publish(ctx, "proposal_approved", map[string]any{
		"group_id":       groupID,
		"proposal_id":    proposalID,
		"approver":       wallet,
		"quorum_reached": quorum,
	})
	if quorum {
		s.notifyOps(ctx, "proposal_approved", "Proposal reached quorum",
			fmt.Sprintf("Proposal %d on fund %s is ready to execute", proposalID, groupID))
	}
	s.log.InfoContext(ctx, "proposal approval recorded",
		slog.String("group_id", groupID),
		slog.Uint64("proposal_id", proposalID),
		slog.String("approver", wallet),
		slog.Bool("quorum_reached", quorum),
	)
	return quorum, nil
}

// RejectProposal lets the fund authority veto a pending proposal.
func (s *ProposalService) RejectProposal(ctx context.Context, groupID, caller string, proposalID uint64) error {
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
		p, err := st.Proposals().Get(ctx, groupID, proposalID)
		if err != nil {
			return err
		}
		if err := engine.RejectProposal(&f, caller, &p); err != nil {
			return err
		}
		return st.Proposals().Update(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("proposal_service: reject %d on %q: %w", proposalID, groupID, err)
	}

	s.audit(ctx, "proposal_rejected", map[string]any{
		"group_id":    groupID,
		"proposal_id": proposalID,
		"caller":      caller,
	})
	s.publish(ctx, "proposal_rejected", map[string]any{
		"group_id":    groupID,
		"proposal_id": proposalID,
	})
	s.log.InfoContext(ctx, "proposal rejected",
		slog.String("group_id", groupID),
		slog.Uint64("proposal_id", proposalID),
	)
	return nil
}

// ExecuteProposal settles an approved proposal. The caller must hold
// trading capability on the fund. The amount is paid from the vault to
// the pool account and the agreed minimum out is deposited back before
// the book change commits; a failed leg aborts the whole call.
func (s *ProposalService) ExecuteProposal(ctx context.Context, groupID, wallet string, proposalID uint64) (engine.ProposalExecution, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return engine.ProposalExecution{}, err
	}
	defer unlock()

	var (
		res  engine.ProposalExecution
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
		if err := guard.ActiveMember(&m); err != nil {
			return err
		}
		if err := guard.TradingCapability(&f, &m); err != nil {
			return err
		}
		p, err := st.Proposals().Get(ctx, groupID, proposalID)
		if err != nil {
			return err
		}
		r, err := engine.ExecuteProposal(&f, &p)
		if err != nil {
			return err
		}
		if err := s.deps.Transfer.Payout(ctx, groupID, s.poolAccount, r.Amount); err != nil {
			return err
		}
		if err := s.deps.Transfer.Deposit(ctx, s.poolAccount, groupID, r.MinimumOut); err != nil {
			return err
		}
		if err := st.Funds().Update(ctx, f); err != nil {
			return err
		}
		if err := st.Proposals().Update(ctx, p); err != nil {
			return err
		}
		res = r
		fund = f
		return nil
	})
	if err != nil {
		return engine.ProposalExecution{}, fmt.Errorf("proposal_service: execute %d on %q: %w", proposalID, groupID, err)
	}

	s.cacheFund(ctx, fund)
	s.audit(ctx, "proposal_executed", map[string]any{
		"group_id":        groupID,
		"proposal_id":     proposalID,
		"executor":        wallet,
		"amount":          res.Amount,
		"minimum_out":     res.MinimumOut,
		"old_total_value": res.OldTotalValue,
		"new_total_value": res.NewTotalValue,
	})
	s.publish(ctx, "proposal_executed", map[string]any{
		"group_id":    groupID,
		"proposal_id": proposalID,
		"amount":      res.Amount,
		"minimum_out": res.MinimumOut,
	})
	s.notifyOps(ctx, "proposal_executed", "Proposal executed",
		fmt.Sprintf("Proposal %d on fund %s executed: %d out, %d back", proposalID, groupID, res.Amount, res.MinimumOut))
	s.log.InfoContext(ctx, "proposal executed",
		slog.String("group_id", groupID),
		slog.Uint64("proposal_id", proposalID),
		slog.Uint64("amount", res.Amount),
		slog.Uint64("minimum_out", res.MinimumOut),
	)
	return res, nil
}

// GetProposal returns one proposal.
func (s *ProposalService) GetProposal(ctx context.Context, groupID string, proposalID uint64) (domain.TradeProposal, error) {
	var proposal domain.TradeProposal
	err := s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		p, err := st.Proposals().Get(ctx, groupID, proposalID)
		if err != nil {
			return err
		}
		proposal = p
		return nil
	})
	if err != nil {
		return domain.TradeProposal{}, fmt.Errorf("proposal_service: get %d on %q: %w", proposalID, groupID, err)
	}
	return proposal, nil
}

// ListProposals returns a fund's proposals with pagination.
func (s *ProposalService) ListProposals(ctx context.Context, groupID string, opts domain.ListOpts) ([]domain.TradeProposal, error) {
	var proposals []domain.TradeProposal
	err := s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		ps, err := st.Proposals().ListByFund(ctx, groupID, opts)
		if err != nil {
			return err
		}
		proposals = ps
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("proposal_service: list on %q: %w", groupID, err)
	}
	return proposals, nil
}
