package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/engine"
)

// ProposalService defines the methods that the proposal handler requires
// from the service layer.
type ProposalService interface {
	ProposeTrade(ctx context.Context, groupID, wallet, fromToken, toToken string, amount, minimumOut uint64) (domain.TradeProposal, error)
	ApproveProposal(ctx context.Context, groupID, wallet string, proposalID uint64) (bool, error)
	RejectProposal(ctx context.Context, groupID, caller string, proposalID uint64) error
	ExecuteProposal(ctx context.Context, groupID, wallet string, proposalID uint64) (engine.ProposalExecution, error)
	GetProposal(ctx context.Context, groupID string, proposalID uint64) (domain.TradeProposal, error)
	ListProposals(ctx context.Context, groupID string, opts domain.ListOpts) ([]domain.TradeProposal, error)
}

// ProposalHandler serves trade proposal HTTP endpoints.
type ProposalHandler struct {
	proposals ProposalService
	logger    *slog.Logger
}

// NewProposalHandler creates a ProposalHandler with the given service and
// logger.
func NewProposalHandler(proposals ProposalService, logger *slog.Logger) *ProposalHandler {
	return &ProposalHandler{
		proposals: proposals,
		logger:    logger,
	}
}

// proposalView is the JSON representation of a trade proposal.
type proposalView struct {
	GroupID    string   `json:"group_id"`
	ProposalID uint64   `json:"proposal_id"`
	Proposer   string   `json:"proposer"`
	FromToken  string   `json:"from_token"`
	ToToken    string   `json:"to_token"`
	Amount     uint64   `json:"amount"`
	MinimumOut uint64   `json:"minimum_out"`
	Approvals  []string `json:"approvals"`
	Status     string   `json:"status"`
	CreatedAt  string   `json:"created_at"`
	ExpiresAt  string   `json:"expires_at"`
}

func viewProposal(p domain.TradeProposal) proposalView {
	approvals := p.Approvals
	if approvals == nil {
		approvals = []string{}
	}
	return proposalView{
		GroupID:    p.GroupID,
		ProposalID: p.ProposalID,
		Proposer:   p.Proposer,
		FromToken:  p.FromToken,
		ToToken:    p.ToToken,
		Amount:     p.Amount,
		MinimumOut: p.MinimumOut,
		Approvals:  approvals,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:  p.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// proposeTradeRequest is the JSON body for creating a proposal.
type proposeTradeRequest struct {
	Wallet     string `json:"wallet"`
	FromToken  string `json:"from_token"`
	ToToken    string `json:"to_token"`
	Amount     uint64 `json:"amount"`
	MinimumOut uint64 `json:"minimum_out"`
}

// listProposalsResponse wraps the list proposals response.
type listProposalsResponse struct {
	Proposals []proposalView `json:"proposals"`
}

// ProposeTrade creates a new trade proposal awaiting quorum approval.
// POST /api/funds/{group_id}/proposals
func (h *ProposalHandler) ProposeTrade(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	var req proposeTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Wallet == "" || req.FromToken == "" || req.ToToken == "" {
		writeError(w, http.StatusBadRequest, "wallet, from_token and to_token are required")
		return
	}
	if req.Amount == 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	proposal, err := h.proposals.ProposeTrade(r.Context(), groupID, req.Wallet, req.FromToken, req.ToToken, req.Amount, req.MinimumOut)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to propose trade")
		return
	}

	writeJSON(w, http.StatusCreated, viewProposal(proposal))
}

// approveRequest is the JSON body for an approval.
type approveRequest struct {
	Wallet string `json:"wallet"`
}

// ApproveProposal records an approval and reports whether quorum was reached.
// POST /api/funds/{group_id}/proposals/{id}/approve
func (h *ProposalHandler) ApproveProposal(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	proposalID, err := pathParamUint(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet is required")
		return
	}

	quorum, err := h.proposals.ApproveProposal(r.Context(), groupID, req.Wallet, proposalID)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to approve proposal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "approved",
		"proposal_id":    proposalID,
		"quorum_reached": quorum,
	})
}

// RejectProposal lets the fund authority reject a pending proposal.
// POST /api/funds/{group_id}/proposals/{id}/reject
func (h *ProposalHandler) RejectProposal(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	proposalID, err := pathParamUint(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}

	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	if err := h.proposals.RejectProposal(r.Context(), groupID, req.Caller, proposalID); err != nil {
		writeDomainError(w, r, h.logger, err, "failed to reject proposal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "rejected",
		"proposal_id": proposalID,
	})
}

// executeProposalResponse reports the book movement of an executed proposal.
type executeProposalResponse struct {
	Amount        uint64 `json:"amount"`
	MinimumOut    uint64 `json:"minimum_out"`
	OldTotalValue uint64 `json:"old_total_value"`
	NewTotalValue uint64 `json:"new_total_value"`
}

// ExecuteProposal executes an approved proposal against the fund vault.
// POST /api/funds/{group_id}/proposals/{id}/execute
func (h *ProposalHandler) ExecuteProposal(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	proposalID, err := pathParamUint(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet is required")
		return
	}

	res, err := h.proposals.ExecuteProposal(r.Context(), groupID, req.Wallet, proposalID)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to execute proposal")
		return
	}

	writeJSON(w, http.StatusOK, executeProposalResponse{
		Amount:        res.Amount,
		MinimumOut:    res.MinimumOut,
		OldTotalValue: res.OldTotalValue,
		NewTotalValue: res.NewTotalValue,
	})
}

// GetProposal returns a single proposal by its fund-scoped id.
// GET /api/funds/{group_id}/proposals/{id}
func (h *ProposalHandler) GetProposal(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	proposalID, err := pathParamUint(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid proposal id")
		return
	}

	proposal, err := h.proposals.GetProposal(r.Context(), groupID, proposalID)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to get proposal")
		return
	}

	writeJSON(w, http.StatusOK, viewProposal(proposal))
}

// ListProposals returns a fund's proposals, newest first.
// GET /api/funds/{group_id}/proposals?limit=50&offset=0
func (h *ProposalHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	proposals, err := h.proposals.ListProposals(r.Context(), groupID, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to list proposals")
		return
	}

	views := make([]proposalView, 0, len(proposals))
	for _, p := range proposals {
		views = append(views, viewProposal(p))
	}

	writeJSON(w, http.StatusOK, listProposalsResponse{Proposals: views})
}
