package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// FundService defines the methods that the fund handler requires from the
// service layer.
type FundService interface {
	CreateFund(ctx context.Context, authority, groupID, name string, minContribution uint64, feeBps uint16) (domain.Fund, error)
	GetFund(ctx context.Context, groupID string) (domain.Fund, error)
	ListFunds(ctx context.Context, opts domain.ListOpts) ([]domain.Fund, error)
	PauseFund(ctx context.Context, groupID, caller string) error
	ResumeFund(ctx context.Context, groupID, caller string) error
	CloseFund(ctx context.Context, groupID, caller string) error
	AddApprovedTrader(ctx context.Context, groupID, caller, wallet string) error
	RemoveApprovedTrader(ctx context.Context, groupID, caller, wallet string) error
	SetApprovalThreshold(ctx context.Context, groupID, caller string, n uint8) error
}

// FundHandler serves fund lifecycle and governance HTTP endpoints.
type FundHandler struct {
	funds  FundService
	logger *slog.Logger
}

// NewFundHandler creates a FundHandler with the given service and logger.
func NewFundHandler(funds FundService, logger *slog.Logger) *FundHandler {
	return &FundHandler{
		funds:  funds,
		logger: logger,
	}
}

// fundView is the JSON representation of a fund.
type fundView struct {
	Authority         string   `json:"authority"`
	GroupID           string   `json:"group_id"`
	Name              string   `json:"name"`
	TotalShares       uint64   `json:"total_shares"`
	TotalValue        uint64   `json:"total_value"`
	MinContribution   uint64   `json:"min_contribution"`
	TradingFeeBps     uint16   `json:"trading_fee_bps"`
	IsActive          bool     `json:"is_active"`
	ApprovedTraders   []string `json:"approved_traders"`
	RequiredApprovals uint8    `json:"required_approvals"`
}

func viewFund(f domain.Fund) fundView {
	traders := f.ApprovedTraders
	if traders == nil {
		traders = []string{}
	}
	return fundView{
		Authority:         f.Authority,
		GroupID:           f.GroupID,
		Name:              f.Name,
		TotalShares:       f.TotalShares,
		TotalValue:        f.TotalValue,
		MinContribution:   f.MinContribution,
		TradingFeeBps:     f.TradingFeeBps,
		IsActive:          f.IsActive,
		ApprovedTraders:   traders,
		RequiredApprovals: f.RequiredApprovals,
	}
}

// createFundRequest is the JSON body for fund creation.
type createFundRequest struct {
	Authority       string `json:"authority"`
	GroupID         string `json:"group_id"`
	Name            string `json:"name"`
	MinContribution uint64 `json:"min_contribution"`
	FeeBps          uint16 `json:"fee_bps"`
}

// listFundsResponse wraps the list funds response.
type listFundsResponse struct {
	Funds []fundView `json:"funds"`
}

// CreateFund creates a new pooled fund for a group.
// POST /api/funds
func (h *FundHandler) CreateFund(w http.ResponseWriter, r *http.Request) {
	var req createFundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Authority == "" || req.GroupID == "" {
		writeError(w, http.StatusBadRequest, "authority and group_id are required")
		return
	}

	fund, err := h.funds.CreateFund(r.Context(), req.Authority, req.GroupID, req.Name, req.MinContribution, req.FeeBps)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to create fund")
		return
	}

	writeJSON(w, http.StatusCreated, viewFund(fund))
}

// GetFund returns a single fund by its group id.
// GET /api/funds/{group_id}
func (h *FundHandler) GetFund(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	if groupID == "" {
		writeError(w, http.StatusBadRequest, "missing group id")
		return
	}

	fund, err := h.funds.GetFund(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to get fund")
		return
	}

	writeJSON(w, http.StatusOK, viewFund(fund))
}

// ListFunds returns all funds, paginated.
// GET /api/funds?limit=50&offset=0
func (h *FundHandler) ListFunds(w http.ResponseWriter, r *http.Request) {
	funds, err := h.funds.ListFunds(r.Context(), parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to list funds")
		return
	}

	views := make([]fundView, 0, len(funds))
	for _, f := range funds {
		views = append(views, viewFund(f))
	}

	writeJSON(w, http.StatusOK, listFundsResponse{Funds: views})
}

// callerRequest is the JSON body for operations that only identify the caller.
type callerRequest struct {
	Caller string `json:"caller"`
}

// PauseFund suspends new activity on a fund.
// POST /api/funds/{group_id}/pause
func (h *FundHandler) PauseFund(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "paused", h.funds.PauseFund)
}

// ResumeFund reactivates a paused fund.
// POST /api/funds/{group_id}/resume
func (h *FundHandler) ResumeFund(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "active", h.funds.ResumeFund)
}

// lifecycle handles the shared shape of pause/resume requests.
func (h *FundHandler) lifecycle(w http.ResponseWriter, r *http.Request, status string, op func(ctx context.Context, groupID, caller string) error) {
	groupID := pathParam(r, "group_id")

	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	if err := op(r.Context(), groupID, req.Caller); err != nil {
		writeDomainError(w, r, h.logger, err, "failed to update fund status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"group_id": groupID,
	})
}

// CloseFund deletes an emptied fund.
// DELETE /api/funds/{group_id}?caller=...
func (h *FundHandler) CloseFund(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	caller := r.URL.Query().Get("caller")
	if caller == "" {
		writeError(w, http.StatusBadRequest, "caller query parameter required")
		return
	}

	if err := h.funds.CloseFund(r.Context(), groupID, caller); err != nil {
		writeDomainError(w, r, h.logger, err, "failed to close fund")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "closed",
		"group_id": groupID,
	})
}

// traderRequest is the JSON body for allowlist changes.
type traderRequest struct {
	Caller string `json:"caller"`
	Wallet string `json:"wallet"`
}

// AddApprovedTrader adds a wallet to the fund's trading allowlist.
// POST /api/funds/{group_id}/traders
func (h *FundHandler) AddApprovedTrader(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	var req traderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" || req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "caller and wallet are required")
		return
	}

	if err := h.funds.AddApprovedTrader(r.Context(), groupID, req.Caller, req.Wallet); err != nil {
		writeDomainError(w, r, h.logger, err, "failed to add approved trader")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "added",
		"wallet": req.Wallet,
	})
}

// RemoveApprovedTrader removes a wallet from the fund's trading allowlist.
// DELETE /api/funds/{group_id}/traders/{wallet}?caller=...
func (h *FundHandler) RemoveApprovedTrader(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	wallet := pathParam(r, "wallet")
	caller := r.URL.Query().Get("caller")
	if caller == "" {
		writeError(w, http.StatusBadRequest, "caller query parameter required")
		return
	}

	if err := h.funds.RemoveApprovedTrader(r.Context(), groupID, caller, wallet); err != nil {
		writeDomainError(w, r, h.logger, err, "failed to remove approved trader")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "removed",
		"wallet": wallet,
	})
}

// thresholdRequest is the JSON body for quorum updates.
type thresholdRequest struct {
	Caller            string `json:"caller"`
	RequiredApprovals uint8  `json:"required_approvals"`
}

// SetApprovalThreshold updates the proposal quorum for the fund.
// PUT /api/funds/{group_id}/threshold
func (h *FundHandler) SetApprovalThreshold(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	var req thresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	if err := h.funds.SetApprovalThreshold(r.Context(), groupID, req.Caller, req.RequiredApprovals); err != nil {
		writeDomainError(w, r, h.logger, err, "failed to set approval threshold")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "updated",
		"required_approvals": req.RequiredApprovals,
	})
}
