package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/groupfund/internal/engine"
)

// ContributionService defines the methods that the contribution handler
// requires from the service layer.
type ContributionService interface {
	Contribute(ctx context.Context, groupID, wallet string, amount uint64) (engine.ContributionResult, error)
	Withdraw(ctx context.Context, groupID, wallet string, shares uint64) (engine.WithdrawalResult, error)
}

// ContributionHandler serves contribution and withdrawal HTTP endpoints.
type ContributionHandler struct {
	contribs ContributionService
	logger   *slog.Logger
}

// NewContributionHandler creates a ContributionHandler with the given
// service and logger.
func NewContributionHandler(contribs ContributionService, logger *slog.Logger) *ContributionHandler {
	return &ContributionHandler{
		contribs: contribs,
		logger:   logger,
	}
}

// contributeRequest is the JSON body for a contribution.
type contributeRequest struct {
	Wallet string `json:"wallet"`
	Amount uint64 `json:"amount"`
}

// contributeResponse reports the share mint and resulting fund totals.
type contributeResponse struct {
	Amount       uint64 `json:"amount"`
	SharesMinted uint64 `json:"shares_minted"`
	MemberShares uint64 `json:"member_shares"`
	TotalShares  uint64 `json:"total_shares"`
	TotalValue   uint64 `json:"total_value"`
}

// Contribute deposits value into the fund vault and mints shares.
// POST /api/funds/{group_id}/contributions
func (h *ContributionHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet is required")
		return
	}
	if req.Amount == 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	res, err := h.contribs.Contribute(r.Context(), groupID, req.Wallet, req.Amount)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to contribute")
		return
	}

	writeJSON(w, http.StatusCreated, contributeResponse{
		Amount:       res.Amount,
		SharesMinted: res.SharesMinted,
		MemberShares: res.MemberShares,
		TotalShares:  res.TotalShares,
		TotalValue:   res.TotalValue,
	})
}

// withdrawRequest is the JSON body for a withdrawal.
type withdrawRequest struct {
	Wallet string `json:"wallet"`
	Shares uint64 `json:"shares"`
}

// withdrawResponse reports the share burn and payout.
type withdrawResponse struct {
	SharesBurned uint64 `json:"shares_burned"`
	Payout       uint64 `json:"payout"`
	MemberShares uint64 `json:"member_shares"`
	TotalShares  uint64 `json:"total_shares"`
	TotalValue   uint64 `json:"total_value"`
}

// Withdraw burns shares and pays out the proportional value.
// POST /api/funds/{group_id}/withdrawals
func (h *ContributionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet is required")
		return
	}
	if req.Shares == 0 {
		writeError(w, http.StatusBadRequest, "shares must be positive")
		return
	}

	res, err := h.contribs.Withdraw(r.Context(), groupID, req.Wallet, req.Shares)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to withdraw")
		return
	}

	writeJSON(w, http.StatusOK, withdrawResponse{
		SharesBurned: res.SharesBurned,
		Payout:       res.Payout,
		MemberShares: res.MemberShares,
		TotalShares:  res.TotalShares,
		TotalValue:   res.TotalValue,
	})
}
