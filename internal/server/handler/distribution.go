package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/groupfund/internal/engine"
)

// DistributionService defines the methods that the distribution handler
// requires from the service layer.
type DistributionService interface {
	DistributeValue(ctx context.Context, groupID, wallet string) (engine.DistributionResult, error)
	DistributeProfits(ctx context.Context, groupID, wallet string) (engine.ProfitDistributionResult, error)
}

// DistributionHandler serves payout HTTP endpoints.
type DistributionHandler struct {
	dists  DistributionService
	logger *slog.Logger
}

// NewDistributionHandler creates a DistributionHandler with the given
// service and logger.
func NewDistributionHandler(dists DistributionService, logger *slog.Logger) *DistributionHandler {
	return &DistributionHandler{
		dists:  dists,
		logger: logger,
	}
}

// distributeRequest is the JSON body for both distribution endpoints.
type distributeRequest struct {
	Wallet string `json:"wallet"`
}

// distributeValueResponse reports a full-position payout.
type distributeValueResponse struct {
	SharesBurned uint64 `json:"shares_burned"`
	CostBasis    uint64 `json:"cost_basis"`
	CurrentValue uint64 `json:"current_value"`
	Profit       uint64 `json:"profit"`
	Fee          uint64 `json:"fee"`
	Payout       uint64 `json:"payout"`
	TotalShares  uint64 `json:"total_shares"`
	TotalValue   uint64 `json:"total_value"`
}

// DistributeValue pays out a member's entire position, net of the trading
// fee on profit.
// POST /api/funds/{group_id}/distributions/value
func (h *DistributionHandler) DistributeValue(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet is required")
		return
	}

	res, err := h.dists.DistributeValue(r.Context(), groupID, req.Wallet)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to distribute value")
		return
	}

	writeJSON(w, http.StatusOK, distributeValueResponse{
		SharesBurned: res.SharesBurned,
		CostBasis:    res.CostBasis,
		CurrentValue: res.CurrentValue,
		Profit:       res.Profit,
		Fee:          res.Fee,
		Payout:       res.Payout,
		TotalShares:  res.TotalShares,
		TotalValue:   res.TotalValue,
	})
}

// distributeProfitsResponse reports a profit-only payout.
type distributeProfitsResponse struct {
	Shares       uint64 `json:"shares"`
	CostBasis    uint64 `json:"cost_basis"`
	CurrentValue uint64 `json:"current_value"`
	GrossProfit  uint64 `json:"gross_profit"`
	Fee          uint64 `json:"fee"`
	NetProfit    uint64 `json:"net_profit"`
}

// DistributeProfits pays out only the profit above a member's cost basis
// while the member keeps all shares.
// POST /api/funds/{group_id}/distributions/profits
func (h *DistributionHandler) DistributeProfits(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet is required")
		return
	}

	res, err := h.dists.DistributeProfits(r.Context(), groupID, req.Wallet)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to distribute profits")
		return
	}

	writeJSON(w, http.StatusOK, distributeProfitsResponse{
		Shares:       res.Shares,
		CostBasis:    res.CostBasis,
		CurrentValue: res.CurrentValue,
		GrossProfit:  res.GrossProfit,
		Fee:          res.Fee,
		NetProfit:    res.NetProfit,
	})
}
