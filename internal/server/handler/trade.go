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

// TradingService defines the methods that the trade handler requires from
// the service layer.
type TradingService interface {
	ExecuteTrade(ctx context.Context, groupID, wallet, description string, amount uint64, expectedBps int16) (domain.Trade, error)
	SettleTrade(ctx context.Context, groupID, caller, tradeID string, pnlBps int64) (engine.SettlementResult, error)
	RecordSwap(ctx context.Context, groupID, caller string, amountIn, amountOut uint64) (engine.SwapResult, error)
	GetTrade(ctx context.Context, tradeID string) (domain.Trade, error)
	ListTrades(ctx context.Context, groupID string, opts domain.ListOpts) ([]domain.Trade, error)
}

// TradeHandler serves trade HTTP endpoints.
type TradeHandler struct {
	trades TradingService
	logger *slog.Logger
}

// NewTradeHandler creates a TradeHandler with the given service and logger.
func NewTradeHandler(trades TradingService, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{
		trades: trades,
		logger: logger,
	}
}

// tradeView is the JSON representation of a trade record.
type tradeView struct {
	ID                 string `json:"id"`
	GroupID            string `json:"group_id"`
	Trader             string `json:"trader"`
	Description        string `json:"description"`
	Amount             uint64 `json:"amount"`
	ExpectedOutcomeBps int16  `json:"expected_outcome_bps"`
	ActualPnLBps       int64  `json:"actual_pnl_bps"`
	Timestamp          string `json:"timestamp"`
	IsSettled          bool   `json:"is_settled"`
}

func viewTrade(t domain.Trade) tradeView {
	return tradeView{
		ID:                 t.ID,
		GroupID:            t.GroupID,
		Trader:             t.Trader,
		Description:        t.Description,
		Amount:             t.Amount,
		ExpectedOutcomeBps: t.ExpectedOutcomeBps,
		ActualPnLBps:       t.ActualPnLBps,
		Timestamp:          t.Timestamp.UTC().Format(time.RFC3339),
		IsSettled:          t.IsSettled,
	}
}

// executeTradeRequest is the JSON body for opening a trade record.
type executeTradeRequest struct {
	Wallet      string `json:"wallet"`
	Description string `json:"description"`
	Amount      uint64 `json:"amount"`
	ExpectedBps int16  `json:"expected_bps"`
}

// listTradesResponse wraps the list trades response.
type listTradesResponse struct {
	Trades []tradeView `json:"trades"`
}

// ExecuteTrade opens a trade record on the fund's behalf.
// POST /api/funds/{group_id}/trades
func (h *TradeHandler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	var req executeTradeRequest
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

	trade, err := h.trades.ExecuteTrade(r.Context(), groupID, req.Wallet, req.Description, req.Amount, req.ExpectedBps)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to execute trade")
		return
	}

	writeJSON(w, http.StatusCreated, viewTrade(trade))
}

// settleTradeRequest is the JSON body for settlement.
type settleTradeRequest struct {
	Caller string `json:"caller"`
	PnLBps int64  `json:"pnl_bps"`
}

// settleTradeResponse reports the settlement outcome.
type settleTradeResponse struct {
	PnLAmount     uint64 `json:"pnl_amount"`
	Loss          bool   `json:"loss"`
	OldTotalValue uint64 `json:"old_total_value"`
	NewTotalValue uint64 `json:"new_total_value"`
	OldReputation uint64 `json:"old_reputation"`
	NewReputation uint64 `json:"new_reputation"`
	SuccessfulCnt uint32 `json:"successful_trades"`
	FailedCnt     uint32 `json:"failed_trades"`
}

// SettleTrade applies the realized PnL of a trade to the fund books.
// POST /api/funds/{group_id}/trades/{id}/settle
func (h *TradeHandler) SettleTrade(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	tradeID := pathParam(r, "id")

	var req settleTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	res, err := h.trades.SettleTrade(r.Context(), groupID, req.Caller, tradeID, req.PnLBps)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to settle trade")
		return
	}

	writeJSON(w, http.StatusOK, settleTradeResponse{
		PnLAmount:     res.PnLAmount,
		Loss:          res.Loss,
		OldTotalValue: res.OldTotalValue,
		NewTotalValue: res.NewTotalValue,
		OldReputation: res.OldReputation,
		NewReputation: res.NewReputation,
		SuccessfulCnt: res.SuccessfulCnt,
		FailedCnt:     res.FailedCnt,
	})
}

// recordSwapRequest is the JSON body for recording a swap outcome.
type recordSwapRequest struct {
	Caller    string `json:"caller"`
	AmountIn  uint64 `json:"amount_in"`
	AmountOut uint64 `json:"amount_out"`
}

// recordSwapResponse reports the book movement of a swap.
type recordSwapResponse struct {
	AmountIn      uint64 `json:"amount_in"`
	AmountOut     uint64 `json:"amount_out"`
	OldTotalValue uint64 `json:"old_total_value"`
	NewTotalValue uint64 `json:"new_total_value"`
}

// RecordSwap records an externally executed swap against the fund books.
// POST /api/funds/{group_id}/swaps
func (h *TradeHandler) RecordSwap(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	var req recordSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	res, err := h.trades.RecordSwap(r.Context(), groupID, req.Caller, req.AmountIn, req.AmountOut)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to record swap")
		return
	}

	writeJSON(w, http.StatusOK, recordSwapResponse{
		AmountIn:      res.AmountIn,
		AmountOut:     res.AmountOut,
		OldTotalValue: res.OldTotalValue,
		NewTotalValue: res.NewTotalValue,
	})
}

// GetTrade returns a single trade by its ID.
// GET /api/trades/{id}
func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing trade id")
		return
	}

	trade, err := h.trades.GetTrade(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to get trade")
		return
	}

	writeJSON(w, http.StatusOK, viewTrade(trade))
}

// ListTrades returns a fund's trades, newest first.
// GET /api/funds/{group_id}/trades?limit=50&offset=0
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	trades, err := h.trades.ListTrades(r.Context(), groupID, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to list trades")
		return
	}

	views := make([]tradeView, 0, len(trades))
	for _, t := range trades {
		views = append(views, viewTrade(t))
	}

	writeJSON(w, http.StatusOK, listTradesResponse{Trades: views})
}
