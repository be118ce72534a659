package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps known domain sentinels to HTTP statuses and
// responds with the sentinel text. Unrecognized errors are logged and
// reported as the fallback message with a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	if status, ok := errStatus(err); ok {
		writeError(w, status, err.Error())
		return
	}
	logger.ErrorContext(r.Context(), "handler: "+fallback,
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, fallback)
}

// errStatus returns the HTTP status for a known domain error sentinel.
func errStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrLockHeld):
		return http.StatusConflict, true
	case errors.Is(err, domain.ErrNotAuthority),
		errors.Is(err, domain.ErrNotApprovedTrader),
		errors.Is(err, domain.ErrSelfApproval),
		errors.Is(err, domain.ErrMemberNotActive):
		return http.StatusForbidden, true
	case errors.Is(err, domain.ErrBelowMinContribution),
		errors.Is(err, domain.ErrInvalidThreshold),
		errors.Is(err, domain.ErrTraderListFull),
		errors.Is(err, domain.ErrTraderAlreadyListed),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidFeeBps),
		errors.Is(err, domain.ErrLabelTooLong),
		errors.Is(err, domain.ErrDescriptionTooLong),
		errors.Is(err, domain.ErrInsufficientShares),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrArithmeticOverflow):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrFundNotActive),
		errors.Is(err, domain.ErrProposalNotPending),
		errors.Is(err, domain.ErrProposalExpired),
		errors.Is(err, domain.ErrProposalNotApproved),
		errors.Is(err, domain.ErrAlreadyApproved),
		errors.Is(err, domain.ErrApprovalListFull),
		errors.Is(err, domain.ErrTradeAlreadySettled),
		errors.Is(err, domain.ErrFundNotEmpty),
		errors.Is(err, domain.ErrSharesRemaining),
		errors.Is(err, domain.ErrNoProfit):
		return http.StatusConflict, true
	}
	return 0, false
}

// parseListOpts extracts standard pagination parameters from the query string.
// Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// pathParamUint extracts a named path parameter and parses it as uint64.
func pathParamUint(r *http.Request, name string) (uint64, error) {
	return strconv.ParseUint(r.PathValue(name), 10, 64)
}
