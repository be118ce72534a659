package domain

import "errors"

// Errors are grouped by failure class. Every operation aborts on the first
// error with no partial mutation; callers classify with errors.Is.

// Validation: input or precondition violated.
var (
	ErrFundNotActive        = errors.New("fund is not active")
	ErrMemberNotActive      = errors.New("member is not active")
	ErrBelowMinContribution = errors.New("contribution below minimum required")
	ErrInvalidThreshold     = errors.New("approval threshold out of range")
	ErrTraderListFull       = errors.New("approved trader list at capacity")
	ErrTraderAlreadyListed  = errors.New("trader already on approved list")
	ErrInvalidRole          = errors.New("unknown member role")
	ErrInvalidFeeBps        = errors.New("trading fee exceeds 10000 bps")
	ErrLabelTooLong         = errors.New("label exceeds maximum length")
	ErrDescriptionTooLong   = errors.New("description exceeds maximum length")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
)

// Authorization: caller identity mismatch.
var (
	ErrNotAuthority      = errors.New("caller is not the fund authority")
	ErrNotApprovedTrader = errors.New("caller lacks trading capability")
	ErrSelfApproval      = errors.New("proposer cannot approve own proposal")
)

// State: operation invalid in the current lifecycle state.
var (
	ErrProposalNotPending  = errors.New("proposal is not pending")
	ErrProposalExpired     = errors.New("proposal has expired")
	ErrProposalNotApproved = errors.New("proposal is not approved")
	ErrAlreadyApproved     = errors.New("caller already approved this proposal")
	ErrApprovalListFull    = errors.New("approval list at capacity")
	ErrTradeAlreadySettled = errors.New("trade has already been settled")
	ErrFundNotEmpty        = errors.New("fund value must be zero before closing")
	ErrSharesRemaining     = errors.New("all shares must be withdrawn before closing")
	ErrNoProfit            = errors.New("no profit available to distribute")
)

// Arithmetic: numeric precondition or overflow guard tripped.
var (
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrInsufficientFunds  = errors.New("insufficient funds in vault")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Infrastructure errors shared across cache and transport layers.
var (
	ErrLockHeld    = errors.New("lock already held")
	ErrContextDone = errors.New("context cancelled")
)
