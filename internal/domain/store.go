package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// FundStore persists funds, one per group id.
type FundStore interface {
	Create(ctx context.Context, fund Fund) error
	Get(ctx context.Context, groupID string) (Fund, error)
	Update(ctx context.Context, fund Fund) error
	Delete(ctx context.Context, groupID string) error
	List(ctx context.Context, opts ListOpts) ([]Fund, error)
}

// MemberStore persists fund members, one per (fund, wallet) pair.
type MemberStore interface {
	Create(ctx context.Context, member Member) error
	Get(ctx context.Context, groupID, wallet string) (Member, error)
	Update(ctx context.Context, member Member) error
	ListByFund(ctx context.Context, groupID string) ([]Member, error)
}

// TradeStore persists trade records.
type TradeStore interface {
	Create(ctx context.Context, trade Trade) error
	Get(ctx context.Context, id string) (Trade, error)
	Update(ctx context.Context, trade Trade) error
	ListByFund(ctx context.Context, groupID string, opts ListOpts) ([]Trade, error)
	ListSettledBefore(ctx context.Context, before time.Time) ([]Trade, error)
}

// ProposalStore persists trade proposals, keyed by (fund, proposal id).
type ProposalStore interface {
	Create(ctx context.Context, p TradeProposal) error
	Get(ctx context.Context, groupID string, proposalID uint64) (TradeProposal, error)
	Update(ctx context.Context, p TradeProposal) error
	ListByFund(ctx context.Context, groupID string, opts ListOpts) ([]TradeProposal, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log of before/after values for
// every state-changing operation.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
	ListBefore(ctx context.Context, before time.Time) ([]AuditEntry, error)
}

// Stores bundles the record stores visible inside a unit of work.
type Stores interface {
	Funds() FundStore
	Members() MemberStore
	Trades() TradeStore
	Proposals() ProposalStore
}

// UnitOfWork executes fn against a transactional view of the stores.
// Either every mutation made inside fn commits, or none do. The hosting
// store serializes units of work that touch the same fund.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
