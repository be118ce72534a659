package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// UnitOfWork implements domain.UnitOfWork on a pgx transaction: every
// store call inside fn runs on the same transaction, and a non-nil
// return from fn rolls the whole unit back.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork creates a UnitOfWork over the given connection pool.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Do runs fn inside a transaction.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s domain.Stores) error) error {
	err := pgx.BeginFunc(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(ctx, txStores{db: tx})
	})
	if err != nil {
		return fmt.Errorf("postgres: unit of work: %w", err)
	}
	return nil
}

// txStores binds every record store to one transaction.
type txStores struct {
	db db
}

func (s txStores) Funds() domain.FundStore         { return NewFundStore(s.db) }
func (s txStores) Members() domain.MemberStore     { return NewMemberStore(s.db) }
func (s txStores) Trades() domain.TradeStore       { return NewTradeStore(s.db) }
func (s txStores) Proposals() domain.ProposalStore { return NewProposalStore(s.db) }

var (
	_ domain.UnitOfWork = (*UnitOfWork)(nil)
	_ domain.Stores     = txStores{}
)
