package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// TradeStore implements domain.TradeStore.
type TradeStore struct {
	db db
}

// NewTradeStore creates a TradeStore over the given pool or transaction.
func NewTradeStore(db db) *TradeStore {
	return &TradeStore{db: db}
}

const tradeSelectCols = `id, group_id, trader, description, amount,
	expected_outcome_bps, actual_pnl_bps, timestamp, is_settled`

func scanTradeRows(rows pgx.Rows) ([]domain.Trade, error) {
	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(
			&t.ID, &t.GroupID, &t.Trader, &t.Description, &t.Amount,
			&t.ExpectedOutcomeBps, &t.ActualPnLBps, &t.Timestamp, &t.IsSettled,
		); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Create inserts a trade record.
func (s *TradeStore) Create(ctx context.Context, t domain.Trade) error {
	const query = `
		INSERT INTO trades (
			id, group_id, trader, description, amount,
			expected_outcome_bps, actual_pnl_bps, timestamp, is_settled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.Exec(ctx, query,
		t.ID, t.GroupID, t.Trader, t.Description, t.Amount,
		t.ExpectedOutcomeBps, t.ActualPnLBps, t.Timestamp, t.IsSettled,
	)
	if err != nil {
		return fmt.Errorf("postgres: create trade %s: %w", t.ID, mapErr(err))
	}
	return nil
}

// Get returns one trade by id.
func (s *TradeStore) Get(ctx context.Context, id string) (domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE id = $1`
	var t domain.Trade
	err := s.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.GroupID, &t.Trader, &t.Description, &t.Amount,
		&t.ExpectedOutcomeBps, &t.ActualPnLBps, &t.Timestamp, &t.IsSettled,
	)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("postgres: get trade %s: %w", id, mapErr(err))
	}
	return t, nil
}

// Update rewrites the settlement columns of a trade.
func (s *TradeStore) Update(ctx context.Context, t domain.Trade) error {
	const query = `
		UPDATE trades SET actual_pnl_bps = $2, is_settled = $3 WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, t.ID, t.ActualPnLBps, t.IsSettled)
	if err != nil {
		return fmt.Errorf("postgres: update trade %s: %w", t.ID, mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update trade %s: %w", t.ID, domain.ErrNotFound)
	}
	return nil
}

// ListByFund returns a fund's trades, newest first, with pagination and
// optional time filtering.
func (s *TradeStore) ListByFund(ctx context.Context, groupID string, opts domain.ListOpts) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades WHERE group_id = $1`
	args := []any{groupID}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND timestamp >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND timestamp <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY timestamp DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades of %s: %w", groupID, err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades of %s: %w", groupID, err)
	}
	return trades, nil
}

// ListSettledBefore returns settled trades older than the given time, for
// archiving.
func (s *TradeStore) ListSettledBefore(ctx context.Context, before time.Time) ([]domain.Trade, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trades
		WHERE is_settled AND timestamp < $1 ORDER BY timestamp ASC`
	rows, err := s.db.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settled trades before: %w", err)
	}
	defer rows.Close()
	return scanTradeRows(rows)
}

var _ domain.TradeStore = (*TradeStore)(nil)
