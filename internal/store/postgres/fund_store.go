package postgres

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// FundStore implements domain.FundStore.
type FundStore struct {
	db db
}

// NewFundStore creates a FundStore over the given pool or transaction.
func NewFundStore(db db) *FundStore {
	return &FundStore{db: db}
}

const fundSelectCols = `authority, group_id, name, total_shares, total_value,
	min_contribution, trading_fee_bps, is_active, approved_traders,
	required_approvals, next_proposal_id`

func scanFund(row interface{ Scan(dest ...any) error }) (domain.Fund, error) {
	var f domain.Fund
	err := row.Scan(
		&f.Authority, &f.GroupID, &f.Name, &f.TotalShares, &f.TotalValue,
		&f.MinContribution, &f.TradingFeeBps, &f.IsActive, &f.ApprovedTraders,
		&f.RequiredApprovals, &f.NextProposalID,
	)
	return f, err
}

// Create inserts a fund. A second fund for the same group id fails with
// domain.ErrAlreadyExists.
func (s *FundStore) Create(ctx context.Context, f domain.Fund) error {
	const query = `
		INSERT INTO funds (
			authority, group_id, name, total_shares, total_value,
			min_contribution, trading_fee_bps, is_active, approved_traders,
			required_approvals, next_proposal_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.db.Exec(ctx, query,
		f.Authority, f.GroupID, f.Name, f.TotalShares, f.TotalValue,
		f.MinContribution, f.TradingFeeBps, f.IsActive, f.ApprovedTraders,
		f.RequiredApprovals, f.NextProposalID,
	)
	if err != nil {
		return fmt.Errorf("postgres: create fund %s: %w", f.GroupID, mapErr(err))
	}
	return nil
}

// Get returns the fund for a group id.
func (s *FundStore) Get(ctx context.Context, groupID string) (domain.Fund, error) {
	query := `SELECT ` + fundSelectCols + ` FROM funds WHERE group_id = $1`
	f, err := scanFund(s.db.QueryRow(ctx, query, groupID))
	if err != nil {
		return domain.Fund{}, fmt.Errorf("postgres: get fund %s: %w", groupID, mapErr(err))
	}
	return f, nil
}

// Update rewrites the mutable fund columns.
func (s *FundStore) Update(ctx context.Context, f domain.Fund) error {
	const query = `
		UPDATE funds SET
			name = $2, total_shares = $3, total_value = $4,
			min_contribution = $5, trading_fee_bps = $6, is_active = $7,
			approved_traders = $8, required_approvals = $9,
			next_proposal_id = $10
		WHERE group_id = $1`
	tag, err := s.db.Exec(ctx, query,
		f.GroupID, f.Name, f.TotalShares, f.TotalValue,
		f.MinContribution, f.TradingFeeBps, f.IsActive,
		f.ApprovedTraders, f.RequiredApprovals, f.NextProposalID,
	)
	if err != nil {
		return fmt.Errorf("postgres: update fund %s: %w", f.GroupID, mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update fund %s: %w", f.GroupID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a fund row.
func (s *FundStore) Delete(ctx context.Context, groupID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM funds WHERE group_id = $1`, groupID)
	if err != nil {
		return fmt.Errorf("postgres: delete fund %s: %w", groupID, mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: delete fund %s: %w", groupID, domain.ErrNotFound)
	}
	return nil
}

// List returns funds ordered by group id with pagination.
func (s *FundStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Fund, error) {
	query := `SELECT ` + fundSelectCols + ` FROM funds ORDER BY group_id`
	args := []any{}
	argIdx := 1

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
		return nil, fmt.Errorf("postgres: list funds: %w", err)
	}
	defer rows.Close()

	var funds []domain.Fund
	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan fund: %w", err)
		}
		funds = append(funds, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list funds rows: %w", err)
	}
	return funds, nil
}

var _ domain.FundStore = (*FundStore)(nil)
