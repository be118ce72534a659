package postgres

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// ProposalStore implements domain.ProposalStore.
type ProposalStore struct {
	db db
}

// NewProposalStore creates a ProposalStore over the given pool or
// transaction.
func NewProposalStore(db db) *ProposalStore {
	return &ProposalStore{db: db}
}

const proposalSelectCols = `group_id, proposal_id, proposer, from_token,
	to_token, amount, minimum_out, status, approvals, created_at, expires_at`

func scanProposal(row interface{ Scan(dest ...any) error }) (domain.TradeProposal, error) {
	var p domain.TradeProposal
	err := row.Scan(
		&p.GroupID, &p.ProposalID, &p.Proposer, &p.FromToken,
		&p.ToToken, &p.Amount, &p.MinimumOut, &p.Status, &p.Approvals,
		&p.CreatedAt, &p.ExpiresAt,
	)
	return p, err
}

// Create inserts a proposal.
func (s *ProposalStore) Create(ctx context.Context, p domain.TradeProposal) error {
	const query = `
		INSERT INTO proposals (
			group_id, proposal_id, proposer, from_token, to_token,
			amount, minimum_out, status, approvals, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.db.Exec(ctx, query,
		p.GroupID, p.ProposalID, p.Proposer, p.FromToken, p.ToToken,
		p.Amount, p.MinimumOut, p.Status, p.Approvals, p.CreatedAt, p.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create proposal %s/%d: %w", p.GroupID, p.ProposalID, mapErr(err))
	}
	return nil
}

// Get returns one proposal by fund and id.
func (s *ProposalStore) Get(ctx context.Context, groupID string, proposalID uint64) (domain.TradeProposal, error) {
	query := `SELECT ` + proposalSelectCols + ` FROM proposals
		WHERE group_id = $1 AND proposal_id = $2`
	p, err := scanProposal(s.db.QueryRow(ctx, query, groupID, proposalID))
	if err != nil {
		return domain.TradeProposal{}, fmt.Errorf("postgres: get proposal %s/%d: %w", groupID, proposalID, mapErr(err))
	}
	return p, nil
}

// Update rewrites the mutable proposal columns.
func (s *ProposalStore) Update(ctx context.Context, p domain.TradeProposal) error {
	const query = `
		UPDATE proposals SET status = $3, approvals = $4
		WHERE group_id = $1 AND proposal_id = $2`
	tag, err := s.db.Exec(ctx, query, p.GroupID, p.ProposalID, p.Status, p.Approvals)
	if err != nil {
		return fmt.Errorf("postgres: update proposal %s/%d: %w", p.GroupID, p.ProposalID, mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update proposal %s/%d: %w", p.GroupID, p.ProposalID, domain.ErrNotFound)
	}
	return nil
}

// ListByFund returns a fund's proposals ordered by id with pagination.
func (s *ProposalStore) ListByFund(ctx context.Context, groupID string, opts domain.ListOpts) ([]domain.TradeProposal, error) {
	query := `SELECT ` + proposalSelectCols + ` FROM proposals
		WHERE group_id = $1 ORDER BY proposal_id`
	args := []any{groupID}
	argIdx := 2

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
		return nil, fmt.Errorf("postgres: list proposals of %s: %w", groupID, err)
	}
	defer rows.Close()

	var proposals []domain.TradeProposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list proposals rows: %w", err)
	}
	return proposals, nil
}

var _ domain.ProposalStore = (*ProposalStore)(nil)
