package postgres

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// MemberStore implements domain.MemberStore.
type MemberStore struct {
	db db
}

// NewMemberStore creates a MemberStore over the given pool or transaction.
func NewMemberStore(db db) *MemberStore {
	return &MemberStore{db: db}
}

const memberSelectCols = `group_id, wallet, telegram_id, role, shares,
	total_contributed, successful_trades, failed_trades, reputation_score,
	is_active`

func scanMember(row interface{ Scan(dest ...any) error }) (domain.Member, error) {
	var m domain.Member
	err := row.Scan(
		&m.GroupID, &m.Wallet, &m.TelegramID, &m.Role, &m.Shares,
		&m.TotalContributed, &m.SuccessfulTrades, &m.FailedTrades,
		&m.ReputationScore, &m.IsActive,
	)
	return m, err
}

// Create inserts a member. Re-enrolling the same wallet fails with
// domain.ErrAlreadyExists.
func (s *MemberStore) Create(ctx context.Context, m domain.Member) error {
	const query = `
		INSERT INTO members (
			group_id, wallet, telegram_id, role, shares,
			total_contributed, successful_trades, failed_trades,
			reputation_score, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.db.Exec(ctx, query,
		m.GroupID, m.Wallet, m.TelegramID, m.Role, m.Shares,
		m.TotalContributed, m.SuccessfulTrades, m.FailedTrades,
		m.ReputationScore, m.IsActive,
	)
	if err != nil {
		return fmt.Errorf("postgres: create member %s/%s: %w", m.GroupID, m.Wallet, mapErr(err))
	}
	return nil
}

// Get returns one member by fund and wallet.
func (s *MemberStore) Get(ctx context.Context, groupID, wallet string) (domain.Member, error) {
	query := `SELECT ` + memberSelectCols + ` FROM members WHERE group_id = $1 AND wallet = $2`
	m, err := scanMember(s.db.QueryRow(ctx, query, groupID, wallet))
	if err != nil {
		return domain.Member{}, fmt.Errorf("postgres: get member %s/%s: %w", groupID, wallet, mapErr(err))
	}
	return m, nil
}

// Update rewrites the mutable member columns.
func (s *MemberStore) Update(ctx context.Context, m domain.Member) error {
	const query = `
		UPDATE members SET
			telegram_id = $3, role = $4, shares = $5,
			total_contributed = $6, successful_trades = $7,
			failed_trades = $8, reputation_score = $9, is_active = $10
		WHERE group_id = $1 AND wallet = $2`
	tag, err := s.db.Exec(ctx, query,
		m.GroupID, m.Wallet, m.TelegramID, m.Role, m.Shares,
		m.TotalContributed, m.SuccessfulTrades, m.FailedTrades,
		m.ReputationScore, m.IsActive,
	)
	if err != nil {
		return fmt.Errorf("postgres: update member %s/%s: %w", m.GroupID, m.Wallet, mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update member %s/%s: %w", m.GroupID, m.Wallet, domain.ErrNotFound)
	}
	return nil
}

// ListByFund returns every member of a fund ordered by wallet.
func (s *MemberStore) ListByFund(ctx context.Context, groupID string) ([]domain.Member, error) {
	query := `SELECT ` + memberSelectCols + ` FROM members WHERE group_id = $1 ORDER BY wallet`
	rows, err := s.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list members of %s: %w", groupID, err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list members rows: %w", err)
	}
	return members, nil
}

var _ domain.MemberStore = (*MemberStore)(nil)
