package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/engine"
)

// MemberService manages fund membership and member standing.
type MemberService struct {
	base
}

// NewMemberService creates a MemberService.
func NewMemberService(d Deps) *MemberService {
	return &MemberService{base: newBase(d, "member_service")}
}

// AddMember enrolls a wallet into an active fund with no shares.
func (s *MemberService) AddMember(ctx context.Context, groupID, wallet, telegramID string, role domain.Role) (domain.Member, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return domain.Member{}, err
	}
	defer unlock()

	var member domain.Member
	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		m, err := engine.NewMember(&f, wallet, telegramID, role)
		if err != nil {
			return err
		}
		if err := st.Members().Create(ctx, m); err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return domain.Member{}, fmt.Errorf("member_service: add %q to %q: %w", wallet, groupID, err)
	}

	s.audit(ctx, "member_added", map[string]any{
		"group_id": groupID,
		"wallet":   wallet,
		"role":     string(role),
	})
	s.publish(ctx, "member_added", map[string]any{"group_id": groupID, "wallet": wallet})
	s.log.InfoContext(ctx, "member added",
		slog.String("group_id", groupID),
		slog.String("wallet", wallet),
		slog.String("role", string(role)),
	)
	return member, nil
}

// GetMember returns one member record.
func (s *MemberService) GetMember(ctx context.Context, groupID, wallet string) (domain.Member, error) {
	var member domain.Member
	err := s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		m, err := st.Members().Get(ctx, groupID, wallet)
		if err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return domain.Member{}, fmt.Errorf("member_service: get %q: %w", wallet, err)
	}
	return member, nil
}

// ListMembers returns every member of a fund.
func (s *MemberService) ListMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	var members []domain.Member
	err := s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		ms, err := st.Members().ListByFund(ctx, groupID)
		if err != nil {
			return err
		}
		members = ms
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("member_service: list %q: %w", groupID, err)
	}
	return members, nil
}

// mutateMember loads a fund/member pair, applies fn, and persists the
// member.
func (s *MemberService) mutateMember(ctx context.Context, groupID, wallet string, fn func(f *domain.Fund, m *domain.Member) error) (domain.Member, error) {
	unlock, err := s.lockFund(ctx, groupID)
	if err != nil {
		return domain.Member{}, err
	}
	defer unlock()

	var member domain.Member
	err = s.deps.UoW.Do(ctx, func(ctx context.Context, st domain.Stores) error {
		f, err := st.Funds().Get(ctx, groupID)
		if err != nil {
			return err
		}
		m, err := st.Members().Get(ctx, groupID, wallet)
		if err != nil {
			return err
		}
		if err := fn(&f, &m); err != nil {
			return err
		}
		if err := st.Members().Update(ctx, m); err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return domain.Member{}, err
	}
	return member, nil
}

// SetMemberRole changes a member's role. Role alone never grants trading
// capability.
func (s *MemberService) SetMemberRole(ctx context.Context, groupID, caller, wallet string, role domain.Role) error {
	_, err := s.mutateMember(ctx, groupID, wallet, func(f *domain.Fund, m *domain.Member) error {
		return engine.SetMemberRole(f, caller, m, role)
	})
	if err != nil {
		return fmt.Errorf("member_service: set role of %q: %w", wallet, err)
	}
	s.audit(ctx, "member_role_set", map[string]any{
		"group_id": groupID,
		"wallet":   wallet,
		"role":     string(role),
	})
	s.publish(ctx, "member_role_set", map[string]any{"group_id": groupID, "wallet": wallet, "role": string(role)})
	s.log.InfoContext(ctx, "member role set",
		slog.String("group_id", groupID),
		slog.String("wallet", wallet),
		slog.String("role", string(role)),
	)
	return nil
}

// SetMemberActive toggles a member's standing. A deactivated member
// cannot contribute, trade, or receive distributions, but may still
// withdraw.
func (s *MemberService) SetMemberActive(ctx context.Context, groupID, caller, wallet string, active bool) error {
	_, err := s.mutateMember(ctx, groupID, wallet, func(f *domain.Fund, m *domain.Member) error {
		return engine.SetMemberActive(f, caller, m, active)
	})
	if err != nil {
		return fmt.Errorf("member_service: set active of %q: %w", wallet, err)
	}
	s.audit(ctx, "member_active_set", map[string]any{
		"group_id": groupID,
		"wallet":   wallet,
		"active":   active,
	})
	s.publish(ctx, "member_active_set", map[string]any{"group_id": groupID, "wallet": wallet, "active": active})
	s.log.InfoContext(ctx, "member standing set",
		slog.String("group_id", groupID),
		slog.String("wallet", wallet),
		slog.Bool("active", active),
	)
	return nil
}
