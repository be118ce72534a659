package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

// MemberService defines the methods that the member handler requires from
// the service layer.
type MemberService interface {
	AddMember(ctx context.Context, groupID, wallet, telegramID string, role domain.Role) (domain.Member, error)
	GetMember(ctx context.Context, groupID, wallet string) (domain.Member, error)
	ListMembers(ctx context.Context, groupID string) ([]domain.Member, error)
	SetMemberRole(ctx context.Context, groupID, caller, wallet string, role domain.Role) error
	SetMemberActive(ctx context.Context, groupID, caller, wallet string, active bool) error
}

// MemberHandler serves member HTTP endpoints.
type MemberHandler struct {
	members MemberService
	logger  *slog.Logger
}

// NewMemberHandler creates a MemberHandler with the given service and logger.
func NewMemberHandler(members MemberService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{
		members: members,
		logger:  logger,
	}
}

// memberView is the JSON representation of a member.
type memberView struct {
	GroupID          string `json:"group_id"`
	Wallet           string `json:"wallet"`
	TelegramID       string `json:"telegram_id"`
	Role             string `json:"role"`
	Shares           uint64 `json:"shares"`
	TotalContributed uint64 `json:"total_contributed"`
	SuccessfulTrades uint32 `json:"successful_trades"`
	FailedTrades     uint32 `json:"failed_trades"`
	ReputationScore  uint64 `json:"reputation_score"`
	IsActive         bool   `json:"is_active"`
}

func viewMember(m domain.Member) memberView {
	return memberView{
		GroupID:          m.GroupID,
		Wallet:           m.Wallet,
		TelegramID:       m.TelegramID,
		Role:             string(m.Role),
		Shares:           m.Shares,
		TotalContributed: m.TotalContributed,
		SuccessfulTrades: m.SuccessfulTrades,
		FailedTrades:     m.FailedTrades,
		ReputationScore:  m.ReputationScore,
		IsActive:         m.IsActive,
	}
}

// addMemberRequest is the JSON body for member registration.
type addMemberRequest struct {
	Wallet     string `json:"wallet"`
	TelegramID string `json:"telegram_id"`
	Role       string `json:"role"`
}

// listMembersResponse wraps the list members response.
type listMembersResponse struct {
	Members []memberView `json:"members"`
}

// AddMember registers a new member in a fund.
// POST /api/funds/{group_id}/members
func (h *MemberHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet is required")
		return
	}

	member, err := h.members.AddMember(r.Context(), groupID, req.Wallet, req.TelegramID, domain.Role(req.Role))
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to add member")
		return
	}

	writeJSON(w, http.StatusCreated, viewMember(member))
}

// GetMember returns a single member by wallet.
// GET /api/funds/{group_id}/members/{wallet}
func (h *MemberHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	wallet := pathParam(r, "wallet")

	member, err := h.members.GetMember(r.Context(), groupID, wallet)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to get member")
		return
	}

	writeJSON(w, http.StatusOK, viewMember(member))
}

// ListMembers returns all members of a fund.
// GET /api/funds/{group_id}/members
func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")

	members, err := h.members.ListMembers(r.Context(), groupID)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "failed to list members")
		return
	}

	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, viewMember(m))
	}

	writeJSON(w, http.StatusOK, listMembersResponse{Members: views})
}

// setRoleRequest is the JSON body for role changes.
type setRoleRequest struct {
	Caller string `json:"caller"`
	Role   string `json:"role"`
}

// SetMemberRole changes a member's role.
// PUT /api/funds/{group_id}/members/{wallet}/role
func (h *MemberHandler) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	wallet := pathParam(r, "wallet")

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	if err := h.members.SetMemberRole(r.Context(), groupID, req.Caller, wallet, domain.Role(req.Role)); err != nil {
		writeDomainError(w, r, h.logger, err, "failed to set member role")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "updated",
		"wallet": wallet,
		"role":   req.Role,
	})
}

// setActiveRequest is the JSON body for activation changes.
type setActiveRequest struct {
	Caller string `json:"caller"`
	Active bool   `json:"active"`
}

// SetMemberActive activates or deactivates a member.
// PUT /api/funds/{group_id}/members/{wallet}/active
func (h *MemberHandler) SetMemberActive(w http.ResponseWriter, r *http.Request) {
	groupID := pathParam(r, "group_id")
	wallet := pathParam(r, "wallet")

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	if err := h.members.SetMemberActive(r.Context(), groupID, req.Caller, wallet, req.Active); err != nil {
		writeDomainError(w, r, h.logger, err, "failed to set member active")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "updated",
		"wallet": wallet,
		"active": req.Active,
	})
}
