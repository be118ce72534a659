package domain

// Role is a member's standing within a fund.
type Role string

const (
	RoleContributor Role = "contributor"
	RoleTrader      Role = "trader"
	RoleManager     Role = "manager"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleContributor, RoleTrader, RoleManager:
		return true
	}
	return false
}

// CanTrade reports whether the role grants trading. Role alone is not
// sufficient for capability; the wallet must also be on the fund's
// trading allowlist.
func (r Role) CanTrade() bool {
	return r == RoleTrader || r == RoleManager
}

// Member is a participant in a fund, identified by wallet. One record
// exists per (fund, wallet) pair.
type Member struct {
	GroupID          string
	Wallet           string
	TelegramID       string // opaque external label, bounded length
	Role             Role
	Shares           uint64
	TotalContributed uint64 // cost basis across all contributions
	SuccessfulTrades uint32
	FailedTrades     uint32
	ReputationScore  uint64 // saturates at zero, never underflows
	IsActive         bool
}
