// Package vault provides an in-process implementation of the value
// transfer primitive. Production deployments bind the engine to an
// on-chain transfer service instead; this ledger backs dev mode and
// tests with the same contract: a transfer either completes in full or
// fails with no balance change.
package vault

import (
	"context"
	"sync"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/sharemath"
)

// Ledger tracks vault balances per group and account balances per wallet.
type Ledger struct {
	mu       sync.Mutex
	vaults   map[string]uint64 // groupID -> vault balance
	accounts map[string]uint64 // wallet -> balance
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		vaults:   make(map[string]uint64),
		accounts: make(map[string]uint64),
	}
}

// Credit funds a wallet account, for seeding dev and test balances.
func (l *Ledger) Credit(wallet string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[wallet] += amount
}

// Balance reports a wallet's current balance.
func (l *Ledger) Balance(wallet string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[wallet]
}

// Deposit moves amount from a wallet into a group's vault.
func (l *Ledger) Deposit(_ context.Context, from, groupID string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.accounts[from]
	if bal < amount {
		return domain.ErrInsufficientFunds
	}
	newVault, err := sharemath.CheckedAdd(l.vaults[groupID], amount)
	if err != nil {
		return err
	}
	l.accounts[from] = bal - amount
	l.vaults[groupID] = newVault
	return nil
}

// Payout moves amount from a group's vault to a wallet, with the vault
// acting as the authorizing party.
func (l *Ledger) Payout(_ context.Context, groupID, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.vaults[groupID]
	if bal < amount {
		return domain.ErrInsufficientFunds
	}
	newAcct, err := sharemath.CheckedAdd(l.accounts[to], amount)
	if err != nil {
		return err
	}
	l.vaults[groupID] = bal - amount
	l.accounts[to] = newAcct
	return nil
}

// VaultBalance reports a group's vault balance.
func (l *Ledger) VaultBalance(_ context.Context, groupID string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.vaults[groupID], nil
}

var _ domain.ValueTransfer = (*Ledger)(nil)
