package domain

import (
	"context"
	"io"
	"time"
)

// ValueTransfer is the external primitive that actually moves balances.
// The engine orders transfers strictly before its accounting mutations; a
// failed transfer aborts the whole operation with no side effects.
type ValueTransfer interface {
	// Deposit moves amount from a signer's account into the fund vault.
	Deposit(ctx context.Context, from, groupID string, amount uint64) error

	// Payout moves amount out of the fund vault to a recipient, with the
	// vault acting as the authorizing party.
	Payout(ctx context.Context, groupID, to string, amount uint64) error

	// VaultBalance reports the vault's current balance.
	VaultBalance(ctx context.Context, groupID string) (uint64, error)
}

// Clock supplies the current time for proposal windows and trade records.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation of Clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FundCache provides fast fund snapshot lookups.
type FundCache interface {
	Set(ctx context.Context, fund Fund) error
	Get(ctx context.Context, groupID string) (Fund, error)
	Invalidate(ctx context.Context, groupID string) error
}

// LockManager provides distributed locking, used to serialize operations
// against a single fund across processes.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// BlobWriter uploads archive objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// RateLimiter limits request rates per key over a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// StreamMessage represents a single entry from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams for state-change events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
