package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/groupfund/internal/domain"
)

const fundTTL = 5 * time.Minute

// FundCache implements domain.FundCache with JSON-serialized fund
// snapshots under fund:{group_id} keys. Entries expire after five
// minutes; the services refresh the entry on every committed change, so
// the TTL only bounds staleness after out-of-band writes.
type FundCache struct {
	rdb *redis.Client
}

// NewFundCache creates a FundCache backed by the given Client.
func NewFundCache(c *Client) *FundCache {
	return &FundCache{rdb: c.Underlying()}
}

func fundKey(groupID string) string { return "fund:" + groupID }

// Set stores a fund snapshot with the cache TTL.
func (fc *FundCache) Set(ctx context.Context, fund domain.Fund) error {
	data, err := json.Marshal(fund)
	if err != nil {
		return fmt.Errorf("redis: marshal fund %s: %w", fund.GroupID, err)
	}
	if err := fc.rdb.Set(ctx, fundKey(fund.GroupID), data, fundTTL).Err(); err != nil {
		return fmt.Errorf("redis: set fund %s: %w", fund.GroupID, err)
	}
	return nil
}

// Get retrieves a fund snapshot by group id. It returns
// domain.ErrNotFound when no entry exists.
func (fc *FundCache) Get(ctx context.Context, groupID string) (domain.Fund, error) {
	data, err := fc.rdb.Get(ctx, fundKey(groupID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Fund{}, domain.ErrNotFound
		}
		return domain.Fund{}, fmt.Errorf("redis: get fund %s: %w", groupID, err)
	}

	var fund domain.Fund
	if err := json.Unmarshal(data, &fund); err != nil {
		return domain.Fund{}, fmt.Errorf("redis: unmarshal fund %s: %w", groupID, err)
	}
	return fund, nil
}

// Invalidate removes a fund snapshot.
func (fc *FundCache) Invalidate(ctx context.Context, groupID string) error {
	if err := fc.rdb.Del(ctx, fundKey(groupID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate fund %s: %w", groupID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.FundCache = (*FundCache)(nil)
