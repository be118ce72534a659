// Package service orchestrates the fund engine against storage, the
// value-transfer primitive, and the event plumbing. Each operation is a
// single unit of work: guards and arithmetic run in the engine, the
// triggering transfer (if any) is ordered strictly before the accounting
// mutation commits, and a failure anywhere aborts the call with no
// partial state.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/notify"
)

// fundLockTTL bounds how long a per-fund lock may be held by a crashed
// process before it expires.
const fundLockTTL = 10 * time.Second

// eventsChannel is the pub/sub channel and stream name for state-change
// events.
const eventsChannel = "fund_events"

// Deps bundles the collaborators shared by every service.
type Deps struct {
	UoW      domain.UnitOfWork
	Audit    domain.AuditStore
	Bus      domain.SignalBus
	Locks    domain.LockManager
	Cache    domain.FundCache
	Transfer domain.ValueTransfer
	Clock    domain.Clock
	Notifier *notify.Notifier
	Logger   *slog.Logger
}

// base carries the shared collaborators and helpers.
type base struct {
	deps Deps
	log  *slog.Logger
}

func newBase(d Deps, component string) base {
	return base{
		deps: d,
		log:  d.Logger.With(slog.String("component", component)),
	}
}

// lockFund serializes operations against one fund across processes. The
// returned unlock is always safe to call; when no lock manager is
// configured the in-process unit of work is the only serializer.
func (b *base) lockFund(ctx context.Context, groupID string) (func(), error) {
	if b.deps.Locks == nil {
		return func() {}, nil
	}
	return b.deps.Locks.Acquire(ctx, "fund:"+groupID, fundLockTTL)
}

// audit appends an audit entry with before/after values. Audit failures
// are logged but never fail the operation that already committed.
func (b *base) audit(ctx context.Context, event string, detail map[string]any) {
	if b.deps.Audit == nil {
		return
	}
	if err := b.deps.Audit.Log(ctx, event, detail); err != nil {
		b.log.WarnContext(ctx, "audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// publish emits a state-change event on the signal bus, both as a
// pub/sub message for live consumers and as a durable stream entry.
func (b *base) publish(ctx context.Context, event string, detail map[string]any) {
	if b.deps.Bus == nil {
		return
	}
	body := map[string]any{"event": event}
	for k, v := range detail {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return
	}
	if err := b.deps.Bus.Publish(ctx, eventsChannel, payload); err != nil {
		b.log.WarnContext(ctx, "publish event failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
	if err := b.deps.Bus.StreamAppend(ctx, eventsChannel, payload); err != nil {
		b.log.WarnContext(ctx, "stream append failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// cacheFund refreshes the fund snapshot cache after a committed change.
func (b *base) cacheFund(ctx context.Context, f domain.Fund) {
	if b.deps.Cache == nil {
		return
	}
	if err := b.deps.Cache.Set(ctx, f); err != nil {
		b.log.WarnContext(ctx, "fund cache refresh failed",
			slog.String("group_id", f.GroupID),
			slog.String("error", err.Error()),
		)
	}
}

// dropFund invalidates the fund snapshot cache entry.
func (b *base) dropFund(ctx context.Context, groupID string) {
	if b.deps.Cache == nil {
		return
	}
	if err := b.deps.Cache.Invalidate(ctx, groupID); err != nil {
		b.log.WarnContext(ctx, "fund cache invalidate failed",
			slog.String("group_id", groupID),
			slog.String("error", err.Error()),
		)
	}
}

// notifyOps forwards an operator notification when a notifier is wired.
func (b *base) notifyOps(ctx context.Context, event, title, message string) {
	if b.deps.Notifier == nil {
		return
	}
	if err := b.deps.Notifier.Notify(ctx, event, title, message); err != nil {
		b.log.WarnContext(ctx, "notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// now returns the clock's current time, falling back to the system clock.
func (b *base) now() time.Time {
	if b.deps.Clock == nil {
		return time.Now().UTC()
	}
	return b.deps.Clock.Now()
}
