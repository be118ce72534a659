package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/groupfund/internal/server"
	"github.com/alanyoungcy/groupfund/internal/server/handler"
	"github.com/alanyoungcy/groupfund/internal/server/ws"
	"github.com/alanyoungcy/groupfund/internal/service"
)

// ServerMode builds the service layer and runs the HTTP + WebSocket API
// until the context is cancelled. In dev mode the same path runs against
// the in-memory store, without Redis.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	if !a.cfg.Server.Enabled {
		return fmt.Errorf("server mode: server.enabled must be true")
	}

	g, ctx := errgroup.WithContext(ctx)

	svcDeps := service.Deps{
		UoW:      deps.UoW,
		Audit:    deps.Audit,
		Bus:      deps.SignalBus,
		Locks:    deps.LockManager,
		Cache:    deps.FundCache,
		Transfer: deps.Transfer,
		Notifier: deps.Notifier,
		Logger:   a.logger,
	}

	fundSvc := service.NewFundService(svcDeps)
	memberSvc := service.NewMemberService(svcDeps)
	contribSvc := service.NewContributionService(svcDeps)
	distSvc := service.NewDistributionService(svcDeps)
	tradingSvc := service.NewTradingService(svcDeps)
	proposalSvc := service.NewProposalService(svcDeps, a.cfg.Vault.PoolAccount)

	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(a.logger),
		Funds:         handler.NewFundHandler(fundSvc, a.logger),
		Members:       handler.NewMemberHandler(memberSvc, a.logger),
		Contributions: handler.NewContributionHandler(contribSvc, a.logger),
		Distributions: handler.NewDistributionHandler(distSvc, a.logger),
		Trades:        handler.NewTradeHandler(tradingSvc, a.logger),
		Proposals:     handler.NewProposalHandler(proposalSvc, a.logger),
		Audit:         handler.NewAuditHandler(deps.Audit, a.logger),
	}

	// WebSocket hub bridges fund events to dashboard clients. It needs the
	// Redis signal bus, so dev mode runs without it.
	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: time.Now().UTC(),
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	})

	return g.Wait()
}

// ArchiveMode uploads settled trades and old audit entries to blob storage
// in a single pass, then exits.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode",
		slog.Int("retention_days", a.cfg.Archive.RetentionDays),
	)

	if deps.Archiver == nil {
		return fmt.Errorf("archive mode: archiver not configured")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)

	trades, err := deps.Archiver.ArchiveTrades(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive mode: %w", err)
	}
	entries, err := deps.Archiver.ArchiveAudit(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive mode: %w", err)
	}

	a.logger.InfoContext(ctx, "archive complete",
		slog.Int64("trades", trades),
		slog.Int64("audit_entries", entries),
		slog.String("cutoff", cutoff.Format(time.RFC3339)),
	)
	return nil
}
