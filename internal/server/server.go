package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/groupfund/internal/domain"
	"github.com/alanyoungcy/groupfund/internal/server/handler"
	"github.com/alanyoungcy/groupfund/internal/server/middleware"
	"github.com/alanyoungcy/groupfund/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit caps requests per client IP per RateLimitWindow. Zero
	// disables the middleware.
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health        *handler.HealthHandler
	Funds         *handler.FundHandler
	Members       *handler.MemberHandler
	Contributions *handler.ContributionHandler
	Distributions *handler.DistributionHandler
	Trades        *handler.TradeHandler
	Proposals     *handler.ProposalHandler
	Audit         *handler.AuditHandler
}

// Server is the HTTP + WebSocket API server for the fund engine.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (rate limiting, auth, logging, CORS) and attaches
// the WebSocket hub.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Fund lifecycle and governance.
	mux.HandleFunc("POST /api/funds", handlers.Funds.CreateFund)
	mux.HandleFunc("GET /api/funds", handlers.Funds.ListFunds)
	mux.HandleFunc("GET /api/funds/{group_id}", handlers.Funds.GetFund)
	mux.HandleFunc("DELETE /api/funds/{group_id}", handlers.Funds.CloseFund)
	mux.HandleFunc("POST /api/funds/{group_id}/pause", handlers.Funds.PauseFund)
	mux.HandleFunc("POST /api/funds/{group_id}/resume", handlers.Funds.ResumeFund)
	mux.HandleFunc("POST /api/funds/{group_id}/traders", handlers.Funds.AddApprovedTrader)
	mux.HandleFunc("DELETE /api/funds/{group_id}/traders/{wallet}", handlers.Funds.RemoveApprovedTrader)
	mux.HandleFunc("PUT /api/funds/{group_id}/threshold", handlers.Funds.SetApprovalThreshold)

	// Members.
	mux.HandleFunc("POST /api/funds/{group_id}/members", handlers.Members.AddMember)
	mux.HandleFunc("GET /api/funds/{group_id}/members", handlers.Members.ListMembers)
	mux.HandleFunc("GET /api/funds/{group_id}/members/{wallet}", handlers.Members.GetMember)
	mux.HandleFunc("PUT /api/funds/{group_id}/members/{wallet}/role", handlers.Members.SetMemberRole)
	mux.HandleFunc("PUT /api/funds/{group_id}/members/{wallet}/active", handlers.Members.SetMemberActive)

	// Contributions and withdrawals.
	mux.HandleFunc("POST /api/funds/{group_id}/contributions", handlers.Contributions.Contribute)
	mux.HandleFunc("POST /api/funds/{group_id}/withdrawals", handlers.Contributions.Withdraw)

	// Distributions.
	mux.HandleFunc("POST /api/funds/{group_id}/distributions/value", handlers.Distributions.DistributeValue)
	mux.HandleFunc("POST /api/funds/{group_id}/distributions/profits", handlers.Distributions.DistributeProfits)

	// Trades and swaps.
	mux.HandleFunc("POST /api/funds/{group_id}/trades", handlers.Trades.ExecuteTrade)
	mux.HandleFunc("GET /api/funds/{group_id}/trades", handlers.Trades.ListTrades)
	mux.HandleFunc("POST /api/funds/{group_id}/trades/{id}/settle", handlers.Trades.SettleTrade)
	mux.HandleFunc("POST /api/funds/{group_id}/swaps", handlers.Trades.RecordSwap)
	mux.HandleFunc("GET /api/trades/{id}", handlers.Trades.GetTrade)

	// Trade proposals.
	mux.HandleFunc("POST /api/funds/{group_id}/proposals", handlers.Proposals.ProposeTrade)
	mux.HandleFunc("GET /api/funds/{group_id}/proposals", handlers.Proposals.ListProposals)
	mux.HandleFunc("GET /api/funds/{group_id}/proposals/{id}", handlers.Proposals.GetProposal)
	mux.HandleFunc("POST /api/funds/{group_id}/proposals/{id}/approve", handlers.Proposals.ApproveProposal)
	mux.HandleFunc("POST /api/funds/{group_id}/proposals/{id}/reject", handlers.Proposals.RejectProposal)
	mux.HandleFunc("POST /api/funds/{group_id}/proposals/{id}/execute", handlers.Proposals.ExecuteProposal)

	// Audit log.
	mux.HandleFunc("GET /api/audit", handlers.Audit.ListEntries)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply per-client rate limiting when configured.
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateLimitWindow)(h)
	}

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
