package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/log"

	"github.com/openalpha/lending-core/api/handlers"
	"github.com/openalpha/lending-core/api/middleware"
	"github.com/openalpha/lending-core/api/types"
	"github.com/openalpha/lending-core/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	config     *Config
	logger     log.Logger

	service types.LendingService
	handler *handlers.LendingHandler

	rateLimiter *middleware.RateLimiter
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	DisableRateLimit bool // For testing purposes
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer creates an API server backed by the in-memory keeper service.
func NewServer(config *Config, logger log.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	service, err := NewKeeperService(logger.With("module", "api"))
	if err != nil {
		return nil, fmt.Errorf("failed to create lending service: %w", err)
	}

	return NewServerWithService(config, logger, service), nil
}

// NewServerWithService creates an API server with a custom service,
// used by tests to inject fixtures.
func NewServerWithService(config *Config, logger log.Logger, service types.LendingService) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Server{
		config:      config,
		logger:      logger,
		service:     service,
		rateLimiter: middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
	}
	s.handler = handlers.NewLendingHandler(service)
	return s
}

// Start starts the API server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health and metrics
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	// Pool endpoints
	mux.HandleFunc("/v1/lending/banks", s.handler.HandleBanks)
	mux.HandleFunc("/v1/lending/banks/", s.handler.HandleBank)

	// Balance and position endpoints
	mux.HandleFunc("/v1/lending/balances", s.handler.HandleBalances)
	mux.HandleFunc("/v1/lending/positions/", s.handler.HandlePosition)

	// Lending operations
	opLimit := middleware.OperationRateLimitMiddleware(s.rateLimiter)
	mux.Handle("/v1/lending/deposit", opLimit(http.HandlerFunc(s.handler.HandleDeposit)))
	mux.Handle("/v1/lending/borrow", opLimit(http.HandlerFunc(s.handler.HandleBorrow)))
	mux.Handle("/v1/lending/repay", opLimit(http.HandlerFunc(s.handler.HandleRepay)))
	mux.Handle("/v1/lending/withdraw", opLimit(http.HandlerFunc(s.handler.HandleWithdraw)))

	// Oracle endpoints
	mux.HandleFunc("/v1/lending/quotes", s.handler.HandleQuotes)

	// Custody seeding for standalone mode
	mux.HandleFunc("/v1/lending/fund", s.handler.HandleFund)

	// Middleware chain: CORS -> metrics -> rate limit -> handler
	var handler http.Handler = instrumentMiddleware(mux)
	if !s.config.DisableRateLimit {
		handler = middleware.RateLimitMiddleware(s.rateLimiter)(handler)
	}
	handler = corsMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("API server starting",
		"addr", addr,
		"rate_limit", !s.config.DisableRateLimit,
	)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"warning":   "This API uses in-memory storage. For production, connect to a running chain.",
	})
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func instrumentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.GetCollector().RecordAPIRequest(
			r.Method,
			r.URL.Path,
			fmt.Sprintf("%d", rec.status),
			timer.ElapsedMs(),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Account-Address")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
