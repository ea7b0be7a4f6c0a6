// Package http serves the JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"myfinance/internal/auth"
	"myfinance/internal/log"
	"myfinance/internal/metrics"
	"myfinance/internal/middleware/ratelimit"
	"myfinance/internal/middleware/security"
	"myfinance/internal/middleware/trace"
	"myfinance/internal/services"
	"myfinance/internal/storage"
)

// Deps bundles everything the server needs. Location governs which calendar
// month a dashboard request resolves to.
type Deps struct {
	Store         storage.Store
	Authenticator *auth.PasswordAuthenticator
	Tokens        *auth.JWTManager
	Transactions  *services.TransactionService
	Dashboards    *services.DashboardService
	Location      *time.Location

	// RequestsPerMinute overrides the rate limiter default when > 0.
	RequestsPerMinute int
}

type Server struct {
	http.Server

	store        storage.Store
	auth         *auth.PasswordAuthenticator
	tokens       *auth.JWTManager
	transactions *services.TransactionService
	dashboards   *services.DashboardService
	loc          *time.Location

	limiter      *ratelimit.Limiter
	logger       *log.Logger
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}

	s := &Server{
		store:        deps.Store,
		auth:         deps.Authenticator,
		tokens:       deps.Tokens,
		transactions: deps.Transactions,
		dashboards:   deps.Dashboards,
		loc:          loc,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RequestsPerMinute,
		}),
		logger: log.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/v1/categories", s.requireAuth(s.handleListCategories))
	mux.HandleFunc("POST /api/v1/categories", s.requireAuth(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/v1/categories/{id}", s.requireAuth(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/v1/categories/{id}", s.requireAuth(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/v1/transactions", s.requireAuth(s.handleListTransactions))
	mux.HandleFunc("POST /api/v1/transactions", s.requireAuth(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/v1/transactions/{id}", s.requireAuth(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/v1/transactions/{id}", s.requireAuth(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.requireAuth(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/v1/dashboard", s.requireAuth(s.handleDashboard))

	extractor := security.NewClientIPExtractor()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(extractor.ExtractClientIP)
	limited := s.limiter.Middleware(extractor.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})

	var handler http.Handler = mux
	handler = limited(handler)
	handler = metrics.Middleware(handler)
	handler = tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter sweep and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady verifies the store answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.store.GetUserByID(ctx, "readiness-probe"); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.ErrorContext(ctx, "readiness check failed", log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
