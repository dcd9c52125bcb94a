package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/corebank/ledger/internal/adapter/http/handler"
	"github.com/corebank/ledger/internal/adapter/http/middleware"
	"github.com/corebank/ledger/internal/infrastructure/auth"
	"github.com/corebank/ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	JWTManager         *auth.JWTManager
	RateLimit          float64
	RateBurst          int
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	if cfg.RateLimit > 0 {
		r.Use(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst).Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		} else {
			r.Use(middleware.HeaderAuthMiddleware)
		}

		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.With(middleware.RequireAdmin).Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.With(middleware.RequireAdmin).Put("/{id}/status", cfg.AccountHandler.ChangeStatus)
			r.Get("/{id}/transactions", cfg.AccountHandler.History)
			r.Get("/{id}/summary", cfg.AccountHandler.Summary)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Post("/{id}/cancel", cfg.TransactionHandler.Cancel)
			r.With(middleware.RequireAdmin).Post("/{id}/reverse", cfg.TransactionHandler.Reverse)
			r.With(middleware.RequireAdmin).Put("/{id}/flag", cfg.TransactionHandler.Flag)
		})

		r.With(middleware.RequireAdmin).Get("/ledger/conservation", cfg.LedgerHandler.Conservation)
	})

	return r
}
