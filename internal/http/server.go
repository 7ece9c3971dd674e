// Package http wires the CRUD endpoints, the authorization gate, and the
// derived-state summary into one chi router.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"spendline/internal/auth"
	"spendline/internal/log"
	"spendline/internal/ratelimit"
	"spendline/internal/storage"
)

type Server struct {
	http.Server

	repo     *storage.Repository
	verifier *auth.Verifier
	log      *log.Logger
	pageSize int
}

// Options carries the server knobs main resolves from config.
type Options struct {
	Addr        string
	CORSOrigins []string
	PageSize    int

	// Requests per client IP per minute; 0 disables limiting.
	RateLimitPerMinute int
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options, repo *storage.Repository, verifier *auth.Verifier, logger *log.Logger) *Server {
	s := &Server{
		repo:     repo,
		verifier: verifier,
		log:      logger.WithComponent(log.ComponentHTTP),
		pageSize: opts.PageSize,
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(securityHeaders)

	var limiter *ratelimit.Limiter
	if opts.RateLimitPerMinute > 0 {
		limiter = ratelimit.New(opts.RateLimitPerMinute)
		r.Use(rateLimit(limiter, s.log))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(api chi.Router) {
		api.Use(verifier.Middleware)

		api.Get("/months", s.handleGetMonthSettings)
		api.Put("/months", s.handlePutMonthSettings)

		api.Get("/expenses", s.handleListExpenses)
		api.Post("/expenses", s.handleCreateExpense)
		api.Patch("/expenses", s.handleUpdateExpense)
		api.Delete("/expenses", s.handleDeleteExpense)

		api.Get("/assets", s.handleListAssets)
		api.Post("/assets", s.handleCreateAsset)
		api.Delete("/assets", s.handleDeleteAsset)

		api.Get("/goals", s.handleListGoals)
		api.Post("/goals", s.handleCreateGoal)
		api.Patch("/goals", s.handleUpdateGoal)
		api.Delete("/goals", s.handleDeleteGoal)

		api.Get("/summary", s.handleSummary)
	})

	s.Server = http.Server{
		Addr:    opts.Addr,
		Handler: r,
	}
	if limiter != nil {
		s.RegisterOnShutdown(limiter.Stop)
	}
	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady verifies the database is reachable before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		s.log.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
