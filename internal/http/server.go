package http

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tally/internal/metrics"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/trace"
	"tally/internal/services"
)

// Server carries the API's handlers and the router wiring them together.
type Server struct {
	router *chi.Mux

	expenses   *services.ExpenseService
	recurring  *services.RecurringService
	settlement *services.SettlementService

	ready func() error
}

// Options configures the optional middleware surface.
type Options struct {
	JWTSecret string
	Limiter   *ratelimit.Limiter
	Metrics   *metrics.Metrics

	// Ready reports whether dependencies can serve traffic; nil means
	// always ready.
	Ready func() error
}

func NewServer(expenses *services.ExpenseService, recurring *services.RecurringService, settlement *services.SettlementService, opts Options) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		expenses:   expenses,
		recurring:  recurring,
		settlement: settlement,
		ready:      opts.Ready,
	}

	s.router.Use(chimw.Recoverer)
	s.router.Use(trace.Middleware(clientIP))
	if opts.Metrics != nil {
		s.router.Use(opts.Metrics.Middleware(routePattern))
	}
	if opts.Limiter != nil {
		s.router.Use(opts.Limiter.Middleware(clientIP, nil))
	}

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)
	if opts.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	s.router.Group(func(r chi.Router) {
		r.Use(Authenticator(opts.JWTSecret))

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Get("/{id}", s.handleGetExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Route("/recurring", func(r chi.Router) {
			r.Get("/", s.handleListRecurring)
			r.Post("/", s.handleCreateRecurring)
			r.Post("/apply", s.handleApplyRecurring)
			r.Get("/{id}", s.handleGetRecurring)
			r.Put("/{id}", s.handleUpdateRecurring)
			r.Delete("/{id}", s.handleDeleteRecurring)
		})

		r.Get("/settlement", s.handleSettlement)
	})

	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
