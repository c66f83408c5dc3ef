package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/chorewheel/internal/database"
	"github.com/dukerupert/chorewheel/internal/handler"
	"github.com/dukerupert/chorewheel/internal/middleware"
	ws "github.com/dukerupert/chorewheel/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	householdH    *handler.HouseholdHandler
	familyMemberH *handler.FamilyMemberHandler
	choreH        *handler.ChoreHandler
	rateLimiter   *middleware.RateLimiter
	gatherer      prometheus.Gatherer
	logger        *slog.Logger
}

// New wires the HTTP handlers. A nil gatherer leaves /metrics unregistered.
func New(db *sql.DB, gen handler.Generator, hub *ws.Hub, limiter *middleware.RateLimiter, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	uow := database.NewUnitOfWork(db)
	handlerLogger := logger.With("component", "handler")

	return &Server{
		db:            db,
		hub:           hub,
		householdH:    handler.NewHouseholdHandler(db, gen, handlerLogger),
		familyMemberH: handler.NewFamilyMemberHandler(db, uow, hub, handlerLogger),
		choreH:        handler.NewChoreHandler(db, uow, gen, hub, handlerLogger),
		rateLimiter:   limiter,
		gatherer:      gatherer,
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	s.registerRoutes(mux)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited guards the generation endpoints, which each open a write
// transaction.
func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	if s.rateLimiter == nil {
		return h
	}
	return middleware.RateLimit(s.rateLimiter)(h)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Households
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("PUT /api/households/{id}", s.householdH.Update)
	mux.HandleFunc("DELETE /api/households/{id}", s.householdH.Delete)
	mux.Handle("POST /api/households/{id}/generate", s.rateLimited(s.householdH.Generate))
	mux.HandleFunc("GET /api/households/{id}/instances", s.householdH.Instances)

	// Family members
	mux.HandleFunc("GET /api/households/{id}/members", s.familyMemberH.List)
	mux.HandleFunc("POST /api/households/{id}/members", s.familyMemberH.Create)
	mux.HandleFunc("PUT /api/households/{id}/members/sort", s.familyMemberH.UpdateSortOrder)
	mux.HandleFunc("PUT /api/members/{id}", s.familyMemberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.familyMemberH.Delete)
	mux.HandleFunc("GET /api/members/{id}/instances", s.familyMemberH.Instances)

	// Chores
	mux.HandleFunc("GET /api/households/{id}/chores", s.choreH.List)
	mux.HandleFunc("POST /api/households/{id}/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)
	mux.HandleFunc("PUT /api/chores/{id}/assignees", s.choreH.SetAssignees)
	mux.Handle("POST /api/chores/{id}/generate", s.rateLimited(s.choreH.Generate))
	mux.HandleFunc("GET /api/chores/{id}/instances", s.choreH.Instances)
	mux.HandleFunc("GET /api/chores/{id}/schedule", s.choreH.Schedule)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
