// Package server exposes the websocket endpoint, a small JSON API and the
// browser client's static assets over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"coinhub/internal/config"
	"coinhub/internal/model"
	"coinhub/internal/service"
	"coinhub/internal/store"
)

// Querier runs read-only functions against the store on its owning loop.
type Querier interface {
	Do(ctx context.Context, fn func(st *store.Store)) error
}

// Counter reports the number of live connections.
type Counter interface {
	Count() int
}

// Pinger checks an external dependency.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// LedgerArchive reads archived ledger entries.
type LedgerArchive interface {
	Recent(ctx context.Context, limit int) ([]model.LedgerEntry, error)
}

// SnapshotArchive reads archived account snapshots.
type SnapshotArchive interface {
	Latest(ctx context.Context, username string) (*model.Account, time.Time, error)
}

// Dependencies holds everything the HTTP layer needs.
type Dependencies struct {
	Config    *config.ServerConfig
	Engine    Querier
	Hub       Counter
	WebSocket http.HandlerFunc
	Rankings  *service.RankingService

	// Database and the archives are optional. When set, /api/health reports the
	// database status and the archive routes are mounted.
	Database  Pinger
	Ledger    LedgerArchive
	Snapshots SnapshotArchive
}

// Server is the HTTP front of the process.
type Server struct {
	cfg       *config.ServerConfig
	engine    Querier
	hub       Counter
	rankings  *service.RankingService
	database  Pinger
	ledger    LedgerArchive
	snapshots SnapshotArchive
	router    *chi.Mux
	http      *http.Server
}

// New builds the router and the underlying http.Server.
func New(deps *Dependencies) *Server {
	s := &Server{
		cfg:       deps.Config,
		engine:    deps.Engine,
		hub:       deps.Hub,
		rankings:  deps.Rankings,
		database:  deps.Database,
		ledger:    deps.Ledger,
		snapshots: deps.Snapshots,
	}

	r := chi.NewRouter()
	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if deps.WebSocket != nil {
		r.Get("/ws", deps.WebSocket)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/leaderboard", s.handleLeaderboard)
		if s.ledger != nil {
			r.Get("/ledger", s.handleLedger)
		}
		if s.snapshots != nil {
			r.Get("/accounts/{username}/snapshot", s.handleSnapshot)
		}
	})

	if s.cfg.IsProduction() {
		r.Handle("/*", spaHandler(s.cfg.StaticDir))
	}

	s.router = r
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called. It returns nil on a clean shutdown.
func (s *Server) Start() error {
	log.Info().
		Str("addr", s.cfg.Addr).
		Str("mode", s.cfg.Mode).
		Msg("HTTP server listening")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
// Hijacked websocket connections are not tracked here; the hub closes them.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping HTTP server...")
	return s.http.Shutdown(ctx)
}
