// Package main is the entry point for the coinhub server.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coinhub/internal/config"
	"coinhub/internal/engine"
	"coinhub/internal/hub"
	"coinhub/internal/pkg/db"
	"coinhub/internal/repository"
	"coinhub/internal/router"
	"coinhub/internal/server"
	"coinhub/internal/service"
	"coinhub/internal/session"
	"coinhub/internal/simulator"
	"coinhub/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg)
	log.Info().Str("mode", cfg.Server.Mode).Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, err := session.NewManager(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session manager")
	}
	if cfg.Session.Secret == "" {
		log.Warn().Msg("No session secret configured, tokens will not survive a restart")
	}

	// Initialize store and seed the administrator
	now := time.Now()
	st := store.New(store.Options{
		HistoryLimit:    cfg.Simulator.HistoryLimit,
		GlobalChatLimit: cfg.Economy.GlobalChatLimit,
		InitialRate:     cfg.Simulator.InitialRate,
		StartLabel:      now.Format(simulator.LabelLayout),
	})

	adminHash, err := sessions.HashPassword(cfg.Admin.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash admin password")
	}
	st.SeedAdmin(cfg.Admin.Username, adminHash, service.Today(now))

	// Initialize services
	accounts := service.NewAccountService(st, sessions, nil)
	rankings := service.NewRankingService(st)

	rt := router.New(cfg.Session.RequireAuth)
	if err := rt.RegisterAll(&router.Services{
		Accounts:  accounts,
		Tasks:     service.NewTaskService(st, nil),
		Shop:      service.NewShopService(st, nil, nil),
		Market:    service.NewMarketService(st, nil),
		Transfers: service.NewTransferService(st, nil),
		Chat:      service.NewChatService(st, nil),
		Roulette:  service.NewRouletteService(st, nil, cfg.Economy.RouletteCooldown, nil),
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to register routes")
	}

	log.Info().
		Int("route_count", rt.Count()).
		Strs("actions", rt.Actions()).
		Msg("Routes registered")

	var workers sync.WaitGroup

	// Optional Redis mirror
	var mirror hub.Mirror
	if cfg.Redis.Enabled {
		client, err := hub.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer client.Close()

		m := hub.NewRedisMirror(client, cfg.Redis.Channel)
		mirror = m
		workers.Add(1)
		go func() {
			defer workers.Done()
			m.Run(ctx)
		}()
	}

	// Optional Postgres audit archive
	var (
		archive   engine.Archiver
		dbPool    *db.Pool
		ledger    *repository.LedgerRepository
		snapshots *repository.SnapshotRepository
	)
	archiveCtx, stopArchive := context.WithCancel(context.Background())
	defer stopArchive()
	if cfg.Database.Enabled {
		dbPool, err = db.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbPool.Close()

		if err := repository.Migrate(ctx, dbPool.Pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}

		ledger = repository.NewLedgerRepository(dbPool.Pool)
		snapshots = repository.NewSnapshotRepository(dbPool.Pool)
		a := repository.NewArchive(ledger, snapshots, 0)
		archive = a
		workers.Add(1)
		go func() {
			defer workers.Done()
			a.Run(archiveCtx)
		}()
	}

	// The hub and the engine reference each other; the dispatcher is installed once both exist.
	var eng *engine.Engine
	authenticate := func(ctx context.Context, token string) (string, error) {
		var (
			sess    *service.Session
			authErr error
		)
		if err := eng.Do(ctx, func(*store.Store) {
			sess, authErr = accounts.Resume(token)
		}); err != nil {
			return "", err
		}
		if authErr != nil {
			return "", authErr
		}
		return sess.Username, nil
	}

	h := hub.New(hub.OptionsFromConfig(cfg.Hub), nil, authenticate, mirror)
	eng = engine.New(engine.Options{
		Store:     st,
		Router:    rt,
		Simulator: simulator.New(st, nil),
		Hub:       h,
		Archive:   archive,
		Interval:  cfg.Simulator.Interval,
	})
	h.SetDispatcher(eng)

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		_ = eng.Run(ctx)
	}()

	deps := &server.Dependencies{
		Config:    &cfg.Server,
		Engine:    eng,
		Hub:       h,
		WebSocket: h.ServeWS,
		Rankings:  rankings,
	}
	if dbPool != nil {
		deps.Database = dbPool
		deps.Ledger = ledger
		deps.Snapshots = snapshots
	}
	srv := server.New(deps)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	// Graceful shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	cancel()
	<-engineDone
	h.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server did not shut down cleanly")
	}

	stopArchive()
	workers.Wait()

	log.Info().Msg("Server stopped gracefully")
}

// setupLogging configures the global logger from the loaded configuration.
func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.Server.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
