package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"coinhub/internal/model"
	"coinhub/internal/repository"
	"coinhub/internal/service"
	"coinhub/internal/store"
)

const queryTimeout = 5 * time.Second

// Page sizes of GET /api/ledger.
const (
	defaultLedgerPage = 50
	maxLedgerPage     = 500
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Connections int       `json:"connections"`
	Accounts    int       `json:"accounts"`
	Database    string    `json:"database,omitempty"`
}

// LeaderboardResponse is the body of GET /api/leaderboard.
type LeaderboardResponse struct {
	Entries []service.RankEntry `json:"entries"`
}

// LedgerResponse is the body of GET /api/ledger.
type LedgerResponse struct {
	Entries []model.LedgerEntry `json:"entries"`
}

// SnapshotResponse is the body of GET /api/accounts/{username}/snapshot.
type SnapshotResponse struct {
	Account *model.Account `json:"account"`
	TakenAt time.Time      `json:"takenAt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	}
	if s.hub != nil {
		resp.Connections = s.hub.Count()
	}

	status := http.StatusOK
	if err := s.engine.Do(ctx, func(st *store.Store) {
		resp.Accounts = st.AccountCount()
	}); err != nil {
		log.Warn().Err(err).Msg("Health check could not reach engine")
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if s.database != nil {
		resp.Database = "ok"
		if err := s.database.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Msg("Health check could not reach database")
			resp.Database = "unavailable"
			if status == http.StatusOK {
				resp.Status = "degraded"
			}
		}
	}

	writeJSON(w, status, resp)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, service.DefaultLeaderboardSize)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	var entries []service.RankEntry
	if err := s.engine.Do(ctx, func(*store.Store) {
		entries = s.rankings.TopAccounts(limit)
	}); err != nil {
		log.Warn().Err(err).Msg("Leaderboard query failed")
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, LeaderboardResponse{Entries: entries})
}

// handleLedger lists archived ledger entries, newest first.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, defaultLedgerPage)
	if !ok {
		return
	}
	limit = min(limit, maxLedgerPage)

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	entries, err := s.ledger.Recent(ctx, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read archived ledger")
		writeError(w, http.StatusServiceUnavailable, "archive unavailable")
		return
	}
	writeJSON(w, http.StatusOK, LedgerResponse{Entries: entries})
}

// handleSnapshot returns the latest archived copy of one account.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	acc, takenAt, err := s.snapshots.Latest(ctx, username)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		writeError(w, http.StatusNotFound, "no snapshot for account")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to read account snapshot")
		writeError(w, http.StatusServiceUnavailable, "archive unavailable")
		return
	}
	writeJSON(w, http.StatusOK, SnapshotResponse{Account: acc, TakenAt: takenAt})
}

// parseLimit reads the optional positive "limit" query parameter.
// It writes a 400 response and returns false when the value is invalid.
func parseLimit(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	return n, true
}

// spaHandler serves files from dir and falls back to index.html for client-side routes.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err != nil || info.IsDir() {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				http.ServeFile(w, r, filepath.Join(dir, "index.html"))
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
