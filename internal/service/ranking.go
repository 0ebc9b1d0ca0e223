package service

import (
	"coinhub/internal/model"
	"coinhub/internal/store"
)

// DefaultLeaderboardSize is used when the caller passes no limit.
const DefaultLeaderboardSize = 10

// maxLeaderboardSize caps the limit a client may request.
const maxLeaderboardSize = 100

// RankEntry is one leaderboard row.
type RankEntry struct {
	Rank       int           `json:"rank"`
	ID         string        `json:"id"`
	Username   string        `json:"username"`
	Coins      int64         `json:"coins"`
	VIP        model.VIPTier `json:"vip"`
	Experience int64         `json:"experience"`
}

// RankingService reads the leaderboard.
type RankingService struct {
	st *store.Store
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(st *store.Store) *RankingService {
	return &RankingService{st: st}
}

// TopAccounts returns the richest accounts, highest balance first.
func (s *RankingService) TopAccounts(limit int) []RankEntry {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	top := s.st.TopAccounts(limit)
	entries := make([]RankEntry, len(top))
	for i, acc := range top {
		entries[i] = RankEntry{
			Rank:       i + 1,
			ID:         acc.ID,
			Username:   acc.Username,
			Coins:      acc.Coins,
			VIP:        acc.VIP,
			Experience: acc.Experience,
		}
	}
	return entries
}
