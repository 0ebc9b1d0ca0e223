package service

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"coinhub/internal/model"
)

func TestTopAccounts(t *testing.T) {
	f := newFixture(t)
	f.account(t, "alice", 500, model.TierNone)
	f.account(t, "bob", 5000, model.TierGold)
	svc := NewRankingService(f.st)

	top := svc.TopAccounts(2)
	assert.Len(t, top, 2)
	assert.Equal(t, "bob", top[0].Username)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, model.TierGold, top[0].VIP)
	assert.Equal(t, "admin", top[1].Username)

	assert.Len(t, svc.TopAccounts(0), 3)
}

// Results are ordered by balance descending and never exceed the limit.
func TestTopAccountsOrderingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(t)
		n := rapid.IntRange(0, 30).Draw(t, "accounts")
		for i := 0; i < n; i++ {
			name := rapid.StringMatching(`[a-z]{6,12}`).Draw(t, "username")
			if _, ok := f.st.Account(name); ok {
				continue
			}
			f.account(t, name, rapid.Int64Range(0, 1_000_000).Draw(t, "coins"), model.TierNone)
		}
		limit := rapid.IntRange(1, 40).Draw(t, "limit")

		top := NewRankingService(f.st).TopAccounts(limit)
		if len(top) != min(limit, f.st.AccountCount()) {
			t.Fatalf("got %d entries, want %d", len(top), min(limit, f.st.AccountCount()))
		}
		if !sort.SliceIsSorted(top, func(i, j int) bool { return top[i].Coins > top[j].Coins }) {
			t.Fatalf("leaderboard not sorted: %v", top)
		}
	})
}
