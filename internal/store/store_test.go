package store

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinhub/internal/idgen"
	"coinhub/internal/model"
)

// seqSource returns scripted offsets into the account id range.
type seqSource struct {
	next []int
}

func (s *seqSource) IntN(n int) int {
	v := s.next[0]
	if len(s.next) > 1 {
		s.next = s.next[1:]
	}
	return v % n
}

func TestNewSeedsCatalog(t *testing.T) {
	st := New(Options{})

	assert.Len(t, st.Gifts(), 5)
	assert.Len(t, st.Tasks(), 3)
	assert.Len(t, st.Rates(), 1)
	assert.Equal(t, 0.01, st.BaseRate())
	assert.Equal(t, 0.01, st.LastRate().Rate)
	assert.Zero(t, st.AccountCount())
}

func TestSeedAdmin(t *testing.T) {
	st := New(Options{})
	admin := st.SeedAdmin("admin", "hash", "2024-05-01")

	assert.Equal(t, AdminAccountID, admin.ID)
	assert.Equal(t, model.TierDiamond, admin.VIP)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.Equal(t, int64(1000), admin.Coins)
	assert.Equal(t, int64(1000), admin.Experience)

	byID, ok := st.AccountByID(AdminAccountID)
	require.True(t, ok)
	assert.Same(t, admin, byID)
}

func TestCreateAccount(t *testing.T) {
	// 12345 is reserved, 11111 repeats one digit, 48213 is accepted, then 48213 again is taken.
	src := &seqSource{next: []int{12345 - 10000, 11111 - 10000, 48213 - 10000, 48213 - 10000, 50000 - 10000}}
	st := New(Options{IDs: idgen.NewAccountIDs(src)})

	alice, err := st.CreateAccount("alice", "h", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "48213", alice.ID)
	assert.Equal(t, model.TierNone, alice.VIP)
	assert.Equal(t, model.RoleUser, alice.Role)
	assert.NotNil(t, alice.Gifts)

	bob, err := st.CreateAccount("bob", "h", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, "50000", bob.ID)

	_, err = st.CreateAccount("alice", "h", "2024-05-01")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	_, err = st.CreateAccount(" ", "h", "2024-05-01")
	assert.ErrorIs(t, err, ErrEmptyUsername)
	assert.Equal(t, 2, st.AccountCount())
}

func TestAccountsReturnsCopies(t *testing.T) {
	st := New(Options{})
	acc, err := st.CreateAccount("alice", "h", "2024-05-01")
	require.NoError(t, err)
	acc.Gifts = []string{"1"}

	copies := st.Accounts()
	copies[0].Coins = 999
	copies[0].Gifts[0] = "5"

	assert.Zero(t, acc.Coins)
	assert.Equal(t, []string{"1"}, acc.Gifts)
}

func TestRateHistoryBounded(t *testing.T) {
	st := New(Options{HistoryLimit: 3})
	for i := 0; i < 10; i++ {
		st.AppendRate(model.RateSample{Time: fmt.Sprint(i), Rate: float64(i)})
	}

	rates := st.Rates()
	require.Len(t, rates, 3)
	assert.Equal(t, "7", rates[0].Time)
	assert.Equal(t, "9", st.LastRate().Time)
}

func TestLedgerNewestFirst(t *testing.T) {
	st := New(Options{})
	st.AppendLedger(model.LedgerEntry{ID: "a"})
	st.AppendLedger(model.LedgerEntry{ID: "b"})

	ledger := st.Ledger()
	require.Len(t, ledger, 2)
	assert.Equal(t, "b", ledger[0].ID)
}

func TestRecentLedger(t *testing.T) {
	st := New(Options{})
	for _, id := range []string{"a", "b", "c"} {
		st.AppendLedger(model.LedgerEntry{ID: id})
	}
	assert.Equal(t, 3, st.LedgerLen())

	recent := st.RecentLedger(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "b", recent[1].ID)

	recent[0].ID = "changed"
	assert.Equal(t, "c", st.Ledger()[0].ID)

	assert.Len(t, st.RecentLedger(10), 3)
	assert.NotNil(t, st.RecentLedger(0))
	assert.Empty(t, st.RecentLedger(-1))
}

func TestListingsAndTasks(t *testing.T) {
	st := New(Options{})
	st.AddListing(&model.Listing{ID: "l1", Seller: "alice", GiftID: "1", PriceCoins: 10})

	_, ok := st.Listing("l1")
	assert.True(t, ok)
	assert.True(t, st.RemoveListing("l1"))
	assert.False(t, st.RemoveListing("l1"))

	assert.True(t, st.RemoveTask("1"))
	assert.False(t, st.RemoveTask("1"))
	_, ok = st.Task("1")
	assert.False(t, ok)
}

func TestPairKey(t *testing.T) {
	assert.Equal(t, "alice_bob", PairKey("bob", "alice"))
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
}

func TestSliceEachOrder(t *testing.T) {
	var got []Slice
	(SliceAccounts | SliceLedger | SliceMarket).Each(func(s Slice) { got = append(got, s) })
	assert.Equal(t, []Slice{SliceMarket, SliceAccounts, SliceLedger}, got)

	assert.True(t, (SliceAccounts | SliceTasks).Has(SliceTasks))
	assert.False(t, SliceAccounts.Has(SliceNone))
}

func TestSnapshotHidesCredentials(t *testing.T) {
	st := New(Options{})
	st.SeedAdmin("admin", "super-secret-hash", "2024-05-01")

	raw, err := json.Marshal(st.Snapshot())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-hash")
	assert.Contains(t, string(raw), `"marketListings":[]`)
	assert.Contains(t, string(raw), `"users":[`)
}
