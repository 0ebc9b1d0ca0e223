package service

import (
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"coinhub/internal/model"
	"coinhub/internal/session"
	"coinhub/internal/store"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fixedRand replays rolls and picks in order, then repeats the last one.
type fixedRand struct {
	rolls []float64
	picks []int
}

func (r *fixedRand) Float64() float64 {
	if len(r.rolls) == 0 {
		return 0
	}
	v := r.rolls[0]
	if len(r.rolls) > 1 {
		r.rolls = r.rolls[1:]
	}
	return v
}

func (r *fixedRand) IntN(n int) int {
	if len(r.picks) == 0 {
		return 0
	}
	v := r.picks[0]
	if len(r.picks) > 1 {
		r.picks = r.picks[1:]
	}
	return v % n
}

type clockStub struct {
	now time.Time
}

func (c *clockStub) Now() time.Time { return c.now }

// tb is satisfied by *testing.T and *rapid.T.
type tb interface {
	Helper()
	require.TestingT
}

type fixture struct {
	st       *store.Store
	clock    *clockStub
	sessions *session.Manager
}

func newFixture(t tb) *fixture {
	t.Helper()
	clock := &clockStub{now: testNow}
	sessions, err := session.NewManager("test-secret", time.Hour,
		session.WithBcryptCost(bcrypt.MinCost), session.WithClock(time.Now))
	require.NoError(t, err)

	st := store.New(store.Options{})
	st.SeedAdmin("admin", "", Today(testNow))
	return &fixture{st: st, clock: clock, sessions: sessions}
}

// account creates an account directly in the store with the given balance and tier.
func (f *fixture) account(t tb, name string, coins int64, tier model.VIPTier) *model.Account {
	t.Helper()
	acc, err := f.st.CreateAccount(name, "", Today(f.clock.now))
	require.NoError(t, err)
	acc.Coins = coins
	acc.VIP = tier
	return acc
}
