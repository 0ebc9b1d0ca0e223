// Package service implements the transaction handlers of the coin economy.
//
// Every handler follows validate-then-mutate: all preconditions are checked
// against the store first and a *RejectError is returned before anything is
// written. On success a handler reports the store slices it changed so the
// caller can publish them. Handlers are not safe for concurrent use; they run
// on the loop that owns the store.
package service

import (
	"math"
	"time"

	"coinhub/internal/model"
	"coinhub/internal/store"
)

// Experience awards.
const (
	taskExperience       = 20
	vipExperience        = 100
	marketBuyExperience  = 30
	transferExperience   = 10
	giftExperiencePerUSD = 2
)

// Base-rate nudges applied by purchases.
const (
	giftRateNudge = 0.0001
	vipRateNudge  = 0.0005
)

// MaxBalance caps the balance an administrator may set and the reward of a new task.
const MaxBalance int64 = 1_000_000_000_000_000

// dateLayout is the calendar day format of Account.LastActiveDate.
const dateLayout = "2006-01-02"

// Clock returns the current time.
type Clock func() time.Time

// Rand is the randomness handlers draw from. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Today formats t as the UTC calendar day used for daily counters.
func Today(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// base carries the dependencies shared by all handlers.
type base struct {
	st    *store.Store
	clock Clock
}

func newBase(st *store.Store, clock Clock) base {
	if clock == nil {
		clock = time.Now
	}
	return base{st: st, clock: clock}
}

func (b base) now() time.Time {
	return b.clock()
}

func (b base) nowMillis() int64 {
	return b.clock().UnixMilli()
}

// actor resolves the acting account.
func (b base) actor(username string) (*model.Account, error) {
	if username == "" {
		return nil, ErrUnauthenticated
	}
	acc, ok := b.st.Account(username)
	if !ok {
		return nil, Reject(CodeNotFound, "account %q not found", username)
	}
	return acc, nil
}

// touch rolls the daily counters over when the account was last active on an earlier day.
func (b base) touch(acc *model.Account) {
	today := Today(b.now())
	if acc.LastActiveDate != today {
		acc.EarnedToday = 0
		acc.LastActiveDate = today
	}
}

// canCredit reports whether amount can be added to balance without overflowing.
func canCredit(balance, amount int64) bool {
	return amount <= 0 || balance <= math.MaxInt64-amount
}
