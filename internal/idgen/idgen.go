// Package idgen allocates identifiers for new entities.
//
// Account ids are short numeric strings drawn by rejection sampling: a uniformly
// random 5-digit number is discarded if every digit is the same, if it is on the
// reserved list, or if it is already taken. With at most 90000 candidates and a
// sparse exclusion set the loop finishes after O(1) expected draws.
//
// Every other entity (listings, ledger entries, chat messages, tasks) gets an
// opaque UUID.
package idgen

import (
	"errors"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

const (
	minAccountID = 10000
	maxAccountID = 99999
)

// ErrExhausted is returned when no account id is left to allocate.
var ErrExhausted = errors.New("account id space exhausted")

// Reserved account ids are never handed out.
var Reserved = map[string]struct{}{
	"12345": {},
	"54321": {},
	"09090": {},
	"10101": {},
}

// Source is the randomness used for account ids.
type Source interface {
	IntN(n int) int
}

// AccountIDs allocates collision-free account ids.
type AccountIDs struct {
	rng Source
}

// NewAccountIDs creates an allocator. A nil source uses the global generator.
func NewAccountIDs(rng Source) *AccountIDs {
	return &AccountIDs{rng: rng}
}

func (a *AccountIDs) draw() string {
	n := maxAccountID - minAccountID + 1
	if a.rng != nil {
		return strconv.Itoa(minAccountID + a.rng.IntN(n))
	}
	return strconv.Itoa(minAccountID + rand.IntN(n))
}

// Next returns an id not present in taken. taken reports whether an id is assigned.
func (a *AccountIDs) Next(taken func(id string) bool, assigned int) (string, error) {
	// Upper bound on usable ids; all-same-digit numbers (9) and reserved ids excluded.
	if assigned >= maxAccountID-minAccountID+1-9-len(Reserved) {
		return "", ErrExhausted
	}
	for {
		id := a.draw()
		if !Acceptable(id) {
			continue
		}
		if taken(id) {
			continue
		}
		return id, nil
	}
}

// Acceptable reports whether id passes the static filters: not a repeated single
// digit and not reserved.
func Acceptable(id string) bool {
	if repeatedDigit(id) {
		return false
	}
	_, reserved := Reserved[id]
	return !reserved
}

func repeatedDigit(id string) bool {
	if id == "" {
		return false
	}
	for i := 1; i < len(id); i++ {
		if id[i] != id[0] {
			return false
		}
	}
	return true
}

// New returns an opaque id for non-account entities.
func New() string {
	return uuid.NewString()
}
