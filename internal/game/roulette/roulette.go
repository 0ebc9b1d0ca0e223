// Package roulette implements the daily roulette prize draw.
//
// The draw is a single uniform number in [0, 1) mapped onto a cumulative
// probability table. Cooldown enforcement belongs to the caller.
package roulette

import (
	"errors"
	"time"
)

// DefaultCooldown is the minimum time between two spins of one account.
const DefaultCooldown = 12 * time.Hour

// SpinExperience is the experience awarded for every spin.
const SpinExperience = 5

// Kind is the kind of a prize.
type Kind string

const (
	KindCoins Kind = "coins"
	KindGift  Kind = "gift"
)

// Prize is one slot on the wheel.
type Prize struct {
	Index  int
	Label  string
	Kind   Kind
	Amount int64
	GiftID string
	// Upper is the cumulative probability bound of this slot (exclusive).
	Upper float64
}

// ErrOutOfRange is returned for draws outside [0, 1).
var ErrOutOfRange = errors.New("roll must be in [0, 1)")

// Prizes is the wheel in table order. Upper bounds are strictly increasing and end at 1.
var Prizes = []Prize{
	{Index: 0, Label: "10 coins", Kind: KindCoins, Amount: 10, Upper: 0.30},
	{Index: 1, Label: "20 coins", Kind: KindCoins, Amount: 20, Upper: 0.55},
	{Index: 2, Label: "30 coins", Kind: KindCoins, Amount: 30, Upper: 0.70},
	{Index: 3, Label: "40 coins", Kind: KindCoins, Amount: 40, Upper: 0.80},
	{Index: 4, Label: "5 coins", Kind: KindCoins, Amount: 5, Upper: 0.94},
	{Index: 5, Label: "100 coins", Kind: KindCoins, Amount: 100, Upper: 0.99},
	{Index: 6, Label: "Gift", Kind: KindGift, GiftID: "1", Upper: 0.995},
	{Index: 7, Label: "50 coins", Kind: KindCoins, Amount: 50, Upper: 1},
}

// Draw maps a roll in [0, 1) to its prize.
func Draw(roll float64) (Prize, error) {
	if roll < 0 || roll >= 1 {
		return Prize{}, ErrOutOfRange
	}
	for _, p := range Prizes {
		if roll < p.Upper {
			return p, nil
		}
	}
	return Prizes[len(Prizes)-1], nil
}

// Source supplies uniform rolls in [0, 1).
type Source interface {
	Float64() float64
}

// Spin draws one prize from src.
func Spin(src Source) Prize {
	p, err := Draw(src.Float64())
	if err != nil {
		// Float64 never leaves [0, 1); fall back to the most common slot.
		return Prizes[0]
	}
	return p
}

// Ready reports whether an account that last spun at last may spin at now.
// A zero last means the account has never spun.
func Ready(last, now time.Time, cooldown time.Duration) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= cooldown
}

// Remaining returns how long until the next spin is allowed.
func Remaining(last, now time.Time, cooldown time.Duration) time.Duration {
	if Ready(last, now, cooldown) {
		return 0
	}
	return cooldown - now.Sub(last)
}
