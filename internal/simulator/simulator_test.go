package simulator

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"coinhub/internal/store"
)

type constSource []float64

func (c *constSource) Float64() float64 {
	v := (*c)[0]
	if len(*c) > 1 {
		*c = (*c)[1:]
	}
	return v
}

func TestNextRevertsWithoutNoise(t *testing.T) {
	// 0.5 cancels jitter; 0.9 skips the shock.
	src := &constSource{0.5, 0.9}
	got := Next(0.01, 0.02, src)
	assert.InDelta(t, 0.011, got, 1e-12)
}

func TestNextShock(t *testing.T) {
	// No jitter, shock taken with the maximum upward draw.
	src := &constSource{0.5, 0.0, 1.0}
	got := Next(0.01, 0.01, src)
	assert.InDelta(t, 0.01+0.5*ShockSpan, got, 1e-12)
}

func TestNextFloor(t *testing.T) {
	src := &constSource{0.0, 0.0, 0.0}
	assert.Equal(t, MinRate, Next(0.001, 0.0, src))
}

func TestTickLabelsAndAppends(t *testing.T) {
	st := store.New(store.Options{})
	sim := New(st, &constSource{0.5, 0.9})
	now := time.Date(2024, 5, 1, 9, 5, 7, 0, time.UTC)

	sample, changed := sim.Tick(now)
	assert.Equal(t, store.SliceRates, changed)
	assert.Equal(t, "09:05:07", sample.Time)
	assert.Len(t, st.Rates(), 2)
	assert.Equal(t, sample, st.LastRate())
}

// Every emitted rate stays at or above the floor and the history never exceeds its limit.
func TestRateFloorAndHistoryBoundProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(t, "limit")
		st := store.New(store.Options{
			HistoryLimit: limit,
			InitialRate:  rapid.Float64Range(0.001, 1).Draw(t, "initial"),
		})
		seed := rapid.Uint64().Draw(t, "seed")
		sim := New(st, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))

		ticks := rapid.IntRange(1, 200).Draw(t, "ticks")
		for i := 0; i < ticks; i++ {
			if rapid.Bool().Draw(t, "crash") {
				st.NudgeBaseRate(-rapid.Float64Range(0, 1).Draw(t, "drop"))
			}
			sample, _ := sim.Tick(time.Unix(int64(i), 0))
			if sample.Rate < MinRate {
				t.Fatalf("tick %d produced %v below floor", i, sample.Rate)
			}
			if n := len(st.Rates()); n > limit {
				t.Fatalf("history length %d exceeds %d", n, limit)
			}
		}
	})
}

func TestDefaultHistoryLimit(t *testing.T) {
	st := store.New(store.Options{})
	sim := New(st, nil)
	for i := 0; i < 600; i++ {
		sim.Tick(time.Unix(int64(i), 0))
	}
	assert.Len(t, st.Rates(), 500)
}
