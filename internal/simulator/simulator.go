// Package simulator drifts the exchange rate toward the store's base rate.
//
// Each step reverts a tenth of the gap to the target, adds small uniform
// jitter and, one time in twenty, a ten times larger shock. The result never
// drops below MinRate.
package simulator

import (
	"math"
	"math/rand/v2"
	"time"

	"coinhub/internal/model"
	"coinhub/internal/store"
)

// Model constants.
const (
	MinRate          = 0.001
	Reversion        = 0.1
	JitterSpan       = 0.0005
	ShockSpan        = 0.005
	ShockProbability = 0.05
)

// LabelLayout formats sample labels as wall-clock time.
const LabelLayout = "15:04:05"

// Source supplies uniform numbers in [0, 1).
type Source interface {
	Float64() float64
}

// Next returns the rate following last given the drift target.
func Next(last, target float64, src Source) float64 {
	change := (src.Float64() - 0.5) * JitterSpan
	change += (target - last) * Reversion
	if src.Float64() < ShockProbability {
		change += (src.Float64() - 0.5) * ShockSpan
	}
	return math.Max(MinRate, last+change)
}

// Simulator appends rate samples to a store.
type Simulator struct {
	st  *store.Store
	src Source
}

// New creates a Simulator. A nil src uses the global generator.
func New(st *store.Store, src Source) *Simulator {
	if src == nil {
		src = globalSource{}
	}
	return &Simulator{st: st, src: src}
}

// Tick appends one sample stamped with now and reports the changed slice.
func (s *Simulator) Tick(now time.Time) (model.RateSample, store.Slice) {
	sample := model.RateSample{
		Time: now.Format(LabelLayout),
		Rate: Next(s.st.LastRate().Rate, s.st.BaseRate(), s.src),
	}
	s.st.AppendRate(sample)
	return sample, store.SliceRates
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
