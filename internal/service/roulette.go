package service

import (
	"time"

	"coinhub/internal/game/roulette"
	"coinhub/internal/store"
)

// SpinResult is the prize sent back to the spinning client.
type SpinResult struct {
	PrizeIndex int           `json:"prizeIndex"`
	Kind       roulette.Kind `json:"kind"`
	Amount     int64         `json:"amount,omitempty"`
	GiftID     string        `json:"giftId,omitempty"`
}

// RouletteService draws roulette prizes and enforces the cooldown.
type RouletteService struct {
	base
	rng      Rand
	cooldown time.Duration
}

// NewRouletteService creates a new RouletteService instance.
func NewRouletteService(st *store.Store, rng Rand, cooldown time.Duration, clock Clock) *RouletteService {
	if rng == nil {
		rng = globalRand{}
	}
	if cooldown <= 0 {
		cooldown = roulette.DefaultCooldown
	}
	return &RouletteService{base: newBase(st, clock), rng: rng, cooldown: cooldown}
}

// Spin draws a prize for the actor if the cooldown has elapsed. Gift prizes
// come from outside the shop and do not reduce stock.
func (s *RouletteService) Spin(actorName string) (*SpinResult, store.Slice, error) {
	actor, err := s.actor(actorName)
	if err != nil {
		return nil, store.SliceNone, err
	}

	now := s.now()
	var last time.Time
	if actor.LastRouletteTime > 0 {
		last = time.UnixMilli(actor.LastRouletteTime)
	}
	if !roulette.Ready(last, now, s.cooldown) {
		left := roulette.Remaining(last, now, s.cooldown).Round(time.Second)
		return nil, store.SliceNone, Reject(CodeCooldownActive, "next spin in %s", left)
	}

	prize := roulette.Spin(s.rng)
	if prize.Kind == roulette.KindCoins && !canCredit(actor.Coins, prize.Amount) {
		return nil, store.SliceNone, ErrBalanceLimit
	}

	s.touch(actor)
	switch prize.Kind {
	case roulette.KindGift:
		actor.Gifts = append(actor.Gifts, prize.GiftID)
	default:
		actor.Coins += prize.Amount
	}
	actor.Experience += roulette.SpinExperience
	actor.LastRouletteTime = now.UnixMilli()

	return &SpinResult{
		PrizeIndex: prize.Index,
		Kind:       prize.Kind,
		Amount:     prize.Amount,
		GiftID:     prize.GiftID,
	}, store.SliceAccounts, nil
}
