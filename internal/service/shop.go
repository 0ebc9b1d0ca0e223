package service

import (
	"math/rand/v2"

	"coinhub/internal/catalog"
	"coinhub/internal/model"
	"coinhub/internal/store"
)

// ShopService handles gift and tier purchases. Payment happens outside the
// economy, so purchases never touch coin balances.
type ShopService struct {
	base
	rng Rand
}

// NewShopService creates a new ShopService instance. A nil rng uses the global generator.
func NewShopService(st *store.Store, rng Rand, clock Clock) *ShopService {
	if rng == nil {
		rng = globalRand{}
	}
	return &ShopService{base: newBase(st, clock), rng: rng}
}

// BuyGift takes one unit of a limited gift out of stock and gives it to the actor.
func (s *ShopService) BuyGift(actorName, giftID string) (store.Slice, error) {
	actor, err := s.actor(actorName)
	if err != nil {
		return store.SliceNone, err
	}
	gift, ok := s.st.Gift(giftID)
	if !ok {
		return store.SliceNone, Reject(CodeNotFound, "gift %q not found", giftID)
	}
	if gift.Limit <= 0 {
		return store.SliceNone, ErrOutOfStock
	}

	gift.Limit--
	s.touch(actor)
	actor.Gifts = append(actor.Gifts, gift.ID)
	actor.Experience += giftExperiencePerUSD * gift.PriceUSD
	s.st.NudgeBaseRate(giftRateNudge)

	return store.SliceGifts | store.SliceAccounts | store.SliceBaseRate, nil
}

// BuyVIP upgrades the actor's tier. Gold and Diamond come with one bonus gift.
func (s *ShopService) BuyVIP(actorName string, level model.VIPTier) (store.Slice, error) {
	actor, err := s.actor(actorName)
	if err != nil {
		return store.SliceNone, err
	}
	if !catalog.IsPurchasable(level) {
		return store.SliceNone, Reject(CodeInvalidPayload, "tier %q cannot be bought", level)
	}
	if level.Rank() <= actor.VIP.Rank() {
		return store.SliceNone, Reject(CodeTierNotUpgrade, "already at %s", actor.VIP)
	}

	var bonus string
	if level.Premium() {
		bonus = s.bonusGift()
	}

	s.touch(actor)
	actor.VIP = level
	actor.Experience += vipExperience
	if bonus != "" {
		actor.Gifts = append(actor.Gifts, bonus)
	}
	s.st.NudgeBaseRate(vipRateNudge)

	return store.SliceAccounts | store.SliceBaseRate, nil
}

// bonusGift picks the tier bonus: one in ten times the gift priced exactly at the
// ceiling, otherwise a random gift priced below it.
func (s *ShopService) bonusGift() string {
	eligible := s.st.GiftsPricedAtMost(catalog.BonusGiftCeilingUSD)
	if len(eligible) == 0 {
		return ""
	}

	if s.rng.Float64() < 0.1 {
		for _, g := range eligible {
			if g.PriceUSD == catalog.BonusGiftCeilingUSD {
				return g.ID
			}
		}
		return eligible[s.rng.IntN(len(eligible))].ID
	}

	var cheaper []*model.Gift
	for _, g := range eligible {
		if g.PriceUSD < catalog.BonusGiftCeilingUSD {
			cheaper = append(cheaper, g)
		}
	}
	if len(cheaper) == 0 {
		return eligible[0].ID
	}
	return cheaper[s.rng.IntN(len(cheaper))].ID
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }
