package commission

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"coinhub/internal/model"
)

func TestNet(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		tier   model.VIPTier
		want   int64
	}{
		{"standard 50", 50, model.TierNone, 45},
		{"standard 7 floors", 7, model.TierNone, 6},
		{"vip is standard", 100, model.TierVIP, 90},
		{"gold 200", 200, model.TierGold, 188},
		{"diamond 17 floors", 17, model.TierDiamond, 15},
		{"one coin vanishes", 1, model.TierNone, 0},
		{"zero", 0, model.TierGold, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Net(tt.amount, tt.tier))
			assert.Equal(t, tt.amount-tt.want, Withheld(tt.amount, tt.tier))
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, int64(10), Percent(model.TierNone))
	assert.Equal(t, int64(10), Percent(model.TierVIP))
	assert.Equal(t, int64(6), Percent(model.TierGold))
	assert.Equal(t, int64(6), Percent(model.TierDiamond))
}

// Net never pays out more than the amount and never withholds more than the rate allows.
func TestNetBoundsProperty(t *testing.T) {
	tiers := []model.VIPTier{model.TierNone, model.TierVIP, model.TierGold, model.TierDiamond}

	rapid.Check(t, func(t *rapid.T) {
		amount := rapid.Int64Range(0, 1_000_000_000).Draw(t, "amount")
		tier := rapid.SampledFrom(tiers).Draw(t, "tier")

		net := Net(amount, tier)
		if net < 0 || net > amount {
			t.Fatalf("Net(%d, %s) = %d out of [0, amount]", amount, tier, net)
		}

		rate := 0.10
		if tier.Premium() {
			rate = 0.06
		}
		// Withheld is the ceiling of amount*rate, so it stays within one coin of it.
		withheld := float64(Withheld(amount, tier))
		exact := float64(amount) * rate
		if withheld < exact-1e-6 || withheld > math.Ceil(exact)+1e-6 {
			t.Fatalf("Withheld(%d, %s) = %v, exact %v", amount, tier, withheld, exact)
		}
	})
}
