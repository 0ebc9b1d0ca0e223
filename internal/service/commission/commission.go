// Package commission computes the fee withheld from transfers and market sales.
//
// The fee rate depends on the paying side's tier: 6% for Gold and Diamond,
// 10% for everyone else. The withheld part is not credited to anyone.
package commission

import (
	"github.com/shopspring/decimal"

	"coinhub/internal/model"
)

var (
	premiumRate  = decimal.RequireFromString("0.06")
	standardRate = decimal.RequireFromString("0.10")
	one          = decimal.NewFromInt(1)
	hundred      = decimal.NewFromInt(100)
)

// Rate returns the commission rate for tier.
func Rate(tier model.VIPTier) decimal.Decimal {
	if tier.Premium() {
		return premiumRate
	}
	return standardRate
}

// Percent returns the rate as a whole percentage, for ledger details.
func Percent(tier model.VIPTier) int64 {
	return Rate(tier).Mul(hundred).Round(0).IntPart()
}

// Net returns floor(amount * (1 - rate)) for the given tier.
func Net(amount int64, tier model.VIPTier) int64 {
	return decimal.NewFromInt(amount).Mul(one.Sub(Rate(tier))).Floor().IntPart()
}

// Withheld returns the part of amount that leaves circulation.
func Withheld(amount int64, tier model.VIPTier) int64 {
	return amount - Net(amount, tier)
}
