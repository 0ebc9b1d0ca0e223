// Package catalog provides the seed data for the gift shop, the task board and VIP tiers.
package catalog

import (
	"coinhub/internal/model"
)

// GiftConfig describes a limited-edition gift at process start.
type GiftConfig struct {
	ID       string
	Name     string
	Icon     string
	PriceUSD int64
	Stock    int64
}

// Gifts contains the seeded gift catalog in display order.
// Stock is never replenished; purchases only ever decrease it.
var Gifts = []GiftConfig{
	{ID: "1", Name: "Сердце", Icon: "Heart", PriceUSD: 5, Stock: 20},
	{ID: "2", Name: "Звезда", Icon: "Star", PriceUSD: 15, Stock: 15},
	{ID: "3", Name: "Огонь", Icon: "Flame", PriceUSD: 30, Stock: 25},
	{ID: "4", Name: "Корона", Icon: "Crown", PriceUSD: 60, Stock: 10},
	{ID: "5", Name: "Бриллиант", Icon: "Gem", PriceUSD: 120, Stock: 5},
}

// Tasks contains the seeded task board.
var Tasks = []model.Task{
	{ID: "1", Name: "Посмотреть короткое видео", Reward: 10, Type: model.TaskNormal},
	{ID: "2", Name: "Поделиться в соцсетях", Reward: 50, Type: model.TaskNormal},
	{ID: "3", Name: "Премиум опрос", Reward: 200, Type: model.TaskVIP},
}

// TierConfig describes a purchasable VIP tier.
type TierConfig struct {
	Level    model.VIPTier
	PriceUSD int64
}

// Tiers lists purchasable tiers in upgrade order.
var Tiers = []TierConfig{
	{Level: model.TierVIP, PriceUSD: 40},
	{Level: model.TierGold, PriceUSD: 100},
	{Level: model.TierDiamond, PriceUSD: 250},
}

// BonusGiftCeilingUSD is the highest gift price eligible as a Gold/Diamond bonus.
const BonusGiftCeilingUSD = 20

// SeedGifts returns fresh gift entities built from the catalog.
func SeedGifts() []*model.Gift {
	gifts := make([]*model.Gift, 0, len(Gifts))
	for _, g := range Gifts {
		gifts = append(gifts, &model.Gift{
			ID:         g.ID,
			Name:       g.Name,
			Icon:       g.Icon,
			PriceUSD:   g.PriceUSD,
			Limit:      g.Stock,
			TotalLimit: g.Stock,
		})
	}
	return gifts
}

// SeedTasks returns fresh copies of the seeded tasks.
func SeedTasks() []*model.Task {
	tasks := make([]*model.Task, 0, len(Tasks))
	for _, t := range Tasks {
		task := t
		tasks = append(tasks, &task)
	}
	return tasks
}

// IsPurchasable reports whether level can be bought.
func IsPurchasable(level model.VIPTier) bool {
	for _, t := range Tiers {
		if t.Level == level {
			return true
		}
	}
	return false
}
