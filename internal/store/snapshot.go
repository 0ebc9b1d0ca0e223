package store

import (
	"coinhub/internal/model"
)

// Slice is a bit set naming the parts of the store a mutation touched.
type Slice uint16

const (
	SliceAccounts Slice = 1 << iota
	SliceTasks
	SliceGifts
	SliceRates
	SliceGlobalChat
	SlicePrivateChats
	SliceMarket
	SliceLedger
	SliceBaseRate

	SliceNone Slice = 0
)

// orderedSlices fixes the order in which changed slices are published.
var orderedSlices = []Slice{
	SliceTasks,
	SliceGifts,
	SliceMarket,
	SliceAccounts,
	SliceLedger,
	SliceGlobalChat,
	SlicePrivateChats,
	SliceBaseRate,
	SliceRates,
}

// Has reports whether every bit of other is set in s.
func (s Slice) Has(other Slice) bool {
	return s&other == other && other != 0
}

// Each calls fn for every slice set in s, in publication order.
func (s Slice) Each(fn func(Slice)) {
	for _, sl := range orderedSlices {
		if s.Has(sl) {
			fn(sl)
		}
	}
}

// Snapshot is a full copy of the store, sent to every new connection.
type Snapshot struct {
	Users          []*model.Account               `json:"users"`
	Tasks          []model.Task                   `json:"tasks"`
	Gifts          []model.Gift                   `json:"gifts"`
	CoinRate       []model.RateSample             `json:"coinRate"`
	GlobalChat     []model.ChatMessage            `json:"globalChat"`
	PrivateChats   map[string][]model.ChatMessage `json:"privateChats"`
	BaseRate       float64                        `json:"baseRate"`
	MarketListings []model.Listing                `json:"marketListings"`
	Transactions   []model.LedgerEntry            `json:"transactions"`
}

// Snapshot copies the whole document.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Users:          s.Accounts(),
		Tasks:          s.Tasks(),
		Gifts:          s.Gifts(),
		CoinRate:       s.Rates(),
		GlobalChat:     s.GlobalChat(),
		PrivateChats:   s.PrivateChats(),
		BaseRate:       s.BaseRate(),
		MarketListings: s.Listings(),
		Transactions:   s.Ledger(),
	}
}

// SliceData returns a copy of one slice of the document.
func (s *Store) SliceData(sl Slice) any {
	switch sl {
	case SliceAccounts:
		return s.Accounts()
	case SliceTasks:
		return s.Tasks()
	case SliceGifts:
		return s.Gifts()
	case SliceRates:
		return s.Rates()
	case SliceGlobalChat:
		return s.GlobalChat()
	case SlicePrivateChats:
		return s.PrivateChats()
	case SliceMarket:
		return s.Listings()
	case SliceLedger:
		return s.Ledger()
	case SliceBaseRate:
		return s.BaseRate()
	default:
		return nil
	}
}
