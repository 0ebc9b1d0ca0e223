// Package model defines the economic entities held by the state store.
package model

import "slices"

// VIPTier is an account's paid tier. It gates task access and commission rates.
type VIPTier string

// VIP tiers in ascending order.
const (
	TierNone    VIPTier = "None"
	TierVIP     VIPTier = "VIP"
	TierGold    VIPTier = "Gold"
	TierDiamond VIPTier = "Diamond"
)

var tierRank = map[VIPTier]int{
	TierNone:    0,
	TierVIP:     1,
	TierGold:    2,
	TierDiamond: 3,
}

// Valid reports whether t is a known tier.
func (t VIPTier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// Rank returns the tier's position in the upgrade order, or -1 for unknown tiers.
func (t VIPTier) Rank() int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return -1
}

// Premium reports whether the tier earns the reduced commission rate.
func (t VIPTier) Premium() bool {
	return t == TierGold || t == TierDiamond
}

// Role is an account's privilege level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// TaskTier is the minimum VIP tier required to complete a task.
type TaskTier string

const (
	TaskNormal TaskTier = "normal"
	TaskVIP    TaskTier = "vip"
	TaskGold   TaskTier = "gold"
)

// Valid reports whether t is a known task tier.
func (t TaskTier) Valid() bool {
	return t == TaskNormal || t == TaskVIP || t == TaskGold
}

// Allows reports whether an account of tier v may complete a task of tier t.
func (t TaskTier) Allows(v VIPTier) bool {
	switch t {
	case TaskNormal:
		return true
	case TaskVIP:
		return v.Rank() >= TierVIP.Rank()
	case TaskGold:
		return v.Premium()
	default:
		return false
	}
}

// Account is a registered user. Accounts are created on registration and never deleted.
type Account struct {
	ID                  string   `json:"id"`
	Username            string   `json:"username"`
	CredentialHash      string   `json:"-"`
	Coins               int64    `json:"coins"`
	VIP                 VIPTier  `json:"vip"`
	Gifts               []string `json:"gifts"`
	Role                Role     `json:"role"`
	Experience          int64    `json:"experience"`
	EarnedToday         int64    `json:"earnedToday"`
	LastActiveDate      string   `json:"lastActiveDate"`
	CompletedTasks      []string `json:"completedTasks"`
	LastRouletteTime    int64    `json:"lastRouletteTime"` // unix milliseconds
	AvatarURL           string   `json:"avatarUrl,omitempty"`
	TotalTasksCompleted int64    `json:"totalTasksCompleted"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	c.Gifts = slices.Clone(a.Gifts)
	c.CompletedTasks = slices.Clone(a.CompletedTasks)
	if c.Gifts == nil {
		c.Gifts = []string{}
	}
	if c.CompletedTasks == nil {
		c.CompletedTasks = []string{}
	}
	return &c
}

// IsAdmin reports whether the account holds the administrator role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// GiftCount returns how many units of giftID the account holds.
func (a *Account) GiftCount(giftID string) int {
	n := 0
	for _, g := range a.Gifts {
		if g == giftID {
			n++
		}
	}
	return n
}

// RemoveGift removes one unit of giftID from the inventory.
// It returns false if the account holds none.
func (a *Account) RemoveGift(giftID string) bool {
	idx := slices.Index(a.Gifts, giftID)
	if idx < 0 {
		return false
	}
	a.Gifts = slices.Delete(a.Gifts, idx, idx+1)
	return true
}

// HasCompleted reports whether taskID is in the completed set.
func (a *Account) HasCompleted(taskID string) bool {
	return slices.Contains(a.CompletedTasks, taskID)
}

// Task is a one-shot earning offer from the global catalog.
type Task struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Reward int64    `json:"reward"`
	Type   TaskTier `json:"type"`
	Link   string   `json:"link,omitempty"`
}

// Gift is a limited-edition catalog item. Limit is the remaining stock and only decreases.
type Gift struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	PriceUSD   int64  `json:"priceUSD"`
	Limit      int64  `json:"limit"`
	TotalLimit int64  `json:"totalLimit"`
}

// RateSample is one point of the exchange-rate history.
type RateSample struct {
	Time string  `json:"time"`
	Rate float64 `json:"rate"`
}

// ChatMessage is a global or private chat line.
type ChatMessage struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Listing is a gift held in escrow on the marketplace.
type Listing struct {
	ID         string `json:"id"`
	Seller     string `json:"seller"`
	GiftID     string `json:"giftId"`
	PriceCoins int64  `json:"priceCoins"`
	Timestamp  int64  `json:"timestamp"`
}

// LedgerKind categorizes coin-moving events.
type LedgerKind string

const (
	LedgerTransfer    LedgerKind = "transfer"
	LedgerMarketSale  LedgerKind = "market_sale"
	LedgerAdminUpdate LedgerKind = "admin_update"
)

// LedgerEntry is an immutable audit record of a coin-moving event.
type LedgerEntry struct {
	ID        string     `json:"id"`
	Type      LedgerKind `json:"type"`
	FromUser  string     `json:"fromUser,omitempty"`
	ToUser    string     `json:"toUser"`
	Amount    int64      `json:"amount"`
	Timestamp int64      `json:"timestamp"` // unix milliseconds
	Details   string     `json:"details,omitempty"`
}
