// Package store holds the single authoritative in-memory economic document.
//
// A Store is not safe for concurrent use. It is owned by one coordinating loop
// (see package engine) and every read and write happens on that loop, so a
// handler always observes a fully applied prior state.
package store

import (
	"errors"
	"slices"
	"sort"
	"strings"

	"coinhub/internal/catalog"
	"coinhub/internal/idgen"
	"coinhub/internal/model"
)

// Store errors.
var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmptyUsername = errors.New("username must not be empty")
)

// AdminAccountID is the id of the seeded administrator.
const AdminAccountID = "00001"

// Options configures store limits.
type Options struct {
	HistoryLimit    int
	GlobalChatLimit int
	InitialRate     float64

	// StartLabel labels the initial rate sample.
	StartLabel string
	IDs        *idgen.AccountIDs
}

// Store is the process-wide economic state.
type Store struct {
	accounts []*model.Account
	byName   map[string]*model.Account
	byID     map[string]*model.Account

	tasks    []*model.Task
	gifts    []*model.Gift
	listings []*model.Listing
	ledger   []model.LedgerEntry // newest first

	globalChat   []model.ChatMessage
	privateChats map[string][]model.ChatMessage

	rates    []model.RateSample
	baseRate float64

	historyLimit    int
	globalChatLimit int
	ids             *idgen.AccountIDs
}

// New creates an empty store seeded with the default catalog and one rate sample.
func New(opts Options) *Store {
	if opts.HistoryLimit < 1 {
		opts.HistoryLimit = 500
	}
	if opts.GlobalChatLimit < 1 {
		opts.GlobalChatLimit = 100
	}
	if opts.InitialRate <= 0 {
		opts.InitialRate = 0.01
	}
	if opts.IDs == nil {
		opts.IDs = idgen.NewAccountIDs(nil)
	}

	return &Store{
		byName:          make(map[string]*model.Account),
		byID:            make(map[string]*model.Account),
		tasks:           catalog.SeedTasks(),
		gifts:           catalog.SeedGifts(),
		privateChats:    make(map[string][]model.ChatMessage),
		rates:           []model.RateSample{{Time: opts.StartLabel, Rate: opts.InitialRate}},
		baseRate:        opts.InitialRate,
		historyLimit:    opts.HistoryLimit,
		globalChatLimit: opts.GlobalChatLimit,
		ids:             opts.IDs,
	}
}

// ========== Accounts ==========

// SeedAdmin inserts the administrator account with its fixed id.
func (s *Store) SeedAdmin(username, credentialHash, today string) *model.Account {
	acc := &model.Account{
		ID:             AdminAccountID,
		Username:       username,
		CredentialHash: credentialHash,
		Coins:          1000,
		VIP:            model.TierDiamond,
		Gifts:          []string{},
		Role:           model.RoleAdmin,
		Experience:     1000,
		LastActiveDate: today,
		CompletedTasks: []string{},
	}
	s.insertAccount(acc)
	return acc
}

// CreateAccount allocates an id and inserts a fresh account with zero balance,
// zero experience and no tier.
func (s *Store) CreateAccount(username, credentialHash, today string) (*model.Account, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrEmptyUsername
	}
	if _, ok := s.byName[username]; ok {
		return nil, ErrUsernameTaken
	}

	id, err := s.ids.Next(func(id string) bool {
		_, taken := s.byID[id]
		return taken
	}, len(s.accounts))
	if err != nil {
		return nil, err
	}

	acc := &model.Account{
		ID:             id,
		Username:       username,
		CredentialHash: credentialHash,
		VIP:            model.TierNone,
		Gifts:          []string{},
		Role:           model.RoleUser,
		LastActiveDate: today,
		CompletedTasks: []string{},
	}
	s.insertAccount(acc)
	return acc, nil
}

func (s *Store) insertAccount(acc *model.Account) {
	s.accounts = append(s.accounts, acc)
	s.byName[acc.Username] = acc
	s.byID[acc.ID] = acc
}

// Account returns the live account for username. Callers on the owning loop may mutate it.
func (s *Store) Account(username string) (*model.Account, bool) {
	acc, ok := s.byName[username]
	return acc, ok
}

// AccountByID returns the live account with the given id.
func (s *Store) AccountByID(id string) (*model.Account, bool) {
	acc, ok := s.byID[id]
	return acc, ok
}

// AccountCount returns the number of registered accounts.
func (s *Store) AccountCount() int {
	return len(s.accounts)
}

// Accounts returns deep copies of all accounts in registration order.
func (s *Store) Accounts() []*model.Account {
	out := make([]*model.Account, len(s.accounts))
	for i, acc := range s.accounts {
		out[i] = acc.Clone()
	}
	return out
}

// TopAccounts returns copies of the limit richest accounts, ties broken by registration order.
func (s *Store) TopAccounts(limit int) []*model.Account {
	all := s.Accounts()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Coins > all[j].Coins
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// TotalSupply returns the sum of all balances.
func (s *Store) TotalSupply() int64 {
	var total int64
	for _, acc := range s.accounts {
		total += acc.Coins
	}
	return total
}

// ========== Tasks ==========

// Task returns the live task with the given id.
func (s *Store) Task(id string) (*model.Task, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// RemoveTask deletes a task from the catalog. It returns false if the task is absent.
func (s *Store) RemoveTask(id string) bool {
	idx := slices.IndexFunc(s.tasks, func(t *model.Task) bool { return t.ID == id })
	if idx < 0 {
		return false
	}
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	return true
}

// AddTask appends a task to the catalog.
func (s *Store) AddTask(t *model.Task) {
	s.tasks = append(s.tasks, t)
}

// Tasks returns copies of the catalog tasks.
func (s *Store) Tasks() []model.Task {
	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = *t
	}
	return out
}

// ========== Gifts ==========

// Gift returns the live gift definition with the given id.
func (s *Store) Gift(id string) (*model.Gift, bool) {
	for _, g := range s.gifts {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// Gifts returns copies of the gift catalog.
func (s *Store) Gifts() []model.Gift {
	out := make([]model.Gift, len(s.gifts))
	for i, g := range s.gifts {
		out[i] = *g
	}
	return out
}

// GiftsPricedAtMost returns the live gifts whose price does not exceed ceiling.
func (s *Store) GiftsPricedAtMost(ceiling int64) []*model.Gift {
	var out []*model.Gift
	for _, g := range s.gifts {
		if g.PriceUSD <= ceiling {
			out = append(out, g)
		}
	}
	return out
}

// ========== Market ==========

// Listing returns the live listing with the given id.
func (s *Store) Listing(id string) (*model.Listing, bool) {
	for _, l := range s.listings {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// AddListing appends a listing to the market.
func (s *Store) AddListing(l *model.Listing) {
	s.listings = append(s.listings, l)
}

// RemoveListing deletes a listing. It returns false if the listing is absent.
func (s *Store) RemoveListing(id string) bool {
	idx := slices.IndexFunc(s.listings, func(l *model.Listing) bool { return l.ID == id })
	if idx < 0 {
		return false
	}
	s.listings = slices.Delete(s.listings, idx, idx+1)
	return true
}

// Listings returns copies of the active listings.
func (s *Store) Listings() []model.Listing {
	out := make([]model.Listing, len(s.listings))
	for i, l := range s.listings {
		out[i] = *l
	}
	return out
}

// ========== Ledger ==========

// AppendLedger records an entry as the newest one.
func (s *Store) AppendLedger(e model.LedgerEntry) {
	s.ledger = slices.Insert(s.ledger, 0, e)
}

// LedgerLen returns the number of ledger entries.
func (s *Store) LedgerLen() int {
	return len(s.ledger)
}

// RecentLedger returns a copy of the n newest entries, newest first.
func (s *Store) RecentLedger(n int) []model.LedgerEntry {
	n = min(max(n, 0), len(s.ledger))
	return append([]model.LedgerEntry{}, s.ledger[:n]...)
}

// Ledger returns a copy of the ledger, newest first.
func (s *Store) Ledger() []model.LedgerEntry {
	return append([]model.LedgerEntry{}, s.ledger...)
}

// ========== Chat ==========

// AppendGlobalChat appends msg and drops the oldest messages past the limit.
func (s *Store) AppendGlobalChat(msg model.ChatMessage) {
	s.globalChat = append(s.globalChat, msg)
	if over := len(s.globalChat) - s.globalChatLimit; over > 0 {
		s.globalChat = slices.Delete(s.globalChat, 0, over)
	}
}

// GlobalChat returns a copy of the global channel.
func (s *Store) GlobalChat() []model.ChatMessage {
	return append([]model.ChatMessage{}, s.globalChat...)
}

// PairKey returns the private channel key for two usernames: sorted and joined by "_".
func PairKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}

// AppendPrivateChat appends msg to the channel shared by a and b.
func (s *Store) AppendPrivateChat(a, b string, msg model.ChatMessage) {
	key := PairKey(a, b)
	s.privateChats[key] = append(s.privateChats[key], msg)
}

// PrivateChats returns a copy of every private channel.
func (s *Store) PrivateChats() map[string][]model.ChatMessage {
	out := make(map[string][]model.ChatMessage, len(s.privateChats))
	for k, v := range s.privateChats {
		out[k] = slices.Clone(v)
	}
	return out
}

// ========== Rates ==========

// LastRate returns the most recent rate sample.
func (s *Store) LastRate() model.RateSample {
	return s.rates[len(s.rates)-1]
}

// AppendRate appends a sample and evicts the oldest past the history limit.
func (s *Store) AppendRate(sample model.RateSample) {
	s.rates = append(s.rates, sample)
	if over := len(s.rates) - s.historyLimit; over > 0 {
		s.rates = slices.Delete(s.rates, 0, over)
	}
}

// Rates returns a copy of the rate history, oldest first.
func (s *Store) Rates() []model.RateSample {
	return slices.Clone(s.rates)
}

// BaseRate returns the simulator's drift target.
func (s *Store) BaseRate() float64 {
	return s.baseRate
}

// NudgeBaseRate raises the drift target by delta.
func (s *Store) NudgeBaseRate(delta float64) {
	s.baseRate += delta
}
