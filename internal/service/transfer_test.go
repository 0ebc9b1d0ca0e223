package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"coinhub/internal/model"
	"coinhub/internal/store"
)

func TestTransferStandardTier(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "alice", 100, model.TierNone)
	b := f.account(t, "bob", 10, model.TierNone)
	svc := NewTransferService(f.st, f.clock.Now)

	changed, err := svc.Transfer("alice", "bob", 50)
	require.NoError(t, err)

	assert.Equal(t, store.SliceAccounts|store.SliceLedger, changed)
	assert.Equal(t, int64(50), a.Coins)
	assert.Equal(t, int64(55), b.Coins)
	assert.Equal(t, int64(10), a.Experience)

	ledger := f.st.Ledger()
	require.Len(t, ledger, 1)
	assert.Equal(t, model.LedgerTransfer, ledger[0].Type)
	assert.Equal(t, int64(45), ledger[0].Amount)
	assert.Equal(t, "alice", ledger[0].FromUser)
	assert.Equal(t, "bob", ledger[0].ToUser)
	assert.Equal(t, "Transfer of 50 coins (commission 10%)", ledger[0].Details)
}

func TestTransferPremiumSenderRate(t *testing.T) {
	f := newFixture(t)
	f.account(t, "alice", 100, model.TierGold)
	b := f.account(t, "bob", 0, model.TierNone)
	svc := NewTransferService(f.st, f.clock.Now)

	_, err := svc.Transfer("alice", "bob", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(94), b.Coins)
}

func TestTransferRejections(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		to     string
		amount int64
		want   error
	}{
		{"insufficient balance", "alice", "bob", 101, ErrInsufficientBalance},
		{"zero amount", "alice", "bob", 0, ErrInvalidAmount},
		{"negative amount", "alice", "bob", -5, ErrInvalidAmount},
		{"self transfer", "alice", "alice", 10, ErrSelfTransfer},
		{"unknown recipient", "alice", "nobody", 10, ErrNotFound},
		{"unknown sender", "nobody", "bob", 10, ErrNotFound},
		{"anonymous sender", "", "bob", 10, ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := f.account(t, "alice", 100, model.TierNone)
			b := f.account(t, "bob", 0, model.TierNone)
			svc := NewTransferService(f.st, f.clock.Now)

			changed, err := svc.Transfer(tt.from, tt.to, tt.amount)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, store.SliceNone, changed)
			assert.Equal(t, int64(100), a.Coins)
			assert.Equal(t, int64(0), b.Coins)
			assert.Empty(t, f.st.Ledger())
		})
	}
}

// Total supply drops by exactly the withheld commission on every successful transfer.
func TestTransferCommissionLeakageProperty(t *testing.T) {
	tiers := []model.VIPTier{model.TierNone, model.TierVIP, model.TierGold, model.TierDiamond}

	rapid.Check(t, func(t *rapid.T) {
		f := newFixture(t)
		senderTier := rapid.SampledFrom(tiers).Draw(t, "senderTier")
		balance := rapid.Int64Range(1, 1_000_000).Draw(t, "balance")
		amount := rapid.Int64Range(1, balance).Draw(t, "amount")

		a := f.account(t, "alice", balance, senderTier)
		b := f.account(t, "bob", rapid.Int64Range(0, 1_000_000).Draw(t, "recipient"), model.TierNone)
		recipientBefore := b.Coins
		supplyBefore := f.st.TotalSupply()

		if _, err := NewTransferService(f.st, f.clock.Now).Transfer("alice", "bob", amount); err != nil {
			t.Fatalf("transfer failed: %v", err)
		}

		rate := 0.10
		if senderTier.Premium() {
			rate = 0.06
		}
		gain := b.Coins - recipientBefore
		if a.Coins != balance-amount {
			t.Fatalf("sender lost %d, want %d", balance-a.Coins, amount)
		}
		if float64(gain) > float64(amount)*(1-rate)+1e-9 || float64(gain) < float64(amount)*(1-rate)-1 {
			t.Fatalf("recipient gained %d for amount %d at rate %v", gain, amount, rate)
		}
		if supplyBefore-f.st.TotalSupply() != amount-gain {
			t.Fatalf("supply dropped %d, want %d", supplyBefore-f.st.TotalSupply(), amount-gain)
		}
	})
}
