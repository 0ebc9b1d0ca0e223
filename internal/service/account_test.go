package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinhub/internal/model"
	"coinhub/internal/store"
)

func ptr[T any](v T) *T { return &v }

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.st, f.sessions, f.clock.Now)

	sess, changed, err := svc.Register("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, store.SliceAccounts, changed)
	assert.Equal(t, "alice", sess.Username)
	assert.Len(t, sess.AccountID, 5)
	assert.NotEmpty(t, sess.Token)

	acc, ok := f.st.Account("alice")
	require.True(t, ok)
	assert.Zero(t, acc.Coins)
	assert.Zero(t, acc.Experience)
	assert.Equal(t, model.TierNone, acc.VIP)
	assert.Equal(t, model.RoleUser, acc.Role)
	assert.NotEqual(t, "secret", acc.CredentialHash)

	_, _, err = svc.Register("alice", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	login, err := svc.Login("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, sess.AccountID, login.AccountID)

	_, err = svc.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resumed, err := svc.Resume(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", resumed.Username)

	_, err = svc.Resume("garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRegisterRequiresCredentials(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.st, f.sessions, f.clock.Now)

	_, _, err := svc.Register("  ", "secret")
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, _, err = svc.Register("alice", "")
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Equal(t, 1, f.st.AccountCount())
}

func TestUpdateSelfService(t *testing.T) {
	f := newFixture(t)
	svc := NewAccountService(f.st, f.sessions, f.clock.Now)
	_, _, err := svc.Register("alice", "secret")
	require.NoError(t, err)

	_, err = svc.Update("alice", AccountUpdate{Password: ptr("new-secret"), AvatarRef: ptr("cat.png")})
	require.NoError(t, err)

	acc, _ := f.st.Account("alice")
	assert.Equal(t, "cat.png", acc.AvatarURL)
	_, err = svc.Login("alice", "new-secret")
	assert.NoError(t, err)

	_, err = svc.Update("alice", AccountUpdate{Coins: ptr(int64(1_000_000))})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update("alice", AccountUpdate{Target: "admin", AvatarRef: ptr("x.png")})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, acc.Coins)
}

func TestUpdateAdminOverride(t *testing.T) {
	f := newFixture(t)
	a := f.account(t, "alice", 40, model.TierNone)
	svc := NewAccountService(f.st, f.sessions, f.clock.Now)

	changed, err := svc.Update("admin", AccountUpdate{
		Target: "alice",
		Coins:  ptr(int64(100)),
		VIP:    ptr(model.TierGold),
	})
	require.NoError(t, err)
	assert.Equal(t, store.SliceAccounts|store.SliceLedger, changed)
	assert.Equal(t, int64(100), a.Coins)
	assert.Equal(t, model.TierGold, a.VIP)

	ledger := f.st.Ledger()
	require.Len(t, ledger, 1)
	assert.Equal(t, model.LedgerAdminUpdate, ledger[0].Type)
	assert.Equal(t, int64(100), ledger[0].Amount)
	assert.Equal(t, "Balance set to 100 (+60) by admin", ledger[0].Details)

	_, err = svc.Update("admin", AccountUpdate{Target: "alice", Coins: ptr(int64(-1))})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Update("admin", AccountUpdate{Target: "alice", Role: ptr(model.Role("root"))})
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, err = svc.Update("admin", AccountUpdate{Target: "nobody", Coins: ptr(int64(1))})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(100), a.Coins)
}
