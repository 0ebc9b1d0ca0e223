package service

import (
	"errors"
	"fmt"
	"strings"

	"coinhub/internal/idgen"
	"coinhub/internal/model"
	"coinhub/internal/session"
	"coinhub/internal/store"
)

// Session is what a client receives after registering or logging in.
type Session struct {
	Token     string `json:"token"`
	AccountID string `json:"accountId"`
	Username  string `json:"username"`
}

// AccountUpdate is a partial overwrite of an account. Nil fields are left untouched.
type AccountUpdate struct {
	Target    string
	Password  *string
	AvatarRef *string
	Coins     *int64
	VIP       *model.VIPTier
	Role      *model.Role
}

func (u AccountUpdate) privileged() bool {
	return u.Coins != nil || u.VIP != nil || u.Role != nil
}

// AccountService handles registration, login and account updates.
type AccountService struct {
	base
	sessions *session.Manager
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(st *store.Store, sessions *session.Manager, clock Clock) *AccountService {
	return &AccountService{
		base:     newBase(st, clock),
		sessions: sessions,
	}
}

// Register creates an account and opens a session for it.
func (s *AccountService) Register(username, password string) (*Session, store.Slice, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, store.SliceNone, Reject(CodeInvalidPayload, "username and password are required")
	}
	if _, taken := s.st.Account(username); taken {
		return nil, store.SliceNone, ErrUsernameTaken
	}

	hash, err := s.sessions.HashPassword(password)
	if err != nil {
		return nil, store.SliceNone, err
	}

	acc, err := s.st.CreateAccount(username, hash, Today(s.now()))
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return nil, store.SliceNone, ErrUsernameTaken
		}
		return nil, store.SliceNone, fmt.Errorf("failed to create account: %w", err)
	}

	sess, err := s.open(acc)
	if err != nil {
		// The account exists now; the client can still log in.
		return nil, store.SliceAccounts, err
	}
	return sess, store.SliceAccounts, nil
}

// Login verifies credentials and opens a session.
func (s *AccountService) Login(username, password string) (*Session, error) {
	acc, ok := s.st.Account(strings.TrimSpace(username))
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := s.sessions.CheckPassword(acc.CredentialHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.open(acc)
}

// Resume binds an existing session token.
func (s *AccountService) Resume(token string) (*Session, error) {
	claims, err := s.sessions.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	acc, ok := s.st.AccountByID(claims.AccountID)
	if !ok || acc.Username != claims.Username {
		return nil, ErrUnauthenticated
	}
	return &Session{Token: token, AccountID: acc.ID, Username: acc.Username}, nil
}

func (s *AccountService) open(acc *model.Account) (*Session, error) {
	token, err := s.sessions.Issue(acc.ID, acc.Username)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, AccountID: acc.ID, Username: acc.Username}, nil
}

// Update applies u. An account may change its own password and avatar;
// changing anything else, or anyone else, requires the administrator role.
func (s *AccountService) Update(actorName string, u AccountUpdate) (store.Slice, error) {
	actor, err := s.actor(actorName)
	if err != nil {
		return store.SliceNone, err
	}

	targetName := u.Target
	if targetName == "" {
		targetName = actor.Username
	}
	target, ok := s.st.Account(targetName)
	if !ok {
		return store.SliceNone, Reject(CodeNotFound, "account %q not found", targetName)
	}

	if (target != actor || u.privileged()) && !actor.IsAdmin() {
		return store.SliceNone, ErrForbidden
	}
	if u.Coins != nil && (*u.Coins < 0 || *u.Coins > MaxBalance) {
		return store.SliceNone, Reject(CodeInvalidAmount, "balance must be between 0 and %d", MaxBalance)
	}
	if u.VIP != nil && !u.VIP.Valid() {
		return store.SliceNone, Reject(CodeInvalidPayload, "unknown tier %q", *u.VIP)
	}
	if u.Role != nil && !u.Role.Valid() {
		return store.SliceNone, Reject(CodeInvalidPayload, "unknown role %q", *u.Role)
	}
	if u.Password != nil && *u.Password == "" {
		return store.SliceNone, Reject(CodeInvalidPayload, "password must not be empty")
	}

	var hash string
	if u.Password != nil {
		if hash, err = s.sessions.HashPassword(*u.Password); err != nil {
			return store.SliceNone, err
		}
	}

	changed := store.SliceAccounts
	s.touch(actor)

	if u.Password != nil {
		target.CredentialHash = hash
	}
	if u.AvatarRef != nil {
		target.AvatarURL = *u.AvatarRef
	}
	if u.VIP != nil {
		target.VIP = *u.VIP
	}
	if u.Role != nil {
		target.Role = *u.Role
	}
	if u.Coins != nil && *u.Coins != target.Coins {
		delta := *u.Coins - target.Coins
		target.Coins = *u.Coins
		s.st.AppendLedger(model.LedgerEntry{
			ID:        idgen.New(),
			Type:      model.LedgerAdminUpdate,
			FromUser:  actor.Username,
			ToUser:    target.Username,
			Amount:    target.Coins,
			Timestamp: s.nowMillis(),
			Details:   fmt.Sprintf("Balance set to %d (%+d) by %s", target.Coins, delta, actor.Username),
		})
		changed |= store.SliceLedger
	}

	return changed, nil
}
