package service

import (
	"fmt"

	"coinhub/internal/idgen"
	"coinhub/internal/model"
	"coinhub/internal/service/commission"
	"coinhub/internal/store"
)

// TransferService handles user-to-user coin transfers.
type TransferService struct {
	base
}

// NewTransferService creates a new TransferService instance.
func NewTransferService(st *store.Store, clock Clock) *TransferService {
	return &TransferService{base: newBase(st, clock)}
}

// Transfer debits amount from the sender and credits the recipient the amount
// net of the sender's commission. The withheld part leaves circulation.
func (s *TransferService) Transfer(actorName, toUser string, amount int64) (store.Slice, error) {
	sender, err := s.actor(actorName)
	if err != nil {
		return store.SliceNone, err
	}
	if amount <= 0 {
		return store.SliceNone, ErrInvalidAmount
	}
	if toUser == sender.Username {
		return store.SliceNone, ErrSelfTransfer
	}
	recipient, ok := s.st.Account(toUser)
	if !ok {
		return store.SliceNone, Reject(CodeNotFound, "account %q not found", toUser)
	}
	if sender.Coins < amount {
		return store.SliceNone, ErrInsufficientBalance
	}

	net := commission.Net(amount, sender.VIP)
	if !canCredit(recipient.Coins, net) {
		return store.SliceNone, ErrBalanceLimit
	}

	s.touch(sender)
	sender.Coins -= amount
	sender.Experience += transferExperience
	recipient.Coins += net
	s.st.AppendLedger(model.LedgerEntry{
		ID:        idgen.New(),
		Type:      model.LedgerTransfer,
		FromUser:  sender.Username,
		ToUser:    recipient.Username,
		Amount:    net,
		Timestamp: s.nowMillis(),
		Details:   fmt.Sprintf("Transfer of %d coins (commission %d%%)", amount, commission.Percent(sender.VIP)),
	})

	return store.SliceAccounts | store.SliceLedger, nil
}
