package service

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable rejection reason.
type Code string

// Rejection codes sent to clients in Error messages.
const (
	CodeInsufficientBalance Code = "insufficient_balance"
	CodeNotFound            Code = "not_found"
	CodeForbidden           Code = "forbidden"
	CodeOutOfStock          Code = "out_of_stock"
	CodeInvalidPayload      Code = "invalid_payload"
	CodeCooldownActive      Code = "cooldown_active"
	CodeUsernameTaken       Code = "username_taken"
	CodeNotOwner            Code = "not_owner"
	CodeTierLocked          Code = "tier_locked"
	CodeInvalidCredentials  Code = "invalid_credentials"
	CodeUnauthenticated     Code = "unauthenticated"
	CodeInvalidAmount       Code = "invalid_amount"
	CodeSelfTransfer        Code = "self_transfer"
	CodeTierNotUpgrade      Code = "tier_not_upgrade"
	CodeInternal            Code = "internal"
)

// RejectError is a failed precondition. The store is untouched when one is returned.
type RejectError struct {
	Code    Code
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any RejectError with the same code.
func (e *RejectError) Is(target error) bool {
	var t *RejectError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Reject returns a RejectError with a formatted message.
func Reject(code Code, format string, args ...any) error {
	return &RejectError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is checks.
var (
	ErrInsufficientBalance = &RejectError{Code: CodeInsufficientBalance, Message: "insufficient balance"}
	ErrNotFound            = &RejectError{Code: CodeNotFound, Message: "not found"}
	ErrForbidden           = &RejectError{Code: CodeForbidden, Message: "administrator role required"}
	ErrOutOfStock          = &RejectError{Code: CodeOutOfStock, Message: "gift is sold out"}
	ErrInvalidPayload      = &RejectError{Code: CodeInvalidPayload, Message: "invalid payload"}
	ErrCooldownActive      = &RejectError{Code: CodeCooldownActive, Message: "roulette is on cooldown"}
	ErrUsernameTaken       = &RejectError{Code: CodeUsernameTaken, Message: "User already exists"}
	ErrNotOwner            = &RejectError{Code: CodeNotOwner, Message: "not the owner"}
	ErrTierLocked          = &RejectError{Code: CodeTierLocked, Message: "task requires a higher tier"}
	ErrInvalidCredentials  = &RejectError{Code: CodeInvalidCredentials, Message: "invalid username or password"}
	ErrUnauthenticated     = &RejectError{Code: CodeUnauthenticated, Message: "login required"}
	ErrInvalidAmount       = &RejectError{Code: CodeInvalidAmount, Message: "amount must be positive"}
	ErrBalanceLimit        = &RejectError{Code: CodeInvalidAmount, Message: "credit would exceed the balance limit"}
	ErrSelfTransfer        = &RejectError{Code: CodeSelfTransfer, Message: "cannot transfer to self"}
	ErrTierNotUpgrade      = &RejectError{Code: CodeTierNotUpgrade, Message: "tier is not an upgrade"}
)

// AsReject extracts the RejectError from err. Any other error becomes CodeInternal.
func AsReject(err error) *RejectError {
	var re *RejectError
	if errors.As(err, &re) {
		return re
	}
	return &RejectError{Code: CodeInternal, Message: "internal error"}
}
