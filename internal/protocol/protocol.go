// Package protocol defines the websocket wire format.
//
// Every frame in either direction is one JSON envelope carrying an action tag
// and a payload. Inbound payloads are decoded strictly into one Go type per
// action; unknown fields, wrong types and missing required fields are rejected.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"coinhub/internal/model"
)

// Protocol errors.
var (
	ErrMalformed      = errors.New("malformed envelope")
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Client to server action tags.
const (
	ActionRegister           = "Register"
	ActionLogin              = "Login"
	ActionUpdateAccount      = "UpdateAccount"
	ActionCompleteTask       = "CompleteTask"
	ActionSendGlobalMessage  = "SendGlobalMessage"
	ActionSendPrivateMessage = "SendPrivateMessage"
	ActionCreateListing      = "CreateListing"
	ActionBuyListing         = "BuyListing"
	ActionCancelListing      = "CancelListing"
	ActionTransferCoins      = "TransferCoins"
	ActionAddTask            = "AddTask"
	ActionBuyGift            = "BuyGift"
	ActionBuyVIP             = "BuyVIP"
	ActionSpinRoulette       = "SpinRoulette"
)

// Server to client action tags.
const (
	ActionInit                = "Init"
	ActionAccountsUpdated     = "AccountsUpdated"
	ActionTasksUpdated        = "TasksUpdated"
	ActionGiftsUpdated        = "GiftsUpdated"
	ActionRateHistoryUpdated  = "RateHistoryUpdated"
	ActionGlobalChatUpdated   = "GlobalChatUpdated"
	ActionPrivateChatsUpdated = "PrivateChatsUpdated"
	ActionMarketUpdated       = "MarketUpdated"
	ActionLedgerUpdated       = "LedgerUpdated"
	ActionBaseRateUpdated     = "BaseRateUpdated"
	ActionError               = "Error"
	ActionSession             = "Session"
	ActionRouletteResult      = "RouletteResult"
)

// Conn is one client connection as seen by the dispatching side.
type Conn interface {
	// ID is unique per connection.
	ID() string
	// Send queues a frame. It returns false if the connection is closed or overflowed.
	Send(frame []byte) bool
	// Account returns the bound username, or "" before authentication.
	Account() string
	// Bind attaches the connection to an account.
	Bind(username string)
}

// Envelope is an inbound frame.
type Envelope struct {
	Action         string          `json:"action"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	ActingUsername string          `json:"actingUsername,omitempty"`
}

// Outbound is a server frame.
type Outbound struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// ErrorPayload is the payload of an Error frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// Encode marshals an outbound frame.
func Encode(action string, payload any) ([]byte, error) {
	data, err := json.Marshal(Outbound{Action: action, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", action, err)
	}
	return data, nil
}

// Parse decodes the envelope of an inbound frame without looking at the payload.
func Parse(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Action == "" {
		return nil, fmt.Errorf("%w: missing action", ErrMalformed)
	}
	return &env, nil
}

// Validator is implemented by payloads with field constraints.
type Validator interface {
	Validate() error
}

// Decode strictly unmarshals raw into dst and validates it.
// An absent payload decodes as an empty object.
func Decode(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = json.RawMessage("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrInvalidPayload)
	}

	if v, ok := dst.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// ========== Payloads ==========

// Credentials is the payload of Register and Login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`

	// Token resumes an earlier session instead of checking a password. Login only.
	Token string `json:"token,omitempty"`
}

func (p *Credentials) Validate() error {
	if p.Token != "" {
		return nil
	}
	if err := required("username", p.Username); err != nil {
		return err
	}
	return required("password", p.Password)
}

// UpdateAccount overwrites selected account fields.
type UpdateAccount struct {
	Target    string         `json:"target"`
	Password  *string        `json:"password,omitempty"`
	AvatarRef *string        `json:"avatarRef,omitempty"`
	Coins     *int64         `json:"coins,omitempty"`
	VIP       *model.VIPTier `json:"vip,omitempty"`
	Role      *model.Role    `json:"role,omitempty"`
}

func (p *UpdateAccount) Validate() error {
	if p.Password == nil && p.AvatarRef == nil && p.Coins == nil && p.VIP == nil && p.Role == nil {
		return errors.New("no fields to update")
	}
	return nil
}

// CompleteTask consumes a task.
type CompleteTask struct {
	TaskID string `json:"taskId"`
}

func (p *CompleteTask) Validate() error { return required("taskId", p.TaskID) }

// BuyGift purchases one gift from the shop.
type BuyGift struct {
	GiftID string `json:"giftId"`
}

func (p *BuyGift) Validate() error { return required("giftId", p.GiftID) }

// BuyVIP upgrades the account tier.
type BuyVIP struct {
	Level model.VIPTier `json:"level"`
}

func (p *BuyVIP) Validate() error {
	if !p.Level.Valid() {
		return fmt.Errorf("unknown level %q", p.Level)
	}
	return nil
}

// SendGlobalMessage posts to the global channel.
type SendGlobalMessage struct {
	Text string `json:"text"`
}

func (p *SendGlobalMessage) Validate() error { return required("text", p.Text) }

// SendPrivateMessage posts to a private channel.
type SendPrivateMessage struct {
	ToUser string `json:"toUser"`
	Text   string `json:"text"`
}

func (p *SendPrivateMessage) Validate() error {
	if err := required("toUser", p.ToUser); err != nil {
		return err
	}
	return required("text", p.Text)
}

// CreateListing puts a gift on the market.
type CreateListing struct {
	GiftID     string `json:"giftId"`
	PriceCoins int64  `json:"priceCoins"`
}

func (p *CreateListing) Validate() error { return required("giftId", p.GiftID) }

// ListingRef names a listing to buy or cancel.
type ListingRef struct {
	ListingID string `json:"listingId"`
}

func (p *ListingRef) Validate() error { return required("listingId", p.ListingID) }

// TransferCoins sends coins to another account.
type TransferCoins struct {
	ToUser string `json:"toUser"`
	Amount int64  `json:"amount"`
}

func (p *TransferCoins) Validate() error { return required("toUser", p.ToUser) }

// AddTask adds a task to the board.
type AddTask struct {
	Name   string         `json:"name"`
	Reward int64          `json:"reward"`
	Tier   model.TaskTier `json:"tier"`
	Link   string         `json:"link,omitempty"`
}

func (p *AddTask) Validate() error { return required("name", p.Name) }

// SpinRoulette has no fields.
type SpinRoulette struct{}
