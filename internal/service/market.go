package service

import (
	"fmt"

	"coinhub/internal/idgen"
	"coinhub/internal/model"
	"coinhub/internal/service/commission"
	"coinhub/internal/store"
)

// MarketService handles peer-to-peer gift listings. A listed gift is held in
// escrow: it leaves the seller's inventory when listed and returns on cancel.
type MarketService struct {
	base
}

// NewMarketService creates a new MarketService instance.
func NewMarketService(st *store.Store, clock Clock) *MarketService {
	return &MarketService{base: newBase(st, clock)}
}

// CreateListing moves one unit of giftID from the actor into escrow.
func (s *MarketService) CreateListing(actorName, giftID string, price int64) (string, store.Slice, error) {
	actor, err := s.actor(actorName)
	if err != nil {
		return "", store.SliceNone, err
	}
	if price <= 0 {
		return "", store.SliceNone, Reject(CodeInvalidAmount, "price must be positive")
	}
	if actor.GiftCount(giftID) == 0 {
		return "", store.SliceNone, Reject(CodeNotOwner, "no gift %q in inventory", giftID)
	}

	s.touch(actor)
	actor.RemoveGift(giftID)
	listing := &model.Listing{
		ID:         idgen.New(),
		Seller:     actor.Username,
		GiftID:     giftID,
		PriceCoins: price,
		Timestamp:  s.nowMillis(),
	}
	s.st.AddListing(listing)

	return listing.ID, store.SliceMarket | store.SliceAccounts, nil
}

// BuyListing settles a listing: the buyer pays the full price and the seller
// receives the price net of the seller's commission.
func (s *MarketService) BuyListing(actorName, listingID string) (store.Slice, error) {
	buyer, err := s.actor(actorName)
	if err != nil {
		return store.SliceNone, err
	}
	listing, ok := s.st.Listing(listingID)
	if !ok {
		return store.SliceNone, Reject(CodeNotFound, "listing %q not found", listingID)
	}
	if listing.Seller == buyer.Username {
		return store.SliceNone, Reject(CodeForbidden, "cannot buy own listing")
	}
	if buyer.Coins < listing.PriceCoins {
		return store.SliceNone, ErrInsufficientBalance
	}
	seller, ok := s.st.Account(listing.Seller)
	if !ok {
		return store.SliceNone, Reject(CodeNotFound, "seller %q not found", listing.Seller)
	}

	price := listing.PriceCoins
	net := commission.Net(price, seller.VIP)
	if !canCredit(seller.Coins, net) {
		return store.SliceNone, ErrBalanceLimit
	}

	s.touch(buyer)
	buyer.Coins -= price
	buyer.Gifts = append(buyer.Gifts, listing.GiftID)
	buyer.Experience += marketBuyExperience
	seller.Coins += net
	s.st.RemoveListing(listing.ID)
	s.st.AppendLedger(model.LedgerEntry{
		ID:        idgen.New(),
		Type:      model.LedgerMarketSale,
		FromUser:  buyer.Username,
		ToUser:    seller.Username,
		Amount:    net,
		Timestamp: s.nowMillis(),
		Details:   fmt.Sprintf("Market purchase for %d coins (commission %d%%)", price, commission.Percent(seller.VIP)),
	})

	return store.SliceMarket | store.SliceAccounts | store.SliceLedger, nil
}

// CancelListing returns an escrowed gift to its seller.
func (s *MarketService) CancelListing(actorName, listingID string) (store.Slice, error) {
	actor, err := s.actor(actorName)
	if err != nil {
		return store.SliceNone, err
	}
	listing, ok := s.st.Listing(listingID)
	if !ok {
		return store.SliceNone, Reject(CodeNotFound, "listing %q not found", listingID)
	}
	if listing.Seller != actor.Username {
		return store.SliceNone, ErrNotOwner
	}

	giftID := listing.GiftID
	s.st.RemoveListing(listing.ID)
	s.touch(actor)
	actor.Gifts = append(actor.Gifts, giftID)

	return store.SliceMarket | store.SliceAccounts, nil
}
