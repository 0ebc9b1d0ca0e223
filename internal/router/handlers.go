package router

import (
	"coinhub/internal/protocol"
	"coinhub/internal/service"
	"coinhub/internal/store"
)

// Services bundles the transaction handlers the routes call into.
type Services struct {
	Accounts  *service.AccountService
	Tasks     *service.TaskService
	Shop      *service.ShopService
	Market    *service.MarketService
	Transfers *service.TransferService
	Chat      *service.ChatService
	Roulette  *service.RouletteService
}

// RegisterAll registers a route for every client action.
func (r *Router) RegisterAll(svc *Services) error {
	routes := []Route{
		{Action: protocol.ActionRegister, Public: true, Handler: register(svc.Accounts)},
		{Action: protocol.ActionLogin, Public: true, Handler: login(svc.Accounts)},
		{Action: protocol.ActionUpdateAccount, Handler: updateAccount(svc.Accounts)},
		{Action: protocol.ActionCompleteTask, Handler: completeTask(svc.Tasks)},
		{Action: protocol.ActionAddTask, Handler: addTask(svc.Tasks)},
		{Action: protocol.ActionBuyGift, Handler: buyGift(svc.Shop)},
		{Action: protocol.ActionBuyVIP, Handler: buyVIP(svc.Shop)},
		{Action: protocol.ActionCreateListing, Handler: createListing(svc.Market)},
		{Action: protocol.ActionBuyListing, Handler: buyListing(svc.Market)},
		{Action: protocol.ActionCancelListing, Handler: cancelListing(svc.Market)},
		{Action: protocol.ActionTransferCoins, Handler: transferCoins(svc.Transfers)},
		{Action: protocol.ActionSendGlobalMessage, Handler: sendGlobal(svc.Chat)},
		{Action: protocol.ActionSendPrivateMessage, Handler: sendPrivate(svc.Chat)},
		{Action: protocol.ActionSpinRoulette, Handler: spinRoulette(svc.Roulette)},
	}
	for _, rt := range routes {
		if err := r.Register(rt); err != nil {
			return err
		}
	}
	return nil
}

func changed(sl store.Slice, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}
	return &Result{Changed: sl}, nil
}

func sessionResult(sess *service.Session, sl store.Slice) *Result {
	return &Result{
		Changed: sl,
		Bind:    sess.Username,
		Replies: []protocol.Outbound{{Action: protocol.ActionSession, Payload: sess}},
	}
}

func register(s *service.AccountService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.Credentials
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		sess, sl, err := s.Register(p.Username, p.Password)
		if err != nil {
			if sl != store.SliceNone {
				// The account was created; publish it even though no session was issued.
				return &Result{Changed: sl}, err
			}
			return nil, err
		}
		return sessionResult(sess, sl), nil
	}
}

func login(s *service.AccountService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.Credentials
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		var (
			sess *service.Session
			err  error
		)
		if p.Token != "" {
			sess, err = s.Resume(p.Token)
		} else {
			sess, err = s.Login(p.Username, p.Password)
		}
		if err != nil {
			return nil, err
		}
		return sessionResult(sess, store.SliceNone), nil
	}
}

func updateAccount(s *service.AccountService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.UpdateAccount
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return changed(s.Update(req.Actor, service.AccountUpdate{
			Target:    p.Target,
			Password:  p.Password,
			AvatarRef: p.AvatarRef,
			Coins:     p.Coins,
			VIP:       p.VIP,
			Role:      p.Role,
		}))
	}
}

func completeTask(s *service.TaskService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.CompleteTask
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return changed(s.Complete(req.Actor, p.TaskID))
	}
}

func addTask(s *service.TaskService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.AddTask
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return changed(s.Add(req.Actor, p.Name, p.Reward, p.Tier, p.Link))
	}
}

func buyGift(s *service.ShopService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.BuyGift
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return changed(s.BuyGift(req.Actor, p.GiftID))
	}
}

func buyVIP(s *service.ShopService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.BuyVIP
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return changed(s.BuyVIP(req.Actor, p.Level))
	}
}

func createListing(s *service.MarketService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.CreateListing
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		_, sl, err := s.CreateListing(req.Actor, p.GiftID, p.PriceCoins)
		return changed(sl, err)
	}
}

func buyListing(s *service.MarketService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.ListingRef
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return changed(s.BuyListing(req.Actor, p.ListingID))
	}
}

func cancelListing(s *service.MarketService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.ListingRef
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return changed(s.CancelListing(req.Actor, p.ListingID))
	}
}

func transferCoins(s *service.TransferService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.TransferCoins
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return changed(s.Transfer(req.Actor, p.ToUser, p.Amount))
	}
}

func sendGlobal(s *service.ChatService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.SendGlobalMessage
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return changed(s.SendGlobal(req.Actor, p.Text))
	}
}

func sendPrivate(s *service.ChatService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.SendPrivateMessage
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		return changed(s.SendPrivate(req.Actor, p.ToUser, p.Text))
	}
}

func spinRoulette(s *service.RouletteService) HandlerFunc {
	return func(req *Request) (*Result, error) {
		var p protocol.SpinRoulette
		if err := protocol.Decode(req.Payload, &p); err != nil {
			return nil, err
		}
		res, sl, err := s.Spin(req.Actor)
		if err != nil {
			return nil, err
		}
		return &Result{
			Changed: sl,
			Replies: []protocol.Outbound{{Action: protocol.ActionRouletteResult, Payload: res}},
		}, nil
	}
}
