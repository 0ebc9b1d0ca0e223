// Package engine runs the single loop that owns the store.
//
// Inbound actions, simulator ticks and read-only queries are all funnelled
// through one channel and executed one at a time, so every handler sees a fully
// applied prior state and no handler is interleaved with another. After each
// mutation the changed slices are broadcast in full to every connection.
package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"coinhub/internal/model"
	"coinhub/internal/protocol"
	"coinhub/internal/router"
	"coinhub/internal/service"
	"coinhub/internal/simulator"
	"coinhub/internal/store"
)

// ErrStopped is returned when the loop is no longer running.
var ErrStopped = errors.New("engine stopped")

const defaultQueueSize = 1024

// Query states for Do.
const (
	queryPending int32 = iota
	queryRunning
	queryAbandoned
)

// Broadcaster fans frames out to every live connection.
type Broadcaster interface {
	Join(conn protocol.Conn)
	Broadcast(frame []byte)
}

// Archiver receives copies of audit data. Implementations must not block.
type Archiver interface {
	ArchiveLedger(entries []model.LedgerEntry)
	ArchiveAccounts(accounts []*model.Account)
}

// Options configures an Engine.
type Options struct {
	Store     *store.Store
	Router    *router.Router
	Simulator *simulator.Simulator
	Hub       Broadcaster
	Archive   Archiver
	Interval  time.Duration
	QueueSize int
	Clock     func() time.Time
}

// Engine owns the store and serializes every access to it.
type Engine struct {
	st       *store.Store
	router   *router.Router
	sim      *simulator.Simulator
	hub      Broadcaster
	archive  Archiver
	interval time.Duration
	clock    func() time.Time

	cmds chan func()
	done chan struct{}
}

// New creates an Engine. Run must be called to start processing.
func New(opts Options) *Engine {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{
		st:       opts.Store,
		router:   opts.Router,
		sim:      opts.Simulator,
		hub:      opts.Hub,
		archive:  opts.Archive,
		interval: opts.Interval,
		clock:    opts.Clock,
		cmds:     make(chan func(), opts.QueueSize),
		done:     make(chan struct{}),
	}
}

// Run processes commands and simulator ticks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	var ticks <-chan time.Time
	if e.sim != nil && e.interval > 0 {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	log.Info().Dur("interval", e.interval).Msg("Engine loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Engine loop stopped")
			return ctx.Err()
		case fn := <-e.cmds:
			e.safely("command", fn)
		case <-ticks:
			e.safely("tick", e.tick)
		}
	}
}

// safely runs fn and recovers from panics so one bad handler never stops the loop.
func (e *Engine) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("what", what).Msg("Recovered from panic in engine loop")
		}
	}()
	fn()
}

// submit queues fn for the loop.
func (e *Engine) submit(ctx context.Context, fn func()) error {
	select {
	case e.cmds <- fn:
		return nil
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the loop and waits for it to finish.
// If ctx ends or the loop stops before fn starts, fn is skipped. Once fn has
// started, Do waits for it, so callers may read what fn wrote as soon as Do returns.
func (e *Engine) Do(ctx context.Context, fn func(st *store.Store)) error {
	var state atomic.Int32
	finished := make(chan struct{})
	if err := e.submit(ctx, func() {
		defer close(finished)
		if state.CompareAndSwap(queryPending, queryRunning) {
			fn(e.st)
		}
	}); err != nil {
		return err
	}

	var cause error
	select {
	case <-finished:
		return nil
	case <-e.done:
		cause = ErrStopped
	case <-ctx.Done():
		cause = ctx.Err()
	}

	if state.CompareAndSwap(queryPending, queryAbandoned) {
		return cause
	}
	<-finished
	return nil
}

// Attach sends the full snapshot to conn and then joins it to the broadcaster.
// Both happen on the loop, so no broadcast can slip in between.
func (e *Engine) Attach(ctx context.Context, conn protocol.Conn) error {
	return e.submit(ctx, func() {
		frame, err := protocol.Encode(protocol.ActionInit, e.st.Snapshot())
		if err != nil {
			log.Error().Err(err).Str("conn", conn.ID()).Msg("Failed to encode snapshot")
			return
		}
		conn.Send(frame)
		e.hub.Join(conn)
	})
}

// Dispatch parses an inbound frame and queues it. Malformed frames are logged and dropped.
func (e *Engine) Dispatch(ctx context.Context, conn protocol.Conn, frame []byte) error {
	env, err := protocol.Parse(frame)
	if err != nil {
		log.Warn().Err(err).Str("conn", conn.ID()).Msg("Dropping malformed frame")
		return nil
	}
	return e.submit(ctx, func() {
		e.handle(conn, env)
	})
}

func (e *Engine) handle(conn protocol.Conn, env *protocol.Envelope) {
	ledgerBefore := e.st.LedgerLen()

	res, err := e.router.Dispatch(conn, env)
	if res.Bind != "" {
		conn.Bind(res.Bind)
	}
	for _, reply := range res.Replies {
		e.reply(conn, reply.Action, reply.Payload)
	}
	if err != nil {
		e.reject(conn, env, err)
	}

	e.publish(res.Changed)
	if res.Changed.Has(store.SliceLedger) && e.archive != nil {
		if added := e.st.LedgerLen() - ledgerBefore; added > 0 {
			e.archive.ArchiveLedger(e.st.RecentLedger(added))
		}
	}
}

func (e *Engine) reject(conn protocol.Conn, env *protocol.Envelope, err error) {
	re := service.AsReject(err)
	ev := log.Debug()
	if re.Code == service.CodeInternal {
		ev = log.Error()
	}
	ev.Err(err).
		Str("action", env.Action).
		Str("actor", conn.Account()).
		Str("reason", string(re.Code)).
		Msg("Action rejected")

	e.reply(conn, protocol.ActionError, protocol.ErrorPayload{
		Code:    string(re.Code),
		Message: re.Message,
		Action:  env.Action,
	})
}

func (e *Engine) reply(conn protocol.Conn, action string, payload any) {
	frame, err := protocol.Encode(action, payload)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode reply")
		return
	}
	if !conn.Send(frame) {
		log.Debug().Str("conn", conn.ID()).Str("action", action).Msg("Reply dropped, connection gone")
	}
}

// publish broadcasts every changed slice in full.
func (e *Engine) publish(changed store.Slice) {
	changed.Each(func(sl store.Slice) {
		action, ok := sliceActions[sl]
		if !ok {
			return
		}
		data := e.st.SliceData(sl)
		frame, err := protocol.Encode(action, data)
		if err != nil {
			log.Error().Err(err).Str("action", action).Msg("Failed to encode broadcast")
			return
		}
		e.hub.Broadcast(frame)

		if sl == store.SliceAccounts && e.archive != nil {
			if accounts, ok := data.([]*model.Account); ok {
				e.archive.ArchiveAccounts(accounts)
			}
		}
	})
}

func (e *Engine) tick() {
	sample, changed := e.sim.Tick(e.clock())
	log.Debug().Str("time", sample.Time).Float64("rate", sample.Rate).Msg("Rate tick")
	e.publish(changed)
}

// sliceActions names the broadcast tag of each store slice.
var sliceActions = map[store.Slice]string{
	store.SliceAccounts:     protocol.ActionAccountsUpdated,
	store.SliceTasks:        protocol.ActionTasksUpdated,
	store.SliceGifts:        protocol.ActionGiftsUpdated,
	store.SliceRates:        protocol.ActionRateHistoryUpdated,
	store.SliceGlobalChat:   protocol.ActionGlobalChatUpdated,
	store.SlicePrivateChats: protocol.ActionPrivateChatsUpdated,
	store.SliceMarket:       protocol.ActionMarketUpdated,
	store.SliceLedger:       protocol.ActionLedgerUpdated,
	store.SliceBaseRate:     protocol.ActionBaseRateUpdated,
}

