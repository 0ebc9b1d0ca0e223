// Package hub tracks live websocket connections and fans frames out to them.
//
// Each client owns a bounded outbound queue drained by its own writer
// goroutine. Broadcasting never blocks: a client whose queue is full is
// disconnected instead of buffering without limit.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"coinhub/internal/config"
	"coinhub/internal/protocol"
)

// Dispatcher receives connection lifecycle events and inbound frames.
type Dispatcher interface {
	Attach(ctx context.Context, conn protocol.Conn) error
	Dispatch(ctx context.Context, conn protocol.Conn, frame []byte) error
}

// Authenticator resolves a session token presented at connect time to a username.
type Authenticator func(ctx context.Context, token string) (string, error)

// Mirror receives a copy of every broadcast frame. Publish must not block.
type Mirror interface {
	Publish(frame []byte)
}

// Options are the per-connection limits.
type Options struct {
	SendQueue       int
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	MaxMessageBytes int64
}

// OptionsFromConfig converts hub configuration.
func OptionsFromConfig(cfg config.HubConfig) Options {
	return Options{
		SendQueue:       cfg.SendQueue,
		WriteTimeout:    cfg.WriteTimeout,
		PongTimeout:     cfg.PongTimeout,
		MaxMessageBytes: cfg.MaxMessageBytes,
	}
}

func (o *Options) normalize() {
	if o.SendQueue <= 0 {
		o.SendQueue = 256
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 64 * 1024
	}
}

// pingPeriod must be shorter than the pong timeout.
func (o Options) pingPeriod() time.Duration {
	return o.PongTimeout * 9 / 10
}

// Hub is the connection registry and broadcaster.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex

	opts       Options
	dispatcher Dispatcher
	auth       Authenticator
	mirror     Mirror
}

// New creates a Hub. auth and mirror may be nil.
func New(opts Options, dispatcher Dispatcher, auth Authenticator, mirror Mirror) *Hub {
	opts.normalize()
	return &Hub{
		clients:    make(map[string]*Client),
		opts:       opts,
		dispatcher: dispatcher,
		auth:       auth,
		mirror:     mirror,
	}
}

// SetDispatcher installs the dispatcher. It must be called before serving.
func (h *Hub) SetDispatcher(d Dispatcher) {
	h.dispatcher = d
}

// Join adds a connection to the broadcast set.
func (h *Hub) Join(conn protocol.Conn) {
	c, ok := conn.(*Client)
	if !ok {
		log.Warn().Str("conn", conn.ID()).Msg("Ignoring join of foreign connection type")
		return
	}
	if c.isClosed() {
		return
	}

	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	log.Info().Str("conn", c.id).Str("account", c.Account()).Int("connections", n).Msg("Client joined")
}

// Leave removes a connection from the broadcast set.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		log.Info().Str("conn", c.id).Int("connections", n).Msg("Client left")
	}
}

// Broadcast queues frame on every connection and mirrors it.
func (h *Hub) Broadcast(frame []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.Send(frame) {
			h.Leave(c)
		}
	}

	if h.mirror != nil {
		h.mirror.Publish(frame)
	}
}

// Count returns the number of joined connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client with a going-away close frame.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.shutdown(closeGoingAway)
	}
	log.Info().Int("connections", len(clients)).Msg("Hub closed")
}
