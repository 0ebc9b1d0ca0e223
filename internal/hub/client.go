package hub

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type closeReason int

const (
	closeNormal closeReason = iota
	closeOverflow
	closeGoingAway
)

// Client is one websocket connection.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	mu      sync.RWMutex
	account string

	done      chan struct{}
	closeOnce sync.Once
	reason    closeReason
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		hub:  h,
		send: make(chan []byte, h.opts.SendQueue),
		done: make(chan struct{}),
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// Account returns the bound username.
func (c *Client) Account() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

// Bind attaches the connection to an account.
func (c *Client) Bind(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = username
}

// Send queues a frame without blocking. A full queue disconnects the client.
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		log.Warn().Str("conn", c.id).Int("queue", cap(c.send)).Msg("Send queue overflow, disconnecting client")
		c.shutdown(closeOverflow)
		return false
	}
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// shutdown stops the writer, which sends a close frame and closes the socket.
func (c *Client) shutdown(reason closeReason) {
	c.closeOnce.Do(func() {
		c.reason = reason
		close(c.done)
	})
}

// readPump forwards inbound frames to the dispatcher until the socket fails.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Leave(c)
		c.shutdown(closeNormal)
	}()

	c.conn.SetReadLimit(c.hub.opts.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.opts.PongTimeout))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", c.id).Msg("Websocket read failed")
			}
			return
		}
		if err := c.hub.dispatcher.Dispatch(ctx, c, frame); err != nil {
			log.Warn().Err(err).Str("conn", c.id).Msg("Failed to dispatch frame")
			return
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.shutdown(closeNormal)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown(closeNormal)
				return
			}
		case <-c.done:
			c.writeClose()
			return
		}
	}
}

func (c *Client) writeClose() {
	code, text := websocket.CloseNormalClosure, ""
	switch c.reason {
	case closeOverflow:
		code, text = websocket.ClosePolicyViolation, "send queue overflow"
	case closeGoingAway:
		code, text = websocket.CloseGoingAway, "server shutting down"
	}
	deadline := time.Now().Add(c.hub.opts.WriteTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}
