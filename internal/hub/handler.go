package hub

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origins are enforced by the HTTP layer's CORS policy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades the request and runs the connection until it closes.
// A "token" query parameter binds the connection to an account up front;
// an invalid token is rejected before the upgrade.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var username string
	if token := r.URL.Query().Get("token"); token != "" && h.auth != nil {
		name, err := h.auth(ctx, token)
		if err != nil {
			http.Error(w, "invalid session token", http.StatusUnauthorized)
			return
		}
		username = name
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Websocket upgrade failed")
		return
	}

	c := newClient(h, conn)
	if username != "" {
		c.Bind(username)
	}

	go c.writePump()

	if err := h.dispatcher.Attach(ctx, c); err != nil {
		log.Warn().Err(err).Str("conn", c.id).Msg("Failed to attach client")
		c.shutdown(closeGoingAway)
		return
	}

	c.readPump(ctx)
}
