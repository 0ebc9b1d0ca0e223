// Package router maps inbound action tags to transaction handlers.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"coinhub/internal/protocol"
	"coinhub/internal/service"
	"coinhub/internal/store"
)

// Request is one decoded inbound action.
type Request struct {
	Action  string
	Actor   string
	Payload json.RawMessage
	Conn    protocol.Conn
}

// Result is what a handler changed and what the sender should receive.
type Result struct {
	Changed store.Slice
	Replies []protocol.Outbound
	// Bind, when set, binds the sender's connection to this username.
	Bind string
}

// HandlerFunc runs one action against the store.
type HandlerFunc func(req *Request) (*Result, error)

// Route is a registered action.
type Route struct {
	Action string

	// Public routes run without an authenticated actor.
	Public  bool
	Handler HandlerFunc
}

// Router manages route registration and dispatch.
type Router struct {
	routes      map[string]Route
	mu          sync.RWMutex
	requireAuth bool
}

// New creates an empty router. With requireAuth the acting username always
// comes from the connection binding; otherwise the envelope's actingUsername
// is trusted when present.
func New(requireAuth bool) *Router {
	return &Router{
		routes:      make(map[string]Route),
		requireAuth: requireAuth,
	}
}

// Register adds a route. A route with the same action is replaced.
func (r *Router) Register(rt Route) error {
	if rt.Action == "" {
		return fmt.Errorf("route action cannot be empty")
	}
	if rt.Handler == nil {
		return fmt.Errorf("route %s has no handler", rt.Action)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[rt.Action] = rt
	return nil
}

// Get retrieves a route by action.
func (r *Router) Get(action string) (Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.routes[action]
	return rt, ok
}

// Actions returns all registered actions in sorted order.
func (r *Router) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]string, 0, len(r.routes))
	for a := range r.routes {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

// Count returns the number of registered routes.
func (r *Router) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// Dispatch resolves the actor and runs the handler for env.
// Unknown actions and undecodable payloads yield service.ErrInvalidPayload.
// A non-nil Result is returned even alongside an error, so partial changes can be published.
func (r *Router) Dispatch(conn protocol.Conn, env *protocol.Envelope) (*Result, error) {
	rt, ok := r.Get(env.Action)
	if !ok {
		return &Result{}, service.Reject(service.CodeInvalidPayload, "unknown action %q", env.Action)
	}

	req := &Request{
		Action:  env.Action,
		Payload: env.Payload,
		Conn:    conn,
	}
	if !rt.Public {
		req.Actor = r.actor(conn, env)
		if req.Actor == "" {
			return &Result{}, service.ErrUnauthenticated
		}
	}

	res, err := rt.Handler(req)
	if res == nil {
		res = &Result{}
	}
	if err != nil && errors.Is(err, protocol.ErrInvalidPayload) {
		err = &service.RejectError{Code: service.CodeInvalidPayload, Message: err.Error()}
	}
	return res, err
}

func (r *Router) actor(conn protocol.Conn, env *protocol.Envelope) string {
	var bound string
	if conn != nil {
		bound = conn.Account()
	}
	if r.requireAuth || env.ActingUsername == "" {
		return bound
	}
	return env.ActingUsername
}
