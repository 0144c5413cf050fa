package realtime

import (
	"context"
	"sync"
)

// Conn is the minimal interface a live transport session must satisfy.
// *websocket.Conn wrappers and test fakes both implement it.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub maps each authenticated user to at most one live connection. It is
// the only shared mutable structure in the realtime layer; all access goes
// through the mutex.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]Conn // userID -> live connection
	owners map[Conn]string // reverse lookup for Unregister
}

func NewHub() *Hub {
	return &Hub{
		conns:  make(map[string]Conn),
		owners: make(map[Conn]string),
	}
}

// Register binds conn to userID, replacing any prior connection for that
// user (last join wins). The replaced connection, if any, is returned so
// the caller can close it.
func (h *Hub) Register(userID string, conn Conn) Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.conns[userID]
	if prev == conn {
		return nil
	}
	if prev != nil {
		delete(h.owners, prev)
	}
	h.conns[userID] = conn
	h.owners[conn] = userID
	return prev
}

// Unregister removes conn and returns the user it belonged to. A handle the
// hub no longer owns (already replaced, or never registered) is a no-op.
func (h *Hub) Unregister(conn Conn) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID, ok := h.owners[conn]
	if !ok {
		return "", false
	}
	delete(h.owners, conn)
	delete(h.conns, userID)
	return userID, true
}

// Lookup returns the live connection for a user, if any.
func (h *Hub) Lookup(userID string) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[userID]
	return c, ok
}

// IsOnline reports whether the user has a live connection on this instance.
func (h *Hub) IsOnline(userID string) bool {
	_, ok := h.Lookup(userID)
	return ok
}

// OnlineUserIDs returns a snapshot of currently-connected user ids.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	return ids
}

// Publish delivers an event to the user's local connection. Offline users
// are a silent drop; delivery is best-effort, the client re-syncs missed
// state over REST after reconnecting. Implements EventBus so the hub can be
// used directly when no cross-instance bridge is configured.
func (h *Hub) Publish(_ context.Context, userID string, evt Event) error {
	conn, ok := h.Lookup(userID)
	if !ok {
		return nil
	}
	return conn.WriteJSON(evt)
}
