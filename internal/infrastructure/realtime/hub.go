package realtime

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Event kinds pushed to inbox observers.
const (
	EventNewMessage         = "message:new"
	EventConversationUpdate = "conversation:update"
	EventMessageStatus      = "message:status"
)

// Notifier fans out inbox state changes to currently connected observers of a
// tenant. Delivery is best-effort and at-most-once; having no observers is
// not an error.
type Notifier interface {
	Notify(tenantID string, kind string, payload any)
}

// eventFrame is the wire shape written to websocket clients.
type eventFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub tracks websocket connections grouped per tenant and broadcasts inbox
// events to them. It replaces nothing in persistence: callers must finish
// their ledger/conversation writes before notifying.
type Hub struct {
	log *logrus.Logger

	mu      sync.RWMutex
	tenants map[string]map[string]*Connection // tenantID -> connectionID -> connection
}

// NewHub constructs an empty Hub.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		log:     log,
		tenants: make(map[string]map[string]*Connection),
	}
}

var _ Notifier = (*Hub)(nil)

// Attach registers a connection under its tenant and starts its write loop.
func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	room := h.tenants[conn.TenantID]
	if room == nil {
		room = make(map[string]*Connection)
		h.tenants[conn.TenantID] = room
	}
	room[conn.ID] = conn
	h.mu.Unlock()

	conn.Start()
}

// Detach removes a connection if it is still tracked.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	if room, ok := h.tenants[conn.TenantID]; ok {
		delete(room, conn.ID)
		if len(room) == 0 {
			delete(h.tenants, conn.TenantID)
		}
	}
	h.mu.Unlock()
}

// Notify marshals the event and writes it to every connection of the tenant.
// Slow consumers are dropped by Connection.Send; failures are not propagated.
func (h *Hub) Notify(tenantID string, kind string, payload any) {
	frame, err := json.Marshal(eventFrame{Event: kind, Data: payload})
	if err != nil {
		h.log.WithError(err).WithField("kind", kind).Warn("realtime: marshal event")
		return
	}

	h.mu.RLock()
	room := h.tenants[tenantID]
	conns := make([]*Connection, 0, len(room))
	for _, conn := range room {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.Send(frame)
	}
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	var conns []*Connection
	for _, room := range h.tenants {
		for _, conn := range room {
			conns = append(conns, conn)
		}
	}
	h.tenants = make(map[string]map[string]*Connection)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close(1001, "hub shutdown")
	}
}
