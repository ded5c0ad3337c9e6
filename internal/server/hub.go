package server

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lox/holdemtable/internal/game"
)

// Envelope is the frame pushed to WebSocket clients.
type Envelope struct {
	Type      string `json:"type"`
	TableID   string `json:"table_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Hub fans table events out to subscribed WebSocket clients. It is a
// session.Sink: Publish never blocks, and a client that cannot keep up is
// disconnected.
type Hub struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:  logger.With().Str("component", "hub").Logger(),
		clients: make(map[string]map[*client]struct{}),
	}
}

// Publish implements session.Sink.
func (h *Hub) Publish(tableID string, e game.Event) {
	h.mu.RLock()
	subs := h.clients[tableID]
	if len(subs) == 0 {
		h.mu.RUnlock()
		return
	}
	targets := make([]*client, 0, len(subs))
	for c := range subs {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	frame, err := json.Marshal(Envelope{Type: e.EventType(), TableID: tableID, Data: e})
	if err != nil {
		h.logger.Error().Err(err).Str("event", e.EventType()).Msg("failed to encode event")
		return
	}
	for _, c := range targets {
		if !c.enqueue(frame) {
			h.logger.Warn().Str("table_id", tableID).Msg("client too slow, disconnecting")
			h.remove(c)
			c.close()
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[c.tableID]
	if !ok {
		subs = make(map[*client]struct{})
		h.clients[c.tableID] = subs
	}
	subs[c] = struct{}{}
	h.logger.Debug().Str("table_id", c.tableID).Int("total", len(subs)).Msg("client subscribed")
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.clients[c.tableID]
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.clients, c.tableID)
	}
}

// Subscribers reports how many clients follow tableID.
func (h *Hub) Subscribers(tableID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[tableID])
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[string]map[*client]struct{})
	h.mu.Unlock()
	for _, subs := range all {
		for c := range subs {
			c.close()
		}
	}
}
