// Package notify pushes badge-count refreshes to connected UI clients
// over WebSocket. It listens on the event bus; polling the counts
// endpoint remains the fallback when a client is not connected.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/maildue/maildue/internal/config"
	"github.com/maildue/maildue/internal/engine"
	"github.com/maildue/maildue/internal/events"
	"github.com/maildue/maildue/internal/metrics"
)

// Message is the wire format pushed to clients.
type Message struct {
	Type   string         `json:"type"`
	Counts *engine.Counts `json:"counts,omitempty"`
}

// Hub manages WebSocket clients and broadcasts count refreshes whenever a
// schedule or instance changes.
type Hub struct {
	engine  *engine.Engine
	cfg     *config.NotifyConfig
	clients map[string]*Client
	mu      sync.RWMutex
	done    chan struct{}
}

// NewHub creates a notification hub over the engine's counts.
func NewHub(eng *engine.Engine, cfg *config.NotifyConfig) *Hub {
	return &Hub{
		engine:  eng,
		cfg:     cfg,
		clients: make(map[string]*Client),
		done:    make(chan struct{}),
	}
}

// Start wires the hub into the event bus. Any schedule mutation or
// instance transition triggers a fresh broadcast.
func (h *Hub) Start(bus *events.EventBus) {
	refresh := func(ctx context.Context, _ *events.Event) error {
		h.Broadcast(ctx)
		return nil
	}

	bus.Subscribe(events.EventTypeSchedule, "*", "*", refresh)
	bus.Subscribe(events.EventTypeInstance, "*", "*", refresh)
}

// Stop disconnects all clients.
func (h *Hub) Stop() {
	select {
	case <-h.done:
		return
	default:
		close(h.done)
	}

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		client.close(websocket.StatusGoingAway, "server shutting down")
	}

	metrics.UpdateNotifyConnections(0)
}

// Broadcast pushes current badge counts to every connected client.
func (h *Hub) Broadcast(ctx context.Context) {
	counts, err := h.engine.CountsToday(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute counts for broadcast")
		return
	}

	data, err := json.Marshal(&Message{Type: "counts", Counts: &counts})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		client.send(data)
	}
}

// ServeHTTP upgrades the request to a WebSocket and streams count
// refreshes until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	full := len(h.clients) >= h.cfg.MaxConnections
	h.mu.RUnlock()

	if full {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket accept failed")
		return
	}

	client := newClient(conn, h)
	h.register(client)
	defer h.unregister(client.id)

	// Push current counts immediately so the badge is right on connect.
	if counts, err := h.engine.CountsToday(r.Context()); err == nil {
		if data, err := json.Marshal(&Message{Type: "counts", Counts: &counts}); err == nil {
			client.send(data)
		}
	}

	client.run()
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.id] = client
	metrics.UpdateNotifyConnections(len(h.clients))
	log.Debug().Str("client_id", client.id).Int("total_clients", len(h.clients)).Msg("Client connected")
}

func (h *Hub) unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; !ok {
		return
	}

	delete(h.clients, clientID)
	metrics.UpdateNotifyConnections(len(h.clients))
	log.Debug().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
}
