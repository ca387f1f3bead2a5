// Package realtime pushes domain events to websocket subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/events"
)

const broadcastBufferSize = 1000

var (
	ErrBroadcastFull = errors.New("broadcast buffer full")
	ErrHubStopped    = errors.New("hub stopped")
)

// Hub maintains the set of active clients and broadcasts events to them.
type Hub struct {
	clients   map[*Client]struct{}
	clientsMu sync.RWMutex

	broadcast  chan events.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a Hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan events.Event, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is done, closing every
// client.
func (h *Hub) Run(ctx context.Context) {
	log.Info("Realtime hub started")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case ev := <-h.broadcast:
			h.broadcastEvent(ev)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Name() string {
	return "realtime"
}

// Deliver queues ev for broadcast without waiting for any client.
func (h *Hub) Deliver(ctx context.Context, ev events.Event) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- ev:
		return nil
	default:
		return ErrBroadcastFull
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = struct{}{}
	log.Debug("Realtime client connected", "clientID", c.ID, "total", len(h.clients))
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		log.Debug("Realtime client disconnected", "clientID", c.ID, "total", len(h.clients))
	}
}

// broadcastEvent encodes ev once and hands it to every interested client.
// A client whose buffer is full is too slow and gets disconnected.
func (h *Hub) broadcastEvent(ev events.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Error("Failed to encode event for broadcast", "event", ev.Name, "error", err)
		return
	}

	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		if !c.Wants(ev.Name) {
			continue
		}
		if !c.TrySend(msg) {
			log.Warn("Realtime client buffer full, disconnecting", "clientID", c.ID)
			h.unregisterClient(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	log.Info("Shutting down realtime hub", "clients", len(h.clients))
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
