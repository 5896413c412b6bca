// Package ws carries chat events over gorilla/websocket connections. The Hub
// tracks open connections and implements the dispatcher's Emitter; Clients
// pump frames between the socket and the hub.
package ws

import (
	"log"
	"sync"

	"github.com/mzalewski/pokoje/internal/domain"
)

// EventHandler consumes inbound events and disconnect notifications.
// The chat dispatcher implements it.
type EventHandler interface {
	HandleEvent(connID string, env domain.Envelope)
	Disconnect(connID string)
}

// Hub maintains the set of open connections. It owns no chat state: room
// membership and identities live in the dispatcher's registries, the hub
// only routes bytes to connection ids.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	handler    EventHandler

	maxMessageSize int64
}

// NewHub creates a hub accepting frames up to maxMessageSize bytes
func NewHub(maxMessageSize int64) *Hub {
	if maxMessageSize <= 0 {
		maxMessageSize = domain.DefaultMaxMessageSize
	}
	return &Hub{
		clients:        make(map[string]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		maxMessageSize: maxMessageSize,
	}
}

// SetHandler wires the inbound event handler. Must be called before Run.
func (h *Hub) SetHandler(handler EventHandler) {
	h.handler = handler
}

// Register adds a connection to the hub
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a connection from the hub
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run starts the hub's connection bookkeeping loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("Connection %s opened. Total connections: %d", client.ID, count)

		case client := <-h.unregister:
			h.mu.Lock()
			// Prevent double unregister
			if _, ok := h.clients[client.ID]; !ok {
				h.mu.Unlock()
				continue
			}
			delete(h.clients, client.ID)
			// Close under the lock: Emit and Broadcast send only while
			// holding RLock and only to clients still in the map, so no
			// send can race this close.
			close(client.send)
			count := len(h.clients)
			h.mu.Unlock()

			// Disconnect is the implicit leave of every joined room;
			// the dispatcher runs it as one atomic cleanup pass.
			if h.handler != nil {
				h.handler.Disconnect(client.ID)
			}
			log.Printf("Connection %s closed. Total connections: %d", client.ID, count)
		}
	}
}

// Emit sends one event to one connection. Unknown ids are dropped; the
// connection is already gone.
func (h *Hub) Emit(connID string, event domain.EventType, payload interface{}) {
	data, err := domain.EncodeEvent(event, payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[connID]; ok {
		client.Send(data)
	}
}

// Broadcast sends one event to every open connection
func (h *Hub) Broadcast(event domain.EventType, payload interface{}) {
	data, err := domain.EncodeEvent(event, payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.Send(data)
	}
}
