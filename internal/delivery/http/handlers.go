// Package http exposes the server's HTTP surface: the websocket upgrade
// endpoint, a room list API for presence display, and a liveness probe.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mzalewski/pokoje/internal/chat"
	"github.com/mzalewski/pokoje/internal/config"
	"github.com/mzalewski/pokoje/internal/delivery/ws"
)

// Handler serves the HTTP endpoints around the chat core
type Handler struct {
	hub        *ws.Hub
	dispatcher *chat.Dispatcher
	upgrader   websocket.Upgrader
}

// NewHandler creates a Handler wired to the hub and dispatcher
func NewHandler(hub *ws.Hub, dispatcher *chat.Dispatcher, cfg *config.Config) *Handler {
	return &Handler{
		hub:        hub,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return isOriginAllowed(r.Header.Get("Origin"), cfg.AllowedOrigins)
			},
		},
	}
}

// isOriginAllowed checks if the origin is in the allowed list.
// An empty origin is a same-origin request and is allowed.
func isOriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || origin == a {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades the request and starts the connection's pumps.
// The connection id assigned here is the identity key for the whole session.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, uuid.NewString())
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// HandleRooms returns the current room list as JSON
func (h *Handler) HandleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.dispatcher.Rooms())
}

// HandleHealth reports process liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
