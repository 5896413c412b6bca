package ws

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mzalewski/pokoje/internal/domain"
)

// newMockClient creates a client without an actual websocket connection
func newMockClient(hub *Hub) *Client {
	return &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: nil,
		send: make(chan []byte, 256),
	}
}

// recordingHandler records disconnect notifications
type recordingHandler struct {
	mu          sync.Mutex
	disconnects []string
}

func (h *recordingHandler) HandleEvent(connID string, env domain.Envelope) {}

func (h *recordingHandler) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnects = append(h.disconnects, connID)
}

func (h *recordingHandler) disconnected() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.disconnects))
	copy(out, h.disconnects)
	return out
}

func TestNewHub(t *testing.T) {
	hub := NewHub(0)

	if hub.clients == nil {
		t.Error("Clients map not initialized")
	}
	if hub.register == nil {
		t.Error("Register channel not initialized")
	}
	if hub.unregister == nil {
		t.Error("Unregister channel not initialized")
	}
	if hub.maxMessageSize != domain.DefaultMaxMessageSize {
		t.Errorf("Expected default max message size, got %d", hub.maxMessageSize)
	}
}

func TestHub_Register(t *testing.T) {
	hub := NewHub(0)
	go hub.Run()

	client := newMockClient(hub)
	hub.Register(client)

	time.Sleep(50 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount())
	}
}

func TestHub_UnregisterNotifiesHandler(t *testing.T) {
	hub := NewHub(0)
	handler := &recordingHandler{}
	hub.SetHandler(handler)
	go hub.Run()

	client := newMockClient(hub)
	hub.Register(client)
	time.Sleep(20 * time.Millisecond)

	hub.Unregister(client)
	time.Sleep(20 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}

	got := handler.disconnected()
	if len(got) != 1 || got[0] != client.ID {
		t.Errorf("Expected disconnect notification for %s, got %v", client.ID, got)
	}
}

func TestHub_DoubleUnregister(t *testing.T) {
	hub := NewHub(0)
	handler := &recordingHandler{}
	hub.SetHandler(handler)
	go hub.Run()

	client := newMockClient(hub)
	hub.Register(client)
	time.Sleep(20 * time.Millisecond)

	hub.Unregister(client)
	hub.Unregister(client)
	time.Sleep(50 * time.Millisecond)

	if got := handler.disconnected(); len(got) != 1 {
		t.Errorf("Expected a single disconnect notification, got %d", len(got))
	}
}

func TestHub_Emit(t *testing.T) {
	hub := NewHub(0)
	go hub.Run()

	client1 := newMockClient(hub)
	client2 := newMockClient(hub)
	hub.Register(client1)
	hub.Register(client2)
	time.Sleep(50 * time.Millisecond)

	hub.Emit(client1.ID, domain.EventError, domain.ErrorPayload{Message: "just you"})

	select {
	case data := <-client1.send:
		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("Failed to decode frame: %v", err)
		}
		if env.Type != domain.EventError {
			t.Errorf("Expected error event, got %s", env.Type)
		}
	default:
		t.Fatal("Expected client1 to receive the event")
	}

	select {
	case <-client2.send:
		t.Error("Expected client2 to receive nothing")
	default:
	}
}

func TestHub_EmitUnknownConnection(t *testing.T) {
	hub := NewHub(0)
	go hub.Run()

	// Must not panic or block
	hub.Emit("no-such-conn", domain.EventError, domain.ErrorPayload{Message: "lost"})
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(0)
	go hub.Run()

	client1 := newMockClient(hub)
	client2 := newMockClient(hub)
	hub.Register(client1)
	hub.Register(client2)

	for i := 0; i < 10; i++ {
		if hub.ClientCount() == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(domain.EventRoomsUpdate, domain.RoomsUpdatePayload{
		Rooms: []domain.RoomInfo{{Name: "main", Users: 2}},
	})

	for _, c := range []*Client{client1, client2} {
		select {
		case data := <-c.send:
			var env domain.Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				t.Fatalf("Failed to decode frame: %v", err)
			}
			if env.Type != domain.EventRoomsUpdate {
				t.Errorf("Expected rooms_update, got %s", env.Type)
			}
			var payload domain.RoomsUpdatePayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				t.Fatalf("Failed to decode payload: %v", err)
			}
			if len(payload.Rooms) != 1 || payload.Rooms[0].Users != 2 {
				t.Errorf("Unexpected payload: %v", payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("Expected client to receive broadcast")
		}
	}
}

func TestHub_RaceCondition(t *testing.T) {
	hub := NewHub(0)
	hub.SetHandler(&recordingHandler{})
	go hub.Run()

	// Stress registering/unregistering concurrently with broadcasts
	for i := 0; i < 50; i++ {
		go func() {
			c := newMockClient(hub)
			hub.Register(c)
			time.Sleep(time.Millisecond)
			hub.Unregister(c)
		}()
		go func() {
			hub.Broadcast(domain.EventRoomsUpdate, domain.RoomsUpdatePayload{})
		}()
	}

	time.Sleep(500 * time.Millisecond)

	// Main goal is ensuring no concurrent map read/write panics
	if hub.ClientCount() < 0 {
		t.Error("Client count invalid")
	}
}
