package domain

import (
	"encoding/json"
	"time"
)

// EventType names an event on the wire
type EventType string

// Inbound events (client -> server)
const (
	EventRegister    EventType = "register"
	EventCreateRoom  EventType = "create_room"
	EventSendMessage EventType = "send_message"
	EventSendImage   EventType = "send_image"
	EventTyping      EventType = "typing"
	EventStopTyping  EventType = "stop_typing"
	EventJoinRoom    EventType = "join_room"
	EventLeaveRoom   EventType = "leave_room"
)

// Outbound events (server -> client)
const (
	EventRegistered     EventType = "registered"
	EventUserJoined     EventType = "user_joined"
	EventUserLeft       EventType = "user_left"
	EventUserTyping     EventType = "user_typing"
	EventUserStopTyping EventType = "user_stop_typing"
	EventRoomJoined     EventType = "room_joined"
	EventRoomLeft       EventType = "room_left"
	EventRoomCreated    EventType = "room_created"
	EventRoomsUpdate    EventType = "rooms_update"
	EventNewMessage     EventType = "new_message"
	EventError          EventType = "error"
)

// Envelope is the wire frame for every event in both directions
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeEvent marshals an event and its payload into a wire frame
func EncodeEvent(event EventType, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: event, Payload: raw})
}

// Message is a chat message fanned out to a room. Messages are transient:
// built at send time, broadcast, and never retained.
type Message struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Room      string    `json:"room"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	HasImage  bool      `json:"hasImage"`
	ImageData string    `json:"imageData,omitempty"`
}

// RoomInfo is one entry of the room list shown for presence
type RoomInfo struct {
	Name  string `json:"name"`
	Users int    `json:"users"`
}

// ==== Inbound payloads ====

// RegisterPayload is the payload for the register event
type RegisterPayload struct {
	Username string `json:"username"`
	Room     string `json:"room,omitempty"`
}

// CreateRoomPayload is the payload for explicit room creation
type CreateRoomPayload struct {
	Name string `json:"name"`
}

// SendMessagePayload is the payload for text messages
type SendMessagePayload struct {
	Text string `json:"text"`
	Room string `json:"room"`
}

// SendImagePayload is the payload for image messages. Image carries the
// encoded image data; its size is bounded by the transport read limit.
type SendImagePayload struct {
	Text  string `json:"text"`
	Image string `json:"image"`
	Room  string `json:"room"`
}

// RoomRefPayload is the payload for typing, stop_typing and leave_room
type RoomRefPayload struct {
	Room string `json:"room"`
}

// JoinRoomPayload is the payload for join_room
type JoinRoomPayload struct {
	Name string `json:"name"`
}

// ==== Outbound payloads ====

// RegisteredPayload confirms a successful registration to the caller
type RegisteredPayload struct {
	User     User       `json:"user"`
	Room     string     `json:"room"`
	Members  []User     `json:"members"`
	AllRooms []RoomInfo `json:"allRooms"`
}

// UserEventPayload announces a join or leave to room peers
type UserEventPayload struct {
	User    User   `json:"user"`
	Message string `json:"message"`
	Members []User `json:"members"`
}

// TypingPayload carries the typing indicator
type TypingPayload struct {
	Username string `json:"username"`
}

// RoomJoinedPayload acknowledges a join to the caller
type RoomJoinedPayload struct {
	Room    string `json:"room"`
	Members []User `json:"members"`
}

// RoomLeftPayload acknowledges a leave to the caller
type RoomLeftPayload struct {
	Room string `json:"room"`
}

// RoomCreatedPayload acknowledges an explicit room creation
type RoomCreatedPayload struct {
	Room string `json:"room"`
}

// RoomsUpdatePayload is the broadcast room list snapshot
type RoomsUpdatePayload struct {
	Rooms []RoomInfo `json:"rooms"`
}

// NewMessagePayload wraps a chat message for fan-out
type NewMessagePayload struct {
	Message Message `json:"message"`
}

// ErrorPayload reports a caller-local failure
type ErrorPayload struct {
	Message string `json:"message"`
}
