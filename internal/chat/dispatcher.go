// Package chat implements the event protocol of the server: it receives
// named events per connection, validates them against the session and room
// registries, mutates the registries, and emits the resulting events back
// through the transport.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mzalewski/pokoje/internal/domain"
	"github.com/mzalewski/pokoje/internal/registry"
)

// Emitter is the outbound side of the transport. Emit delivers one event to
// one connection, Broadcast to every open connection. Implementations must
// not block; the dispatcher calls them while holding its lock.
type Emitter interface {
	Emit(connID string, event domain.EventType, payload interface{})
	Broadcast(event domain.EventType, payload interface{})
}

// User-visible announcement strings
const (
	msgJoinedRoom = "%s dołączył do pokoju"
	msgLeftRoom   = "%s opuścił pokój"

	errMsgNameTaken  = "Nick jest już zajęty"
	errMsgRoomExists = "Pokój już istnieje"
	errMsgRegistered = "Jesteś już zarejestrowany"
)

// Dispatcher is the state machine of the chat protocol. All state lives in
// the two registries; the dispatcher's mutex is the single serialization
// domain guarding both, so join/leave always update the two membership views
// inside one critical section.
type Dispatcher struct {
	mu       sync.Mutex
	sessions *registry.SessionRegistry
	rooms    *registry.RoomRegistry
	emitter  Emitter
	seq      uint64
}

// NewDispatcher creates a dispatcher with fresh registries. The default
// room exists from the start.
func NewDispatcher(emitter Emitter) *Dispatcher {
	sessions := registry.NewSessionRegistry()
	return &Dispatcher{
		sessions: sessions,
		rooms:    registry.NewRoomRegistry(sessions),
		emitter:  emitter,
	}
}

// HandleEvent decodes and routes one inbound event for the connection.
// Malformed payloads and unknown event names are dropped.
func (d *Dispatcher) HandleEvent(connID string, env domain.Envelope) {
	switch env.Type {
	case domain.EventRegister:
		var p domain.RegisterPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		d.Register(connID, p)

	case domain.EventCreateRoom:
		var p domain.CreateRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		d.CreateRoom(connID, p)

	case domain.EventSendMessage:
		var p domain.SendMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		d.SendMessage(connID, p)

	case domain.EventSendImage:
		var p domain.SendImagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		d.SendImage(connID, p)

	case domain.EventTyping:
		var p domain.RoomRefPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		d.Typing(connID, p)

	case domain.EventStopTyping:
		var p domain.RoomRefPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		d.StopTyping(connID, p)

	case domain.EventJoinRoom:
		var p domain.JoinRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		d.JoinRoom(connID, p)

	case domain.EventLeaveRoom:
		var p domain.RoomRefPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		d.LeaveRoom(connID, p)
	}
}

// Register creates an identity for the connection and joins it to the
// requested room (default "main"). A taken name is reported back to the
// caller only.
func (d *Dispatcher) Register(connID string, p domain.RegisterPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sessions.Lookup(connID); ok {
		d.emitError(connID, domain.ErrAlreadyRegistered)
		return
	}

	username := strings.TrimSpace(p.Username)
	if username == "" {
		return
	}

	user, err := d.sessions.Register(connID, username)
	if err != nil {
		d.emitError(connID, err)
		return
	}

	room := p.Room
	if room == "" {
		room = domain.DefaultRoom
	}
	d.rooms.Join(connID, room)

	members := d.rooms.MembersOf(room)

	d.emitter.Emit(connID, domain.EventRegistered, domain.RegisteredPayload{
		User:     user,
		Room:     room,
		Members:  members,
		AllRooms: d.rooms.ListRooms(),
	})

	d.emitToRoomExcept(room, connID, domain.EventUserJoined, domain.UserEventPayload{
		User:    user,
		Message: fmt.Sprintf(msgJoinedRoom, user.Username),
		Members: members,
	})

	d.broadcastRoomList()
}

// CreateRoom creates a room explicitly without joining it. An existing name
// is an error to the caller; everyone else only sees the room list change.
func (d *Dispatcher) CreateRoom(connID string, p domain.CreateRoomPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sessions.Lookup(connID); !ok {
		return
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return
	}

	if !d.rooms.CreateRoom(name) {
		d.emitError(connID, domain.ErrRoomExists)
		return
	}

	d.broadcastRoomList()
	d.emitter.Emit(connID, domain.EventRoomCreated, domain.RoomCreatedPayload{Room: name})
}

// SendMessage fans a text message out to every member of the room. Sending
// to a room the caller is not a member of is a silent no-op.
func (d *Dispatcher) SendMessage(connID string, p domain.SendMessagePayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliverMessage(connID, p.Room, p.Text, false, "")
}

// SendImage fans an image message out to every member of the room. The
// transport bounds the image size via its read limit.
func (d *Dispatcher) SendImage(connID string, p domain.SendImagePayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliverMessage(connID, p.Room, p.Text, true, p.Image)
}

// deliverMessage builds and fans out one message while holding the lock.
// Sending to a room the caller is not in is a silent no-op.
func (d *Dispatcher) deliverMessage(connID, room, text string, hasImage bool, image string) {
	user, err := d.memberUser(connID, room)
	if err != nil {
		return
	}

	d.seq++
	msg := domain.Message{
		ID:        strconv.FormatUint(d.seq, 10),
		User:      user,
		Room:      room,
		Text:      text,
		Timestamp: time.Now(),
		HasImage:  hasImage,
		ImageData: image,
	}

	d.emitToRoom(room, domain.EventNewMessage, domain.NewMessagePayload{Message: msg})
}

// Typing notifies room peers that the caller started typing
func (d *Dispatcher) Typing(connID string, p domain.RoomRefPayload) {
	d.notifyTyping(connID, p.Room, domain.EventUserTyping)
}

// StopTyping notifies room peers that the caller stopped typing
func (d *Dispatcher) StopTyping(connID string, p domain.RoomRefPayload) {
	d.notifyTyping(connID, p.Room, domain.EventUserStopTyping)
}

func (d *Dispatcher) notifyTyping(connID, room string, event domain.EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, err := d.memberUser(connID, room)
	if err != nil {
		return
	}

	d.emitToRoomExcept(room, connID, event, domain.TypingPayload{Username: user.Username})
}

// JoinRoom adds the caller to the room, creating it when unknown. The caller
// always gets a room_joined acknowledgment; peers are announced to only when
// the membership is new.
func (d *Dispatcher) JoinRoom(connID string, p domain.JoinRoomPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.sessions.Lookup(connID)
	if !ok {
		return
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return
	}

	if !d.rooms.IsMember(connID, name) {
		d.rooms.Join(connID, name)

		d.emitToRoomExcept(name, connID, domain.EventUserJoined, domain.UserEventPayload{
			User:    user,
			Message: fmt.Sprintf(msgJoinedRoom, user.Username),
			Members: d.rooms.MembersOf(name),
		})

		d.broadcastRoomList()
	}

	d.emitter.Emit(connID, domain.EventRoomJoined, domain.RoomJoinedPayload{
		Room:    name,
		Members: d.rooms.MembersOf(name),
	})
}

// LeaveRoom removes the caller from the room. Leaving a room the caller is
// not a member of is a silent no-op.
func (d *Dispatcher) LeaveRoom(connID string, p domain.RoomRefPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, err := d.memberUser(connID, p.Room)
	if err != nil {
		return
	}

	d.rooms.Leave(connID, p.Room)

	d.emitToRoom(p.Room, domain.EventUserLeft, domain.UserEventPayload{
		User:    user,
		Message: fmt.Sprintf(msgLeftRoom, user.Username),
		Members: d.rooms.MembersOf(p.Room),
	})

	d.emitter.Emit(connID, domain.EventRoomLeft, domain.RoomLeftPayload{Room: p.Room})
	d.broadcastRoomList()
}

// Disconnect runs the transport-initiated cleanup: the connection leaves
// every room it belonged to and its identity is removed, all inside one
// critical section so partial cleanup is never observable.
func (d *Dispatcher) Disconnect(connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.sessions.Lookup(connID)
	if !ok {
		return
	}

	for _, room := range d.rooms.RoomsOf(connID) {
		d.rooms.Leave(connID, room)

		d.emitToRoom(room, domain.EventUserLeft, domain.UserEventPayload{
			User:    user,
			Message: fmt.Sprintf(msgLeftRoom, user.Username),
			Members: d.rooms.MembersOf(room),
		})
	}

	d.sessions.Remove(connID)
	d.broadcastRoomList()
}

// Rooms returns a snapshot of the room list
func (d *Dispatcher) Rooms() []domain.RoomInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rooms.ListRooms()
}

// RoomsOf returns the rooms the connection currently belongs to
func (d *Dispatcher) RoomsOf(connID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rooms.RoomsOf(connID)
}

// memberUser validates that the connection is registered and belongs to the
// room. Caller must hold d.mu. The distinct sentinels let callers decide
// between silent no-op and an error event.
func (d *Dispatcher) memberUser(connID, room string) (domain.User, error) {
	user, ok := d.sessions.Lookup(connID)
	if !ok {
		return domain.User{}, domain.ErrNotRegistered
	}
	if room == "" || !d.rooms.Exists(room) {
		return user, domain.ErrUnknownRoom
	}
	if !d.rooms.IsMember(connID, room) {
		return user, domain.ErrNotMember
	}
	return user, nil
}

// emitError reports a caller-local failure to the offending connection only
func (d *Dispatcher) emitError(connID string, err error) {
	var message string
	switch {
	case errors.Is(err, domain.ErrNameTaken):
		message = errMsgNameTaken
	case errors.Is(err, domain.ErrRoomExists):
		message = errMsgRoomExists
	case errors.Is(err, domain.ErrAlreadyRegistered):
		message = errMsgRegistered
	default:
		message = err.Error()
	}
	d.emitter.Emit(connID, domain.EventError, domain.ErrorPayload{Message: message})
}

// emitToRoom delivers an event to every member of the room.
// Caller must hold d.mu.
func (d *Dispatcher) emitToRoom(room string, event domain.EventType, payload interface{}) {
	for _, id := range d.rooms.MemberIDs(room) {
		d.emitter.Emit(id, event, payload)
	}
}

// emitToRoomExcept delivers an event to every member of the room but one.
// Caller must hold d.mu.
func (d *Dispatcher) emitToRoomExcept(room, except string, event domain.EventType, payload interface{}) {
	for _, id := range d.rooms.MemberIDs(room) {
		if id != except {
			d.emitter.Emit(id, event, payload)
		}
	}
}

// broadcastRoomList pushes the current room list to every connection.
// Caller must hold d.mu.
func (d *Dispatcher) broadcastRoomList() {
	d.emitter.Broadcast(domain.EventRoomsUpdate, domain.RoomsUpdatePayload{Rooms: d.rooms.ListRooms()})
}
