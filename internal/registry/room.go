package registry

import (
	"sort"

	"github.com/mzalewski/pokoje/internal/domain"
)

// RoomRegistry tracks room membership in two directions at once: the member
// set of every room, and the set of rooms every connection has joined. Every
// mutation updates both views, so a connection id appears in a room's member
// set exactly when that room appears in the connection's joined set.
type RoomRegistry struct {
	sessions *SessionRegistry

	// room name -> member connection ids
	members map[string]map[string]struct{}
	// connection id -> joined room names
	joined map[string]map[string]struct{}
}

// NewRoomRegistry creates a registry holding only the default room.
// Member display names are resolved through the given session registry.
func NewRoomRegistry(sessions *SessionRegistry) *RoomRegistry {
	r := &RoomRegistry{
		sessions: sessions,
		members:  make(map[string]map[string]struct{}),
		joined:   make(map[string]map[string]struct{}),
	}
	r.EnsureRoom(domain.DefaultRoom)
	return r
}

// EnsureRoom creates the room with an empty member set if absent
func (r *RoomRegistry) EnsureRoom(name string) {
	if _, ok := r.members[name]; !ok {
		r.members[name] = make(map[string]struct{})
	}
}

// CreateRoom creates the room and reports true, or reports false without
// side effects when the room already exists
func (r *RoomRegistry) CreateRoom(name string) bool {
	if _, ok := r.members[name]; ok {
		return false
	}
	r.members[name] = make(map[string]struct{})
	return true
}

// Join adds the connection to the room, creating the room if unknown.
// Joining a room the connection already belongs to changes nothing.
func (r *RoomRegistry) Join(connID, room string) {
	r.EnsureRoom(room)
	r.members[room][connID] = struct{}{}

	if _, ok := r.joined[connID]; !ok {
		r.joined[connID] = make(map[string]struct{})
	}
	r.joined[connID][room] = struct{}{}
}

// Leave removes the connection from both membership views. A non-default
// room left empty is deleted before Leave returns, so no empty room is ever
// observable afterwards.
func (r *RoomRegistry) Leave(connID, room string) {
	if set, ok := r.members[room]; ok {
		delete(set, connID)
		if len(set) == 0 && room != domain.DefaultRoom {
			delete(r.members, room)
		}
	}
	if set, ok := r.joined[connID]; ok {
		delete(set, room)
		if len(set) == 0 {
			delete(r.joined, connID)
		}
	}
}

// IsMember reports whether the connection belongs to the room
func (r *RoomRegistry) IsMember(connID, room string) bool {
	set, ok := r.members[room]
	if !ok {
		return false
	}
	_, ok = set[connID]
	return ok
}

// Exists reports whether the room exists
func (r *RoomRegistry) Exists(room string) bool {
	_, ok := r.members[room]
	return ok
}

// RoomsOf returns the names of the rooms the connection belongs to,
// sorted for stable output. Unknown connections yield an empty slice.
func (r *RoomRegistry) RoomsOf(connID string) []string {
	set := r.joined[connID]
	rooms := make([]string, 0, len(set))
	for name := range set {
		rooms = append(rooms, name)
	}
	sort.Strings(rooms)
	return rooms
}

// MembersOf resolves the room's member ids to users through the session
// registry. Ids without an identity are dropped silently; they belong to
// connections mid-teardown.
func (r *RoomRegistry) MembersOf(room string) []domain.User {
	set, ok := r.members[room]
	if !ok {
		return []domain.User{}
	}

	users := make([]domain.User, 0, len(set))
	for id := range set {
		if user, ok := r.sessions.Lookup(id); ok {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

// MemberIDs returns the raw connection ids in the room
func (r *RoomRegistry) MemberIDs(room string) []string {
	set := r.members[room]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// ListRooms returns a snapshot of every room with its live member count,
// sorted by name
func (r *RoomRegistry) ListRooms() []domain.RoomInfo {
	rooms := make([]domain.RoomInfo, 0, len(r.members))
	for name, set := range r.members {
		rooms = append(rooms, domain.RoomInfo{Name: name, Users: len(set)})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms
}
