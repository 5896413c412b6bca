// Package registry holds the two in-memory registries at the heart of the
// chat server: connection identities and room membership. Neither registry
// locks on its own; the chat dispatcher serializes every mutation of both
// behind a single mutex so that the dual-indexed membership views can never
// be observed out of sync.
package registry

import (
	"strings"

	"github.com/mzalewski/pokoje/internal/domain"
)

// SessionRegistry maps a live connection to its registered identity.
// It is the sole owner of user identities.
type SessionRegistry struct {
	users map[string]domain.User
}

// NewSessionRegistry creates an empty session registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		users: make(map[string]domain.User),
	}
}

// Register stores an identity for the connection. It fails with ErrNameTaken
// when another registered user holds the same name under case-insensitive
// comparison.
func (r *SessionRegistry) Register(connID, username string) (domain.User, error) {
	if r.IsNameTaken(username) {
		return domain.User{}, domain.ErrNameTaken
	}

	user := domain.User{ID: connID, Username: username}
	r.users[connID] = user
	return user, nil
}

// Lookup returns the identity registered for the connection, if any
func (r *SessionRegistry) Lookup(connID string) (domain.User, bool) {
	user, ok := r.users[connID]
	return user, ok
}

// Remove deletes and returns the identity for the connection. Removing an
// unknown connection is a no-op.
func (r *SessionRegistry) Remove(connID string) (domain.User, bool) {
	user, ok := r.users[connID]
	if ok {
		delete(r.users, connID)
	}
	return user, ok
}

// IsNameTaken reports whether any registered user holds the name,
// compared case-insensitively
func (r *SessionRegistry) IsNameTaken(username string) bool {
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

// Count returns the number of registered users
func (r *SessionRegistry) Count() int {
	return len(r.users)
}
