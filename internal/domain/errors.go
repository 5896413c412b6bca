package domain

import "errors"

var (
	// ErrNameTaken is returned when a username is already registered.
	ErrNameTaken = errors.New("username already taken")

	// ErrRoomExists is returned when explicitly creating a room that exists.
	ErrRoomExists = errors.New("room already exists")

	// ErrUnknownRoom is returned when an operation targets a room that does not exist.
	ErrUnknownRoom = errors.New("unknown room")

	// ErrNotMember is returned when a connection acts on a room it does not belong to.
	ErrNotMember = errors.New("not a member of room")

	// ErrNotRegistered is returned when an unregistered connection sends a chat event.
	ErrNotRegistered = errors.New("connection not registered")

	// ErrAlreadyRegistered is returned when a registered connection registers again.
	ErrAlreadyRegistered = errors.New("connection already registered")
)
