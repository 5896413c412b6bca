package registry

import (
	"errors"
	"testing"

	"github.com/mzalewski/pokoje/internal/domain"
)

func TestSessionRegistry_Register(t *testing.T) {
	r := NewSessionRegistry()

	user, err := r.Register("conn-1", "Ann")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID != "conn-1" {
		t.Errorf("Expected user ID conn-1, got %s", user.ID)
	}
	if user.Username != "Ann" {
		t.Errorf("Expected username Ann, got %s", user.Username)
	}
	if r.Count() != 1 {
		t.Errorf("Expected 1 registered user, got %d", r.Count())
	}
}

func TestSessionRegistry_RegisterNameTakenCaseInsensitive(t *testing.T) {
	r := NewSessionRegistry()

	if _, err := r.Register("conn-1", "Ann"); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}

	_, err := r.Register("conn-2", "ann")
	if !errors.Is(err, domain.ErrNameTaken) {
		t.Errorf("Expected ErrNameTaken for 'ann' after 'Ann', got %v", err)
	}

	if r.Count() != 1 {
		t.Errorf("Expected failed registration to leave no state, count = %d", r.Count())
	}
}

func TestSessionRegistry_NameFreeAfterRemove(t *testing.T) {
	r := NewSessionRegistry()

	r.Register("conn-1", "Ann")
	r.Remove("conn-1")

	if _, err := r.Register("conn-2", "ann"); err != nil {
		t.Errorf("Expected name to be free after removal, got %v", err)
	}
}

func TestSessionRegistry_Lookup(t *testing.T) {
	r := NewSessionRegistry()
	r.Register("conn-1", "Ann")

	user, ok := r.Lookup("conn-1")
	if !ok {
		t.Fatal("Expected to find registered user")
	}
	if user.Username != "Ann" {
		t.Errorf("Expected username Ann, got %s", user.Username)
	}

	if _, ok := r.Lookup("conn-unknown"); ok {
		t.Error("Expected no user for unknown connection")
	}
}

func TestSessionRegistry_RemoveIdempotent(t *testing.T) {
	r := NewSessionRegistry()
	r.Register("conn-1", "Ann")

	user, ok := r.Remove("conn-1")
	if !ok {
		t.Fatal("Expected first removal to return the user")
	}
	if user.Username != "Ann" {
		t.Errorf("Expected removed user Ann, got %s", user.Username)
	}

	if _, ok := r.Remove("conn-1"); ok {
		t.Error("Expected second removal to be a no-op returning absent")
	}
	if r.Count() != 0 {
		t.Errorf("Expected 0 users after removal, got %d", r.Count())
	}
}

func TestSessionRegistry_IsNameTaken(t *testing.T) {
	r := NewSessionRegistry()
	r.Register("conn-1", "Ann")

	if !r.IsNameTaken("ANN") {
		t.Error("Expected ANN to be taken (case-insensitive)")
	}
	if r.IsNameTaken("Bob") {
		t.Error("Expected Bob to be free")
	}
}
