package registry

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mzalewski/pokoje/internal/domain"
)

// membershipOp is one random step applied to the room registry
type membershipOp struct {
	Join bool
	Conn int
	Room int
}

// checkConsistency verifies that the two membership views agree: a connection
// appears in a room's member set exactly when the room appears in the
// connection's joined set, no room except the default one is ever empty, and
// the default room always exists.
func checkConsistency(rooms *RoomRegistry, connIDs []string) error {
	if !rooms.Exists(domain.DefaultRoom) {
		return fmt.Errorf("default room missing")
	}

	for _, info := range rooms.ListRooms() {
		if info.Users == 0 && info.Name != domain.DefaultRoom {
			return fmt.Errorf("room %q observed empty and existing", info.Name)
		}
		for _, id := range rooms.MemberIDs(info.Name) {
			found := false
			for _, joined := range rooms.RoomsOf(id) {
				if joined == info.Name {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("conn %s in members of %q but %q not in its joined set", id, info.Name, info.Name)
			}
		}
	}

	for _, id := range connIDs {
		for _, joined := range rooms.RoomsOf(id) {
			if !rooms.IsMember(id, joined) {
				return fmt.Errorf("conn %s lists %q but is not in its member set", id, joined)
			}
		}
	}

	return nil
}

// Property: for any sequence of join/leave operations, the per-room and
// per-connection membership views stay mutually consistent at every step.
func TestRoomRegistryConsistencyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	connIDs := []string{"conn-0", "conn-1", "conn-2", "conn-3", "conn-4"}
	roomNames := []string{domain.DefaultRoom, "lobby", "games", "random", "pokoj-5"}

	opGen := gen.Struct(reflect.TypeOf(membershipOp{}), map[string]gopter.Gen{
		"Join": gen.Bool(),
		"Conn": gen.IntRange(0, len(connIDs)-1),
		"Room": gen.IntRange(0, len(roomNames)-1),
	})

	properties.Property("membership views stay bidirectionally consistent", prop.ForAll(
		func(ops []membershipOp) bool {
			_, rooms := newTestRegistries()

			for _, op := range ops {
				if op.Join {
					rooms.Join(connIDs[op.Conn], roomNames[op.Room])
				} else {
					rooms.Leave(connIDs[op.Conn], roomNames[op.Room])
				}

				if err := checkConsistency(rooms, connIDs); err != nil {
					t.Logf("consistency violated: %v", err)
					return false
				}
			}
			return true
		},
		gen.SliceOf(opGen),
	))

	properties.TestingRun(t)
}
