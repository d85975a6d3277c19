package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newActiveRoom(max int) Room {
	return Room{ID: 1, Name: "R1", MaxParticipants: max, IsActive: true}
}

func TestRoom_Capacity_Scenario(t *testing.T) {
	req := require.New(t)
	room := newActiveRoom(2)
	a, b, c := UserID(1), UserID(2), UserID(3)

	// Given A and B join a room of two
	req.True(room.Join(a))
	req.Equal(1, room.Size())
	req.True(room.Join(b))
	req.Equal(2, room.Size())

	// When C tries to join a full room
	// Then nothing changes
	req.False(room.Join(c))
	req.Equal(2, room.Size())

	// When A leaves, C can join
	req.True(room.Leave(a))
	req.Equal(1, room.Size())
	req.True(room.Join(c))
	req.Equal(2, room.Size())
}

func TestRoom_Join_Twice_Is_NoOp(t *testing.T) {
	req := require.New(t)
	room := newActiveRoom(5)

	req.True(room.Join(7))
	req.False(room.Join(7))
	req.Equal(1, room.Size())
}

func TestRoom_Leave_When_Absent_Is_NoOp(t *testing.T) {
	req := require.New(t)
	room := newActiveRoom(5)

	req.False(room.Leave(7))
	req.Equal(0, room.Size())
}

func TestRoom_Inactive_Refuses_Join_And_Leave(t *testing.T) {
	req := require.New(t)
	room := newActiveRoom(5)
	req.True(room.Join(1))

	// When the room is deactivated
	room.IsActive = false

	// Then membership is frozen
	req.False(room.CanJoin(2))
	req.False(room.Join(2))
	req.False(room.Leave(1))
	req.Equal(1, room.Size())
}

// Two callers evaluating CanJoin on their own snapshot before either writes
// both see a free seat. Writing into a shared membership table then overshoots.
func TestRoom_CheckThenAct_On_Snapshots_Overshoots(t *testing.T) {
	req := require.New(t)
	stored := newActiveRoom(2)
	req.True(stored.Join(1))

	var (
		mu         sync.Mutex
		membership = map[UserID]struct{}{1: {}}
		checked    sync.WaitGroup
		done       sync.WaitGroup
	)
	checked.Add(2)
	done.Add(2)
	for _, user := range []UserID{2, 3} {
		go func(user UserID) {
			defer done.Done()
			snapshot := Room{MaxParticipants: stored.MaxParticipants, IsActive: true,
				Participants: map[UserID]struct{}{1: {}}}
			ok := snapshot.CanJoin(user)
			checked.Done()
			checked.Wait()
			if ok {
				mu.Lock()
				membership[user] = struct{}{}
				mu.Unlock()
			}
		}(user)
	}
	done.Wait()

	req.Len(membership, 3)
	req.Greater(len(membership), stored.MaxParticipants)
}

func TestRoom_ParticipantIDs_Sorted(t *testing.T) {
	req := require.New(t)
	room := newActiveRoom(10)
	for _, id := range []UserID{9, 3, 5} {
		req.True(room.Join(id))
	}
	req.Equal([]UserID{3, 5, 9}, room.ParticipantIDs())
}
