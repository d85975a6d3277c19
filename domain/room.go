// Package domain contains core concepts of the chat system.
// This file defines the Room aggregate and its membership rules.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"slices"
	"time"
)

type RoomID int64

type UserID int64

const (
	DefaultMaxParticipants = 50
	MinParticipants        = 2
	MaxParticipants        = 100
)

// Room is a capacity-bounded chat room.
// CreatedBy is informational only and confers no privilege.
type Room struct {
	ID              RoomID
	Name            string
	Description     string
	MaxParticipants int
	IsActive        bool
	CreatedBy       UserID
	CreatedAt       time.Time
	Participants    map[UserID]struct{}
}

// NewRoom is the creation request for a Room.
type NewRoom struct {
	Name            string `validate:"notblank,min=2,max=100"`
	Description     string `validate:"max=255"`
	MaxParticipants int    `validate:"min=2,max=100"`
	CreatedBy       UserID `validate:"required"`
}

func (r *Room) Size() int {
	return len(r.Participants)
}

func (r *Room) HasParticipant(userID UserID) bool {
	_, ok := r.Participants[userID]
	return ok
}

// CanJoin holds when the room is active, not full and the user is not already in.
func (r *Room) CanJoin(userID UserID) bool {
	return r.IsActive &&
		r.Size() < r.MaxParticipants &&
		!r.HasParticipant(userID)
}

// Join adds the user when CanJoin holds. It reports whether the room changed.
func (r *Room) Join(userID UserID) bool {
	if !r.CanJoin(userID) {
		return false
	}
	if r.Participants == nil {
		r.Participants = make(map[UserID]struct{})
	}
	r.Participants[userID] = struct{}{}
	return true
}

// Leave removes the user from an active room. It reports whether the room changed.
func (r *Room) Leave(userID UserID) bool {
	if !r.IsActive || !r.HasParticipant(userID) {
		return false
	}
	delete(r.Participants, userID)
	return true
}

// ParticipantIDs returns the members in ascending order.
func (r *Room) ParticipantIDs() []UserID {
	ids := make([]UserID, 0, len(r.Participants))
	for id := range r.Participants {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
