package domain

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"
)

const (
	UnknownDisplayName = "Unknown"
	anonymousLabel     = "Anonymous-"
	pseudonymSpace     = 999
)

// DisplayNameFor derives the room-scoped anonymous label of a member.
// Two members of the same room may share a label.
func DisplayNameFor(room Room, userID UserID) string {
	if !room.HasParticipant(userID) {
		return UnknownDisplayName
	}
	return Pseudonym(userID, room.ID)
}

// Pseudonym is the label without the membership check.
func Pseudonym(userID UserID, roomID RoomID) string {
	sum := blake3.Sum256([]byte(fmt.Sprintf("%d:%d", userID, roomID)))
	n := binary.BigEndian.Uint64(sum[:8])%pseudonymSpace + 1
	return fmt.Sprintf("%s%03d", anonymousLabel, n)
}
