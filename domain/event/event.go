package event

import (
	"cine-chat/domain"
	"time"
)

type Type string

const (
	TypeMessage Type = "MESSAGE"
	TypeJoin    Type = "JOIN"
	TypeLeave   Type = "LEAVE"
)

const SystemSender = "System"

// ChatEvent is what subscribers of a room topic receive.
// System notices carry no ID and are never persisted.
type ChatEvent struct {
	ID         string        `json:"id,omitempty"`
	Room       domain.RoomID `json:"roomId"`
	Type       Type          `json:"type"`
	SenderName string        `json:"senderName"`
	Content    string        `json:"content"`
	Timestamp  time.Time     `json:"timestamp"`
	IsSystem   bool          `json:"isSystem"`
}

func (e ChatEvent) RoomID() domain.RoomID {
	return e.Room
}

// MessagePosted builds the broadcast form of a persisted message.
func MessagePosted(m domain.Message, senderName string) ChatEvent {
	return ChatEvent{
		ID:         m.ID.String(),
		Room:       m.RoomID,
		Type:       TypeMessage,
		SenderName: senderName,
		Content:    m.Content,
		Timestamp:  m.CreatedAt,
	}
}

func ParticipantJoined(roomID domain.RoomID, displayName string, at time.Time) ChatEvent {
	return systemNotice(roomID, TypeJoin, displayName+" joined the room.", at)
}

func ParticipantLeft(roomID domain.RoomID, displayName string, at time.Time) ChatEvent {
	return systemNotice(roomID, TypeLeave, displayName+" left the room.", at)
}

func systemNotice(roomID domain.RoomID, t Type, content string, at time.Time) ChatEvent {
	return ChatEvent{
		Room:       roomID,
		Type:       t,
		SenderName: SystemSender,
		Content:    content,
		Timestamp:  at,
		IsSystem:   true,
	}
}
