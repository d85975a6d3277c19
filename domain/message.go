// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxContentLength is counted in characters, not bytes.
const MaxContentLength = 500

// Message represents an immutable chat message.
type Message struct {
	ID        uuid.UUID
	RoomID    RoomID
	SenderID  UserID
	Content   string
	CreatedAt time.Time
}
