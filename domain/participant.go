// Package domain contains core concepts of the chat system.
// This file defines users and the identity bound to a connection.
package domain

import "time"

type User struct {
	ID        UserID
	Username  string
	CreatedAt time.Time
}

// Identity is what a validated token resolves to.
type Identity struct {
	UserID   UserID
	Username string
}

func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username}
}

// AuthenticatedConn is produced once per connection at handshake time
// and handed to every handler of that connection.
type AuthenticatedConn struct {
	SessionID string
	Identity  Identity
}

// Valid reports whether the connection carries a usable identity.
func (c AuthenticatedConn) Valid() bool {
	return c.Identity.UserID != 0 && c.Identity.Username != ""
}
