package stomp

import (
	"cine-chat/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTopic(t *testing.T) {
	req := require.New(t)

	roomID, err := ParseTopic("/topic/chat/42")
	req.NoError(err)
	req.Equal(domain.RoomID(42), roomID)
	req.Equal("/topic/chat/42", Topic(roomID))

	for _, destination := range []string{"", "/topic/chat/", "/topic/chat/abc", "/topic/chat/0", "/topic/other/1", "/app/chat/1/send"} {
		_, err = ParseTopic(destination)
		req.Error(err, destination)
	}
}

func TestParseAppDestination(t *testing.T) {
	tests := []struct {
		destination string
		roomID      domain.RoomID
		action      Action
		valid       bool
	}{
		{"/app/chat/7/send", 7, ActionSend, true},
		{"/app/chat/7/join", 7, ActionJoin, true},
		{"/app/chat/7/leave", 7, ActionLeave, true},
		{"/app/chat/7/delete", 0, "", false},
		{"/app/chat/7", 0, "", false},
		{"/app/chat/x/send", 0, "", false},
		{"/app/chat/-1/send", 0, "", false},
		{"/topic/chat/7", 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.destination, func(t *testing.T) {
			req := require.New(t)
			roomID, action, err := ParseAppDestination(tt.destination)
			if !tt.valid {
				req.Error(err)
				return
			}
			req.NoError(err)
			req.Equal(tt.roomID, roomID)
			req.Equal(tt.action, action)
		})
	}
}
