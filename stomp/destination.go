package stomp

import (
	"cine-chat/domain"
	"fmt"
	"strconv"
	"strings"
)

const (
	topicPrefix = "/topic/chat/"
	appPrefix   = "/app/chat/"
)

type Action string

const (
	ActionSend  Action = "send"
	ActionJoin  Action = "join"
	ActionLeave Action = "leave"
)

// Topic returns the broadcast destination of a room.
func Topic(roomID domain.RoomID) string {
	return topicPrefix + strconv.FormatInt(int64(roomID), 10)
}

// ParseTopic reads "/topic/chat/{roomId}".
func ParseTopic(destination string) (domain.RoomID, error) {
	rest, ok := strings.CutPrefix(destination, topicPrefix)
	if !ok {
		return 0, fmt.Errorf("unknown destination %q", destination)
	}
	return parseRoomID(rest, destination)
}

// ParseAppDestination reads "/app/chat/{roomId}/{send|join|leave}".
func ParseAppDestination(destination string) (domain.RoomID, Action, error) {
	rest, ok := strings.CutPrefix(destination, appPrefix)
	if !ok {
		return 0, "", fmt.Errorf("unknown destination %q", destination)
	}
	room, action, ok := strings.Cut(rest, "/")
	if !ok {
		return 0, "", fmt.Errorf("unknown destination %q", destination)
	}
	roomID, err := parseRoomID(room, destination)
	if err != nil {
		return 0, "", err
	}
	switch Action(action) {
	case ActionSend, ActionJoin, ActionLeave:
		return roomID, Action(action), nil
	}
	return 0, "", fmt.Errorf("unknown destination %q", destination)
}

func parseRoomID(raw, destination string) (domain.RoomID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("unknown destination %q", destination)
	}
	return domain.RoomID(id), nil
}
