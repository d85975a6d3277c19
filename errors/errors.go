package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized   = fmt.Errorf("unauthorized")
	ErrInvalidToken   = fmt.Errorf("invalid or expired token")
	ErrWeakSecret     = fmt.Errorf("signing secret must be at least 32 bytes")
	ErrUserNotFound   = fmt.Errorf("user not found")
	ErrUserExists     = fmt.Errorf("user already exists")
	ErrInvalidContent = fmt.Errorf("invalid message content")
	ErrInvalidRoom    = fmt.Errorf("invalid room")
	ErrRoomNotFound   = fmt.Errorf("room not found")
	ErrRoomNameTaken  = fmt.Errorf("room name already in use")
	ErrRoomInactive   = fmt.Errorf("room is not active")
	ErrRoomFull       = fmt.Errorf("room is full")
	ErrAlreadyJoined  = fmt.Errorf("already a participant")
	ErrNotParticipant = fmt.Errorf("not a participant of this room")
	ErrWorkerPanic    = fmt.Errorf("worker panicked")
)

// public lists the errors whose text may be shown to a client.
var public = []error{
	ErrUnauthorized,
	ErrInvalidToken,
	ErrUserNotFound,
	ErrInvalidContent,
	ErrInvalidRoom,
	ErrRoomNotFound,
	ErrRoomNameTaken,
	ErrRoomInactive,
	ErrRoomFull,
	ErrAlreadyJoined,
	ErrNotParticipant,
}

// PublicMessage returns the text safe to send back over the wire.
// Storage and transport failures collapse into a generic message.
func PublicMessage(err error) string {
	for _, e := range public {
		if stderrors.Is(err, e) {
			return e.Error()
		}
	}
	return "internal error"
}

// HTTPStatus maps a service error onto a REST status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrUnauthorized), stderrors.Is(err, ErrInvalidToken), stderrors.Is(err, ErrUserNotFound):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrNotParticipant):
		return http.StatusForbidden
	case stderrors.Is(err, ErrInvalidContent), stderrors.Is(err, ErrInvalidRoom):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrRoomNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrRoomNameTaken), stderrors.Is(err, ErrRoomInactive), stderrors.Is(err, ErrUserExists),
		stderrors.Is(err, ErrRoomFull), stderrors.Is(err, ErrAlreadyJoined):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
