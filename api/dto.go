package api

import (
	"cine-chat/domain"
	"time"

	"github.com/samber/lo"
)

type CreateRoomRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"maxParticipants"`
}

type RoomResponse struct {
	ID               domain.RoomID `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	MaxParticipants  int           `json:"maxParticipants"`
	ParticipantCount int           `json:"participantCount"`
	IsActive         bool          `json:"isActive"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// RoomDetailResponse adds what the caller looks like inside the room.
type RoomDetailResponse struct {
	RoomResponse
	DisplayName   string `json:"displayName"`
	IsParticipant bool   `json:"isParticipant"`
}

type PageResponse[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toRoomResponse(room domain.Room) RoomResponse {
	return RoomResponse{
		ID:               room.ID,
		Name:             room.Name,
		Description:      room.Description,
		MaxParticipants:  room.MaxParticipants,
		ParticipantCount: room.Size(),
		IsActive:         room.IsActive,
		CreatedAt:        room.CreatedAt,
	}
}

func toRoomResponses(rooms []domain.Room) []RoomResponse {
	return lo.Map(rooms, func(room domain.Room, _ int) RoomResponse {
		return toRoomResponse(room)
	})
}

func toPage[T, R any](page domain.Page[T], mapper func(T) R) PageResponse[R] {
	return PageResponse[R]{
		Items: lo.Map(page.Items, func(item T, _ int) R {
			return mapper(item)
		}),
		NextCursor: page.NextCursor,
	}
}
