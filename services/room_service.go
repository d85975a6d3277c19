package services

import (
	"cine-chat/contract"
	"cine-chat/domain"
	"cine-chat/domain/event"
	"cine-chat/errors"
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

type IRoomService interface {
	Create(ctx context.Context, newRoom domain.NewRoom) (domain.Room, error)
	Get(ctx context.Context, roomID domain.RoomID) (domain.Room, error)
	ListActive(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Room], error)
	ListForMember(ctx context.Context, userID domain.UserID) ([]domain.Room, error)
	Join(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)
	Leave(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)
	Deactivate(ctx context.Context, roomID domain.RoomID) error
	History(ctx context.Context, roomID domain.RoomID, userID domain.UserID, page domain.PageRequest) (domain.Page[event.ChatEvent], error)
	DisplayName(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (string, error)
}

// RoomService is the Room Directory. Membership is always read from the
// repository, never from a cache.
type RoomService struct {
	log      *slog.Logger
	rooms    contract.IRoomRepository
	messages contract.IMessageRepository
	pageSize int
}

func NewRoomService(log *slog.Logger, rooms contract.IRoomRepository, messages contract.IMessageRepository, pageSize int) *RoomService {
	return &RoomService{log: log, rooms: rooms, messages: messages, pageSize: pageSize}
}

func (s *RoomService) Create(ctx context.Context, newRoom domain.NewRoom) (domain.Room, error) {
	newRoom = newRoom.WithDefaults()
	if err := newRoom.Validate(); err != nil {
		return domain.Room{}, err
	}
	room, err := s.rooms.Create(ctx, newRoom)
	if err != nil {
		return domain.Room{}, err
	}
	s.log.Info("Room created", "room_id", room.ID, "user_id", room.CreatedBy)
	return room, nil
}

func (s *RoomService) Get(ctx context.Context, roomID domain.RoomID) (domain.Room, error) {
	return s.rooms.Get(ctx, roomID)
}

func (s *RoomService) ListActive(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Room], error) {
	return s.rooms.ListActive(ctx, page.Normalize(s.pageSize))
}

func (s *RoomService) ListForMember(ctx context.Context, userID domain.UserID) ([]domain.Room, error) {
	return s.rooms.ListByMember(ctx, userID)
}

// Join returns false, without error, when the room is inactive, full or
// already holds the user. A missing room is an error.
func (s *RoomService) Join(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	return s.rooms.Join(ctx, roomID, userID)
}

func (s *RoomService) Leave(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	return s.rooms.Leave(ctx, roomID, userID)
}

func (s *RoomService) Deactivate(ctx context.Context, roomID domain.RoomID) error {
	if err := s.rooms.Deactivate(ctx, roomID); err != nil {
		return err
	}
	s.log.Info("Room deactivated", "room_id", roomID)
	return nil
}

// History pages the stored messages of a room, newest first, in the
// broadcast shape. Senders are named against the current membership.
func (s *RoomService) History(ctx context.Context, roomID domain.RoomID, userID domain.UserID, page domain.PageRequest) (domain.Page[event.ChatEvent], error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return domain.Page[event.ChatEvent]{}, err
	}
	if !room.HasParticipant(userID) {
		return domain.Page[event.ChatEvent]{}, fmt.Errorf("%w: room %d", errors.ErrNotParticipant, roomID)
	}
	messages, err := s.messages.PageByRoom(ctx, roomID, page.Normalize(s.pageSize))
	if err != nil {
		return domain.Page[event.ChatEvent]{}, err
	}
	return domain.Page[event.ChatEvent]{
		Items: lo.Map(messages.Items, func(m domain.Message, _ int) event.ChatEvent {
			return event.MessagePosted(m, domain.DisplayNameFor(room, m.SenderID))
		}),
		NextCursor: messages.NextCursor,
	}, nil
}

func (s *RoomService) DisplayName(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (string, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return "", err
	}
	return domain.DisplayNameFor(room, userID), nil
}
