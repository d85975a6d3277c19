package services

import (
	"cine-chat/contract"
	"cine-chat/domain"
	"cine-chat/domain/event"
	"cine-chat/errors"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// IChatService handles the three relay commands of an authenticated connection.
type IChatService interface {
	Send(ctx context.Context, conn domain.AuthenticatedConn, roomID domain.RoomID, content string) (event.ChatEvent, error)
	Join(ctx context.Context, conn domain.AuthenticatedConn, roomID domain.RoomID)
	Leave(ctx context.Context, conn domain.AuthenticatedConn, roomID domain.RoomID)
}

// ContentModerator masks banned words and reports which ones it found.
type ContentModerator interface {
	Censor(content string) (string, []string)
}

type ChatService struct {
	log               *slog.Logger
	rooms             IRoomService
	messages          contract.IMessageRepository
	broker            contract.IBroker
	requireMembership bool
	moderator         ContentModerator
	now               func() time.Time
}

func NewChatService(log *slog.Logger, rooms IRoomService, messages contract.IMessageRepository,
	broker contract.IBroker, requireMembership bool) *ChatService {
	return &ChatService{
		log:               log,
		rooms:             rooms,
		messages:          messages,
		broker:            broker,
		requireMembership: requireMembership,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// WithModerator makes Send store and broadcast the censored content.
func (s *ChatService) WithModerator(moderator ContentModerator) *ChatService {
	s.moderator = moderator
	return s
}

// Send validates, persists and publishes a message. On any error nothing
// is stored and nothing is broadcast.
func (s *ChatService) Send(ctx context.Context, conn domain.AuthenticatedConn, roomID domain.RoomID, content string) (event.ChatEvent, error) {
	if !conn.Valid() {
		return event.ChatEvent{}, errors.ErrUnauthorized
	}
	if err := domain.ValidateContent(content); err != nil {
		return event.ChatEvent{}, err
	}
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return event.ChatEvent{}, err
	}
	if !room.IsActive {
		return event.ChatEvent{}, fmt.Errorf("%w: %d", errors.ErrRoomInactive, roomID)
	}
	sender := conn.Identity.UserID
	if s.requireMembership && !room.HasParticipant(sender) {
		return event.ChatEvent{}, fmt.Errorf("%w: room %d", errors.ErrNotParticipant, roomID)
	}

	if s.moderator != nil {
		var words []string
		if content, words = s.moderator.Censor(content); len(words) > 0 {
			s.log.Info("Message censored", "room_id", roomID, "user_id", sender, "words", len(words))
		}
	}

	message, err := s.messages.Append(ctx, roomID, sender, content)
	if err != nil {
		return event.ChatEvent{}, err
	}
	evt := event.MessagePosted(message, domain.DisplayNameFor(room, sender))
	s.broker.Publish(evt)
	s.log.Debug("Message relayed", "room_id", roomID, "user_id", sender, "session_id", conn.SessionID)
	return evt, nil
}

// Join publishes a notice only when the membership was actually added.
// Refusals and failures are logged, never returned.
func (s *ChatService) Join(ctx context.Context, conn domain.AuthenticatedConn, roomID domain.RoomID) {
	if !conn.Valid() {
		s.log.Warn("Join without identity ignored", "room_id", roomID, "session_id", conn.SessionID)
		return
	}
	userID := conn.Identity.UserID
	joined, err := s.rooms.Join(ctx, roomID, userID)
	if err != nil {
		s.log.Warn("Join failed", "room_id", roomID, "user_id", userID, "error", err)
		return
	}
	if !joined {
		s.log.Warn("Join refused", "room_id", roomID, "user_id", userID)
		return
	}
	s.broker.Publish(event.ParticipantJoined(roomID, domain.Pseudonym(userID, roomID), s.now()))
}

// Leave names the participant as they were before leaving. A successful
// leave implies membership at that moment, so the label is never Unknown.
func (s *ChatService) Leave(ctx context.Context, conn domain.AuthenticatedConn, roomID domain.RoomID) {
	if !conn.Valid() {
		s.log.Warn("Leave without identity ignored", "room_id", roomID, "session_id", conn.SessionID)
		return
	}
	userID := conn.Identity.UserID
	displayName := domain.Pseudonym(userID, roomID)
	left, err := s.rooms.Leave(ctx, roomID, userID)
	if err != nil {
		s.log.Warn("Leave failed", "room_id", roomID, "user_id", userID, "error", err)
		return
	}
	if !left {
		s.log.Warn("Leave refused", "room_id", roomID, "user_id", userID)
		return
	}
	s.broker.Publish(event.ParticipantLeft(roomID, displayName, s.now()))
}
