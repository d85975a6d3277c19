//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"cine-chat/domain"
	"cine-chat/domain/event"
	"context"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type IUserRepository interface {
	CreateUser(ctx context.Context, username string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
}

// IRoomRepository persists rooms and their membership.
// Join and Leave evaluate the guard and write in one atomic step.
type IRoomRepository interface {
	Create(ctx context.Context, room domain.NewRoom) (domain.Room, error)
	Get(ctx context.Context, id domain.RoomID) (domain.Room, error)
	ListActive(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Room], error)
	ListByMember(ctx context.Context, userID domain.UserID) ([]domain.Room, error)
	Join(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)
	Leave(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)
	Deactivate(ctx context.Context, roomID domain.RoomID) error
}

// IMessageRepository is append-only.
type IMessageRepository interface {
	Append(ctx context.Context, roomID domain.RoomID, senderID domain.UserID, content string) (domain.Message, error)
	PageByRoom(ctx context.Context, roomID domain.RoomID, page domain.PageRequest) (domain.Page[domain.Message], error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Message, error)
}

type EventSink interface {
	Consume(ctx context.Context, e event.ChatEvent) error
}

// SubscriptionKey identifies one STOMP subscription of one session.
type SubscriptionKey struct {
	SessionID      string
	SubscriptionID string
}

type IRegistry interface {
	GetSinksForRoom(roomID domain.RoomID) []EventSink
	Subscribe(key SubscriptionKey, roomID domain.RoomID, sink EventSink)
	Unsubscribe(key SubscriptionKey)
	UnsubscribeSession(sessionID string)
}

// IBroker is the in-process publish/subscribe hub keyed by room.
type IBroker interface {
	Publish(evt event.ChatEvent)
	Subscribe(key SubscriptionKey, roomID domain.RoomID, sink EventSink)
	Unsubscribe(key SubscriptionKey)
	UnsubscribeSession(sessionID string)
}
