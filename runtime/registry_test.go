package runtime

import (
	"cine-chat/contract"
	"cine-chat/domain"
	"cine-chat/domain/event"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s Sink) Consume(ctx context.Context, e event.ChatEvent) error {
	return nil
}

func TestRegistry_Subscribe_One_Room_One_Subscription(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	key := contract.SubscriptionKey{SessionID: uuid.NewString(), SubscriptionID: "sub-0"}
	sink := Sink{name: "alice"}

	// Given an empty registry
	req.Nil(registry.GetSinksForRoom(1))

	// When a session subscribes a room
	registry.Subscribe(key, 1, sink)

	// Then
	req.Equal([]contract.EventSink{sink}, registry.GetSinksForRoom(1))
	req.Nil(registry.GetSinksForRoom(2))
}

func TestRegistry_Same_Session_Two_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	first := contract.SubscriptionKey{SessionID: sessionID, SubscriptionID: "sub-0"}
	second := contract.SubscriptionKey{SessionID: sessionID, SubscriptionID: "sub-1"}

	registry.Subscribe(first, 1, Sink{name: "one"})
	registry.Subscribe(second, 2, Sink{name: "two"})

	req.Len(registry.GetSinksForRoom(1), 1)
	req.Len(registry.GetSinksForRoom(2), 1)

	// When only the first subscription is removed
	registry.Unsubscribe(first)

	// Then the other room keeps receiving
	req.Nil(registry.GetSinksForRoom(1))
	req.Len(registry.GetSinksForRoom(2), 1)
	req.Empty(registry.rooms[1])
}

func TestRegistry_Resubscribe_Moves_Key(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	key := contract.SubscriptionKey{SessionID: "s", SubscriptionID: "sub-0"}

	registry.Subscribe(key, 1, Sink{name: "a"})
	registry.Subscribe(key, 2, Sink{name: "b"})

	req.Nil(registry.GetSinksForRoom(1))
	req.Equal([]contract.EventSink{Sink{name: "b"}}, registry.GetSinksForRoom(2))
}

func TestRegistry_Unsubscribe_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Subscribe(contract.SubscriptionKey{SessionID: "gone", SubscriptionID: "a"}, 1, Sink{name: "gone-a"})
	registry.Subscribe(contract.SubscriptionKey{SessionID: "gone", SubscriptionID: "b"}, 2, Sink{name: "gone-b"})
	registry.Subscribe(contract.SubscriptionKey{SessionID: "stay", SubscriptionID: "a"}, 1, Sink{name: "stay"})

	registry.UnsubscribeSession("gone")

	req.Equal([]contract.EventSink{Sink{name: "stay"}}, registry.GetSinksForRoom(domain.RoomID(1)))
	req.Nil(registry.GetSinksForRoom(2))
	req.Len(registry.subscriptions, 1)

	// Unknown keys are ignored
	registry.Unsubscribe(contract.SubscriptionKey{SessionID: "nobody"})
	registry.UnsubscribeSession("nobody")
}

func TestRegistry_Sinks_Ordered_By_Key(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Subscribe(contract.SubscriptionKey{SessionID: "b", SubscriptionID: "1"}, 1, Sink{name: "b1"})
	registry.Subscribe(contract.SubscriptionKey{SessionID: "a", SubscriptionID: "2"}, 1, Sink{name: "a2"})
	registry.Subscribe(contract.SubscriptionKey{SessionID: "a", SubscriptionID: "1"}, 1, Sink{name: "a1"})

	req.Equal([]contract.EventSink{Sink{name: "a1"}, Sink{name: "a2"}, Sink{name: "b1"}}, registry.GetSinksForRoom(1))
}
