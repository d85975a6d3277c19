package runtime

import (
	"cine-chat/contract"
	"cine-chat/domain"
	"cine-chat/domain/event"
	"cine-chat/mocks"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestBroker_Publish_Enqueues(t *testing.T) {
	req := require.New(t)
	broker := NewBroker(logs.GetLoggerFromLevel(slog.LevelDebug), NewRegistry(), 2)

	evt := event.ParticipantJoined(3, "Anonymous-001", time.Now())
	broker.Publish(evt)

	select {
	case got := <-broker.Events():
		req.Equal(evt, got)
	default:
		req.Fail("event should be queued")
	}
}

func TestBroker_Publish_Drops_When_Full(t *testing.T) {
	req := require.New(t)
	broker := NewBroker(logs.GetLoggerFromLevel(slog.LevelDebug), NewRegistry(), 1)

	first := event.ParticipantJoined(1, "Anonymous-001", time.Now())
	second := event.ParticipantLeft(1, "Anonymous-001", time.Now())

	done := make(chan struct{})
	go func() {
		broker.Publish(first)
		broker.Publish(second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Publish must not block")
	}
	req.Equal(first, <-broker.Events())
	req.Empty(broker.Events())
}

func TestBroker_Delegates_Subscriptions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)
	key := contract.SubscriptionKey{SessionID: "s1", SubscriptionID: "sub-0"}

	registry.EXPECT().Subscribe(key, domain.RoomID(7), sink).Times(1)
	registry.EXPECT().Unsubscribe(key).Times(1)
	registry.EXPECT().UnsubscribeSession("s1").Times(1)

	broker := NewBroker(logs.GetLoggerFromLevel(slog.LevelDebug), registry, 1)
	broker.Subscribe(key, 7, sink)
	broker.Unsubscribe(key)
	broker.UnsubscribeSession("s1")
}
