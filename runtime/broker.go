package runtime

import (
	"cine-chat/contract"
	"cine-chat/domain"
	"cine-chat/domain/event"
	"log/slog"
)

// Broker is the in-process hub between the chat relay and the connections.
// Publish only enqueues; the EventFanout worker delivers.
type Broker struct {
	log      *slog.Logger
	registry contract.IRegistry
	events   chan event.ChatEvent
}

func NewBroker(log *slog.Logger, registry contract.IRegistry, bufferSize int) *Broker {
	return &Broker{
		log:      log,
		registry: registry,
		events:   make(chan event.ChatEvent, bufferSize),
	}
}

// Publish never blocks. A full queue drops the event.
func (b *Broker) Publish(evt event.ChatEvent) {
	select {
	case b.events <- evt:
	default:
		b.log.Warn("Broker queue full, event dropped", "room_id", evt.RoomID(), "type", evt.Type)
	}
}

func (b *Broker) Subscribe(key contract.SubscriptionKey, roomID domain.RoomID, sink contract.EventSink) {
	b.registry.Subscribe(key, roomID, sink)
	b.log.Debug("Subscribed", "session_id", key.SessionID, "subscription_id", key.SubscriptionID, "room_id", roomID)
}

func (b *Broker) Unsubscribe(key contract.SubscriptionKey) {
	b.registry.Unsubscribe(key)
	b.log.Debug("Unsubscribed", "session_id", key.SessionID, "subscription_id", key.SubscriptionID)
}

func (b *Broker) UnsubscribeSession(sessionID string) {
	b.registry.UnsubscribeSession(sessionID)
}

// Events is the queue drained by the fan-out worker.
func (b *Broker) Events() <-chan event.ChatEvent {
	return b.events
}

func (b *Broker) Registry() contract.IRegistry {
	return b.registry
}
