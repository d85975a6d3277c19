package workers

import (
	"cine-chat/contract"
	"cine-chat/domain/event"
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventFanout drains the broker queue and hands every event to the sinks
// subscribed to its room. Delivery is best effort: no retry, no durability.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.ChatEvent
	registry    contract.IRegistry
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, events <-chan event.ChatEvent, registry contract.IRegistry, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{log: log, events: events, registry: registry, sinkTimeout: sinkTimeout}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout gives each sink its own deadline and waits for all of them, so the
// next event starts only once this one was offered everywhere. One sink
// stalling costs the others at most sinkTimeout.
func (w *EventFanout) Fanout(ctx context.Context, evt event.ChatEvent) {
	sinks := w.registry.GetSinksForRoom(evt.RoomID())
	if len(sinks) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(s contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := s.Consume(sinkCtx, evt); err != nil {
				w.log.Debug("Sink refused event", "room_id", evt.RoomID(), "error", err)
			}
		}(sink)
	}
	wg.Wait()
}
