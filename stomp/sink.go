package stomp

import (
	"cine-chat/domain/event"
	"context"
	"fmt"
)

var (
	ErrSlowConsumer  = fmt.Errorf("connection send buffer full")
	ErrSessionClosed = fmt.Errorf("session closed")
)

// Sink delivers the events of one subscription into its session's send buffer.
// It never blocks: a full buffer drops the event for this connection only.
type Sink struct {
	session        *session
	subscriptionID string
}

func (k Sink) Consume(ctx context.Context, e event.ChatEvent) error {
	f, err := messageFrame(k.subscriptionID, e)
	if err != nil {
		return err
	}
	payload, err := encode(f)
	if err != nil {
		return err
	}
	select {
	case <-k.session.quit:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case k.session.out <- outbound{payload: payload}:
		return nil
	default:
		k.session.log.Warn("Slow consumer, event dropped", "session_id", k.session.id, "room_id", e.RoomID())
		return ErrSlowConsumer
	}
}
