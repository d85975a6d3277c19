package stomp

import (
	"bytes"
	"cine-chat/domain/event"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func bareSession(buffer int) *session {
	return &session{
		id:   "s1",
		log:  logs.GetLoggerFromLevel(slog.LevelDebug),
		out:  make(chan outbound, buffer),
		quit: make(chan struct{}),
	}
}

func TestSink_Consume_Enqueues_Message_Frame(t *testing.T) {
	req := require.New(t)
	sess := bareSession(1)
	sink := Sink{session: sess, subscriptionID: "sub-0"}
	evt := event.ParticipantJoined(5, "Anonymous-123", time.Now().UTC())

	req.NoError(sink.Consume(context.Background(), evt))

	o := <-sess.out
	f, err := frame.NewReader(bytes.NewReader(o.payload)).Read()
	req.NoError(err)
	req.Equal(frame.MESSAGE, f.Command)
	req.Equal("/topic/chat/5", f.Header.Get(frame.Destination))
	req.Equal("sub-0", f.Header.Get(frame.Subscription))
	req.NotEmpty(f.Header.Get(frame.MessageId))

	var got event.ChatEvent
	req.NoError(json.Unmarshal(f.Body, &got))
	req.Equal(evt.Content, got.Content)
	req.True(got.IsSystem)
}

func TestSink_Consume_Drops_When_Buffer_Full(t *testing.T) {
	req := require.New(t)
	sess := bareSession(1)
	sink := Sink{session: sess, subscriptionID: "sub-0"}
	evt := event.ParticipantLeft(5, "Anonymous-123", time.Now().UTC())

	req.NoError(sink.Consume(context.Background(), evt))
	req.ErrorIs(sink.Consume(context.Background(), evt), ErrSlowConsumer)
	req.Len(sess.out, 1)
}

func TestSink_Consume_After_Close(t *testing.T) {
	req := require.New(t)
	sess := bareSession(1)
	sess.stop()
	sink := Sink{session: sess, subscriptionID: "sub-0"}

	err := sink.Consume(context.Background(), event.ParticipantLeft(5, "Anonymous-123", time.Now()))
	req.ErrorIs(err, ErrSessionClosed)
	req.Empty(sess.out)
}
