package stomp

import (
	"bytes"
	"cine-chat/auth"
	"cine-chat/contract"
	"cine-chat/domain"
	"cine-chat/errors"
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
)

// outbound is one WebSocket text message, or a close request when closeCode is set.
type outbound struct {
	payload   []byte
	closeCode int
}

// session is the state of one WebSocket connection. Only the read
// goroutine touches conn, connected and subscriptions.
type session struct {
	id      string
	conn    *websocket.Conn
	server  *Server
	log     *slog.Logger
	options Options

	out      chan outbound
	quit     chan struct{}
	quitOnce sync.Once

	connected     bool
	identity      domain.AuthenticatedConn
	subscriptions map[string]domain.RoomID
}

func newSession(id string, conn *websocket.Conn, server *Server) *session {
	return &session{
		id:            id,
		conn:          conn,
		server:        server,
		log:           server.log,
		options:       server.options,
		out:           make(chan outbound, server.options.SendBufferSize),
		quit:          make(chan struct{}),
		subscriptions: make(map[string]domain.RoomID),
	}
}

// run blocks until the connection is gone, then drops every subscription.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump()
	}()

	s.readPump(ctx)

	s.server.broker.UnsubscribeSession(s.id)
	s.stop()
	<-writerDone
	_ = s.conn.Close()
}

func (s *session) stop() {
	s.quitOnce.Do(func() { close(s.quit) })
}

// shutdown is safe from any goroutine.
func (s *session) shutdown(code int) {
	deadline := time.Now().Add(s.options.WriteTimeout)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), deadline)
	s.stop()
	_ = s.conn.Close()
}

func (s *session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(s.options.MaxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.options.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.options.PongTimeout))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.log.Debug("Read failed", "session_id", s.id, "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.options.PongTimeout))

		reader := frame.NewReader(bytes.NewReader(data))
		for {
			f, err := reader.Read()
			if goerrors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				s.log.Debug("Malformed frame", "session_id", s.id, "error", err)
				if !s.connected {
					s.refuse()
					return
				}
				s.reply(ctx, errorFrame(nil, "malformed frame"))
				break
			}
			// heart-beat
			if f == nil {
				continue
			}
			if !s.handle(ctx, f) {
				return
			}
		}
	}
}

// handle returns false when the connection must be dropped.
func (s *session) handle(ctx context.Context, f *frame.Frame) bool {
	if !s.connected {
		return s.handshake(ctx, f)
	}
	s.log.Debug("Frame received", "session_id", s.id, "command", f.Command)

	switch f.Command {
	case frame.SUBSCRIBE:
		s.subscribe(ctx, f)
	case frame.UNSUBSCRIBE:
		s.unsubscribe(ctx, f)
	case frame.SEND:
		s.send(ctx, f)
	case frame.DISCONNECT:
		s.receipt(ctx, f)
		s.enqueue(ctx, outbound{closeCode: websocket.CloseNormalClosure})
		return true
	case frame.CONNECT, frame.STOMP:
		s.reply(ctx, errorFrame(f, "already connected"))
	default:
		s.reply(ctx, errorFrame(f, fmt.Sprintf("unsupported command %s", f.Command)))
	}
	return true
}

// handshake authenticates the first frame. Anything else than an accepted
// CONNECT closes the socket without explanation.
func (s *session) handshake(ctx context.Context, f *frame.Frame) bool {
	if !auth.IsHandshake(f) {
		s.log.Debug("Frame before handshake", "session_id", s.id, "command", f.Command)
		s.refuse()
		return false
	}
	forward, conn := s.server.gatekeeper.Intercept(ctx, s.id, f)
	if forward == nil || !conn.Valid() {
		s.refuse()
		return false
	}
	s.identity = conn
	s.connected = true
	s.log.Info("Session authenticated", "session_id", s.id, "user_id", conn.Identity.UserID)
	s.reply(ctx, connectedFrame(conn))
	return true
}

func (s *session) refuse() {
	deadline := time.Now().Add(s.options.WriteTimeout)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""), deadline)
}

func (s *session) subscribe(ctx context.Context, f *frame.Frame) {
	subscriptionID := f.Header.Get(frame.Id)
	if subscriptionID == "" {
		s.reply(ctx, errorFrame(f, "missing subscription id"))
		return
	}
	roomID, err := ParseTopic(f.Header.Get(frame.Destination))
	if err != nil {
		s.reply(ctx, errorFrame(f, err.Error()))
		return
	}
	key := contract.SubscriptionKey{SessionID: s.id, SubscriptionID: subscriptionID}
	s.server.broker.Subscribe(key, roomID, Sink{session: s, subscriptionID: subscriptionID})
	s.subscriptions[subscriptionID] = roomID
	s.receipt(ctx, f)
}

func (s *session) unsubscribe(ctx context.Context, f *frame.Frame) {
	subscriptionID := f.Header.Get(frame.Id)
	if _, ok := s.subscriptions[subscriptionID]; !ok {
		s.reply(ctx, errorFrame(f, "unknown subscription"))
		return
	}
	s.server.broker.Unsubscribe(contract.SubscriptionKey{SessionID: s.id, SubscriptionID: subscriptionID})
	delete(s.subscriptions, subscriptionID)
	s.receipt(ctx, f)
}

// send routes application destinations to the relay. Only a failed
// message send is reported to the client.
func (s *session) send(ctx context.Context, f *frame.Frame) {
	roomID, action, err := ParseAppDestination(f.Header.Get(frame.Destination))
	if err != nil {
		s.reply(ctx, errorFrame(f, err.Error()))
		return
	}
	switch action {
	case ActionSend:
		var body sendBody
		if err = json.Unmarshal(f.Body, &body); err != nil {
			s.fail(ctx, f, fmt.Errorf("%w: %v", errors.ErrInvalidContent, err))
			return
		}
		if _, err = s.server.chat.Send(ctx, s.identity, roomID, body.Content); err != nil {
			s.fail(ctx, f, err)
			return
		}
	case ActionJoin:
		s.server.chat.Join(ctx, s.identity, roomID)
	case ActionLeave:
		s.server.chat.Leave(ctx, s.identity, roomID)
	}
	s.receipt(ctx, f)
}

func (s *session) fail(ctx context.Context, f *frame.Frame, err error) {
	s.log.Debug("Frame rejected", "session_id", s.id, "error", err)
	s.reply(ctx, errorFrame(f, errors.PublicMessage(err)))
}

func (s *session) receipt(ctx context.Context, f *frame.Frame) {
	if receiptID, ok := f.Header.Contains(frame.Receipt); ok {
		s.reply(ctx, receiptFrame(receiptID))
	}
}

func (s *session) reply(ctx context.Context, f *frame.Frame) {
	payload, err := encode(f)
	if err != nil {
		s.log.Error("Frame encoding failed", "session_id", s.id, "error", err)
		return
	}
	s.enqueue(ctx, outbound{payload: payload})
}

// enqueue waits for room in the buffer: direct replies are never dropped.
func (s *session) enqueue(ctx context.Context, o outbound) {
	select {
	case s.out <- o:
	case <-s.quit:
	case <-ctx.Done():
	}
}

// writePump owns every write except close control frames.
func (s *session) writePump() {
	ticker := time.NewTicker(s.options.pingPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case o := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.options.WriteTimeout))
			if o.closeCode != 0 {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(o.closeCode, ""))
				_ = s.conn.Close()
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, o.payload); err != nil {
				s.log.Error("Write failed", "session_id", s.id, "error", err)
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.options.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}
