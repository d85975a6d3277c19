package stomp

import (
	"bytes"
	"cine-chat/domain"
	"cine-chat/domain/event"
	"encoding/json"
	"strconv"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
)

const (
	protocolVersion = "1.2"
	serverName      = "cine-chat/1.0"
	jsonContentType = "application/json"
	userNameHeader  = "user-name"
)

// sendBody is the payload of a SEND to /app/chat/{roomId}/send.
type sendBody struct {
	Content string `json:"content"`
}

// encode serializes one frame, NUL terminator included.
func encode(f *frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func connectedFrame(conn domain.AuthenticatedConn) *frame.Frame {
	return frame.New(frame.CONNECTED,
		frame.Version, protocolVersion,
		frame.HeartBeat, "0,0",
		frame.Server, serverName,
		frame.Session, conn.SessionID,
		userNameHeader, conn.Identity.Username,
	)
}

func receiptFrame(receiptID string) *frame.Frame {
	return frame.New(frame.RECEIPT, frame.ReceiptId, receiptID)
}

// errorFrame carries the public text of err and the receipt id of the
// offending frame when it asked for one.
func errorFrame(cause *frame.Frame, message string) *frame.Frame {
	f := frame.New(frame.ERROR,
		frame.Message, message,
		frame.ContentType, "text/plain",
	)
	if cause != nil {
		if receipt, ok := cause.Header.Contains(frame.Receipt); ok {
			f.Header.Set(frame.ReceiptId, receipt)
		}
	}
	f.Body = []byte(message)
	f.Header.Set(frame.ContentLength, strconv.Itoa(len(f.Body)))
	return f
}

// messageFrame wraps a chat event for one subscription. System notices get
// a fresh message id since they are never stored.
func messageFrame(subscriptionID string, evt event.ChatEvent) (*frame.Frame, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	messageID := evt.ID
	if messageID == "" {
		messageID = uuid.NewString()
	}
	f := frame.New(frame.MESSAGE,
		frame.Destination, Topic(evt.RoomID()),
		frame.Subscription, subscriptionID,
		frame.MessageId, messageID,
		frame.ContentType, jsonContentType,
		frame.ContentLength, strconv.Itoa(len(body)),
	)
	f.Body = body
	return f, nil
}
