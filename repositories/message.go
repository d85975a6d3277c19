package repositories

import (
	"cine-chat/domain"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const messagePrefix = "msg:"

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

type diskMessage struct {
	ID        string
	Room      int64
	Sender    int64
	Content   string
	CreatedAt int64
}

func roomMessagesPrefix(room domain.RoomID) string {
	return fmt.Sprintf("%s%019d:", messagePrefix, room)
}

// messageKey sorts by room, then creation time. The uuid suffix keeps two
// messages stored in the same nanosecond apart.
func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s",
		roomMessagesPrefix(message.RoomID),
		message.CreatedAt.UnixNano(),
		message.ID,
	))
}

// Append persists a new message. The creation time is set here, once.
func (m MessageRepository) Append(_ context.Context, roomID domain.RoomID, senderID domain.UserID, content string) (domain.Message, error) {
	message := domain.Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	bytes, err := encode(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("message append failed: %w", err)
	}
	return message, nil
}

// PageByRoom walks the room prefix backwards: thanks to the padded timestamp
// in the key, messages come out newest first. The cursor is the key suffix.
func (m MessageRepository) PageByRoom(_ context.Context, roomID domain.RoomID, page domain.PageRequest) (domain.Page[domain.Message], error) {
	page = page.Normalize(defaultPageSize)
	var result domain.Page[domain.Message]
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := roomMessagesPrefix(roomID)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		it.Seek(reverseSeekKey(prefixStr, page.Cursor))
		if page.Cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == prefixStr+*page.Cursor {
			it.Next()
		}

		var lastKey string
		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(result.Items) == page.Limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", page.Limit))
				result.NextCursor = &lastKey
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[len(prefix):])
			var record diskMessage
			if err := decodeItem(item, &record); err != nil {
				return err
			}
			message, err := toMessage(record)
			if err != nil {
				return err
			}
			result.Items = append(result.Items, message)
		}
		return nil
	})
	return result, err
}

// PurgeOlderThan only identifies messages created before cutoff.
// Nothing is deleted; acting on the result belongs to the caller.
func (m MessageRepository) PurgeOlderThan(_ context.Context, cutoff time.Time) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(messagePrefix)
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var record diskMessage
			if err := decodeItem(it.Item(), &record); err != nil {
				return err
			}
			if !time.Unix(0, record.CreatedAt).Before(cutoff) {
				continue
			}
			message, err := toMessage(record)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:        message.ID.String(),
		Room:      int64(message.RoomID),
		Sender:    int64(message.SenderID),
		Content:   message.Content,
		CreatedAt: message.CreatedAt.UnixNano(),
	}
}

func toMessage(record diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		RoomID:    domain.RoomID(record.Room),
		SenderID:  domain.UserID(record.Sender),
		Content:   record.Content,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
	}, nil
}
