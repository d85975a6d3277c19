package repositories

import (
	"cine-chat/domain"
	"cine-chat/errors"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	roomPrefix        = "room:"
	roomNamePrefix    = "roomname:"
	participantPrefix = "participant:"
	memberPrefix      = "member:"
)

var roomSequenceKey = []byte("seq:room")

type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) RoomRepository {
	return RoomRepository{db: db, log: log}
}

type diskRoom struct {
	ID               int64
	Name             string
	Description      string
	MaxParticipants  int
	IsActive         bool
	CreatedBy        int64
	CreatedAt        int64
	ParticipantCount int
}

func roomKey(id domain.RoomID) []byte {
	return []byte(fmt.Sprintf("%s%019d", roomPrefix, id))
}

func roomNameKey(name string) []byte {
	return []byte(roomNamePrefix + name)
}

func roomParticipantsPrefix(id domain.RoomID) string {
	return fmt.Sprintf("%s%019d:", participantPrefix, id)
}

func participantKey(roomID domain.RoomID, userID domain.UserID) []byte {
	return []byte(fmt.Sprintf("%s%019d", roomParticipantsPrefix(roomID), userID))
}

func userMemberPrefix(id domain.UserID) string {
	return fmt.Sprintf("%s%019d:", memberPrefix, id)
}

func memberKey(userID domain.UserID, roomID domain.RoomID) []byte {
	return []byte(fmt.Sprintf("%s%019d", userMemberPrefix(userID), roomID))
}

// Create stores a new room with its creator as first participant.
// The name check, the id allocation and the writes share one transaction.
func (r RoomRepository) Create(ctx context.Context, newRoom domain.NewRoom) (domain.Room, error) {
	var room domain.Room
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		_, err := txn.Get(roomNameKey(newRoom.Name))
		if err == nil {
			return fmt.Errorf("%w: %s", errors.ErrRoomNameTaken, newRoom.Name)
		}
		if !goerrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		id, err := nextID(txn, roomSequenceKey)
		if err != nil {
			return err
		}
		room = domain.Room{
			ID:              domain.RoomID(id),
			Name:            newRoom.Name,
			Description:     newRoom.Description,
			MaxParticipants: newRoom.MaxParticipants,
			IsActive:        true,
			CreatedBy:       newRoom.CreatedBy,
			CreatedAt:       time.Now().UTC(),
		}
		room.Join(newRoom.CreatedBy)

		if err = txn.Set(roomNameKey(room.Name), []byte(strconv.FormatInt(id, 10))); err != nil {
			return err
		}
		if err = r.addParticipant(txn, room.ID, newRoom.CreatedBy); err != nil {
			return err
		}
		return r.put(txn, room)
	})
	if err != nil {
		return domain.Room{}, err
	}
	r.log.Debug("Room created", "room_id", room.ID, "name", room.Name)
	return room, nil
}

func (r RoomRepository) Get(_ context.Context, id domain.RoomID) (domain.Room, error) {
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		room, err = r.get(txn, id)
		return err
	})
	return room, err
}

// ListActive returns active rooms, newest first.
func (r RoomRepository) ListActive(_ context.Context, page domain.PageRequest) (domain.Page[domain.Room], error) {
	page = page.Normalize(defaultPageSize)
	var result domain.Page[domain.Room]
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(roomPrefix)
		it.Seek(reverseSeekKey(roomPrefix, page.Cursor))
		if page.Cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == roomPrefix+*page.Cursor {
			it.Next()
		}

		var lastKey string
		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(result.Items) == page.Limit {
				result.NextCursor = &lastKey
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(roomPrefix):])
			var record diskRoom
			if err := decodeItem(item, &record); err != nil {
				return err
			}
			if !record.IsActive {
				continue
			}
			room, err := r.withParticipants(txn, record)
			if err != nil {
				return err
			}
			result.Items = append(result.Items, room)
		}
		return nil
	})
	return result, err
}

// ListByMember returns the rooms a user currently belongs to, newest first.
func (r RoomRepository) ListByMember(_ context.Context, userID domain.UserID) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := userMemberPrefix(userID)
		var ids []domain.RoomID
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		options.Reverse = true
		it := txn.NewIterator(options)
		for it.Seek(reverseSeekKey(prefix, nil)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			id, err := strconv.ParseInt(strings.TrimPrefix(string(it.Item().Key()), prefix), 10, 64)
			if err != nil {
				it.Close()
				return err
			}
			ids = append(ids, domain.RoomID(id))
		}
		it.Close()

		for _, id := range ids {
			room, err := r.get(txn, id)
			if err != nil {
				return err
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	return rooms, err
}

// Join evaluates the capacity guard and writes the membership in one transaction.
// Every successful join rewrites the room record, so two concurrent joins
// always conflict and the loser re-reads the room before deciding again.
func (r RoomRepository) Join(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	var joined bool
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		joined = false
		room, err := r.get(txn, roomID)
		if err != nil {
			return err
		}
		if !room.Join(userID) {
			return nil
		}
		if err = r.addParticipant(txn, roomID, userID); err != nil {
			return err
		}
		if err = r.put(txn, room); err != nil {
			return err
		}
		joined = true
		return nil
	})
	return joined, err
}

func (r RoomRepository) Leave(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	var left bool
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		left = false
		room, err := r.get(txn, roomID)
		if err != nil {
			return err
		}
		if !room.Leave(userID) {
			return nil
		}
		if err = txn.Delete(participantKey(roomID, userID)); err != nil {
			return err
		}
		if err = txn.Delete(memberKey(userID, roomID)); err != nil {
			return err
		}
		if err = r.put(txn, room); err != nil {
			return err
		}
		left = true
		return nil
	})
	return left, err
}

func (r RoomRepository) Deactivate(ctx context.Context, roomID domain.RoomID) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		room, err := r.get(txn, roomID)
		if err != nil {
			return err
		}
		room.IsActive = false
		return r.put(txn, room)
	})
}

func (r RoomRepository) get(txn *badger.Txn, id domain.RoomID) (domain.Room, error) {
	item, err := txn.Get(roomKey(id))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, fmt.Errorf("%w: %d", errors.ErrRoomNotFound, id)
	}
	if err != nil {
		return domain.Room{}, err
	}
	var record diskRoom
	if err = decodeItem(item, &record); err != nil {
		return domain.Room{}, err
	}
	return r.withParticipants(txn, record)
}

func (r RoomRepository) withParticipants(txn *badger.Txn, record diskRoom) (domain.Room, error) {
	room := toRoom(record)
	prefix := roomParticipantsPrefix(room.ID)
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	options.Prefix = []byte(prefix)
	it := txn.NewIterator(options)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		id, err := strconv.ParseInt(strings.TrimPrefix(string(it.Item().Key()), prefix), 10, 64)
		if err != nil {
			return domain.Room{}, err
		}
		room.Participants[domain.UserID(id)] = struct{}{}
	}
	return room, nil
}

func (r RoomRepository) addParticipant(txn *badger.Txn, roomID domain.RoomID, userID domain.UserID) error {
	if err := txn.Set(participantKey(roomID, userID), []byte{}); err != nil {
		return err
	}
	return txn.Set(memberKey(userID, roomID), []byte{})
}

func (r RoomRepository) put(txn *badger.Txn, room domain.Room) error {
	bytes, err := encode(fromRoom(room))
	if err != nil {
		return err
	}
	return txn.Set(roomKey(room.ID), bytes)
}

func fromRoom(room domain.Room) diskRoom {
	return diskRoom{
		ID:               int64(room.ID),
		Name:             room.Name,
		Description:      room.Description,
		MaxParticipants:  room.MaxParticipants,
		IsActive:         room.IsActive,
		CreatedBy:        int64(room.CreatedBy),
		CreatedAt:        room.CreatedAt.UnixNano(),
		ParticipantCount: room.Size(),
	}
}

func toRoom(record diskRoom) domain.Room {
	return domain.Room{
		ID:              domain.RoomID(record.ID),
		Name:            record.Name,
		Description:     record.Description,
		MaxParticipants: record.MaxParticipants,
		IsActive:        record.IsActive,
		CreatedBy:       domain.UserID(record.CreatedBy),
		CreatedAt:       time.Unix(0, record.CreatedAt).UTC(),
		Participants:    make(map[domain.UserID]struct{}),
	}
}
