package postgres

import (
	"cine-chat/domain"
	"cine-chat/errors"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPageSize = 50

const roomColumns = `id, name, description, max_participants, is_active, created_by, created_at`

// joinRoom bumps the counter only while the guard holds and inserts the
// membership from the same statement. Concurrent joins serialize on the
// room row and the loser re-evaluates the guard on the updated row.
const joinRoom = `
WITH bumped AS (
    UPDATE rooms SET participant_count = participant_count + 1
    WHERE id = $1
      AND is_active
      AND participant_count < max_participants
      AND NOT EXISTS (SELECT 1 FROM room_participants WHERE room_id = $1 AND user_id = $2)
    RETURNING id
)
INSERT INTO room_participants (room_id, user_id)
SELECT id, $2 FROM bumped
RETURNING room_id`

const leaveRoom = `
WITH removed AS (
    DELETE FROM room_participants rp
    USING rooms r
    WHERE rp.room_id = $1 AND rp.user_id = $2 AND r.id = rp.room_id AND r.is_active
    RETURNING rp.room_id
)
UPDATE rooms SET participant_count = participant_count - 1
WHERE id IN (SELECT room_id FROM removed)
RETURNING id`

type RoomRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRoomRepository(pool *pgxpool.Pool, log *slog.Logger) RoomRepository {
	return RoomRepository{pool: pool, log: log}
}

func (r RoomRepository) Create(ctx context.Context, newRoom domain.NewRoom) (domain.Room, error) {
	room := domain.Room{
		Name:            newRoom.Name,
		Description:     newRoom.Description,
		MaxParticipants: newRoom.MaxParticipants,
		IsActive:        true,
		CreatedBy:       newRoom.CreatedBy,
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO rooms (name, description, max_participants, participant_count, created_by)
			VALUES ($1, $2, $3, 1, $4)
			RETURNING id, created_at`,
			room.Name, room.Description, room.MaxParticipants, int64(room.CreatedBy),
		).Scan(&id, &room.CreatedAt)
		if err != nil {
			return err
		}
		room.ID = domain.RoomID(id)
		_, err = tx.Exec(ctx,
			`INSERT INTO room_participants (room_id, user_id) VALUES ($1, $2)`,
			int64(room.ID), int64(room.CreatedBy),
		)
		return err
	})
	if isUniqueViolation(err) {
		return domain.Room{}, fmt.Errorf("%w: %s", errors.ErrRoomNameTaken, newRoom.Name)
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("room create failed: %w", err)
	}
	room.CreatedAt = room.CreatedAt.UTC()
	room.Participants = map[domain.UserID]struct{}{room.CreatedBy: {}}
	r.log.Debug("Room created", "room_id", room.ID, "name", room.Name)
	return room, nil
}

func (r RoomRepository) Get(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, int64(id))
	if err != nil {
		return domain.Room{}, err
	}
	rooms, err := r.collect(ctx, rows)
	if err != nil {
		return domain.Room{}, err
	}
	if len(rooms) == 0 {
		return domain.Room{}, fmt.Errorf("%w: %d", errors.ErrRoomNotFound, id)
	}
	return rooms[0], nil
}

// ListActive pages active rooms by descending id. The cursor is the last id returned.
func (r RoomRepository) ListActive(ctx context.Context, page domain.PageRequest) (domain.Page[domain.Room], error) {
	page = page.Normalize(defaultPageSize)
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE is_active`
	args := []any{page.Limit + 1}
	if page.Cursor != nil {
		after, err := strconv.ParseInt(*page.Cursor, 10, 64)
		if err != nil {
			return domain.Page[domain.Room]{}, fmt.Errorf("invalid cursor %q: %w", *page.Cursor, err)
		}
		query += ` AND id < $2`
		args = append(args, after)
	}
	query += ` ORDER BY id DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return domain.Page[domain.Room]{}, err
	}
	rooms, err := r.collect(ctx, rows)
	if err != nil {
		return domain.Page[domain.Room]{}, err
	}
	var result domain.Page[domain.Room]
	if len(rooms) > page.Limit {
		rooms = rooms[:page.Limit]
		next := strconv.FormatInt(int64(rooms[len(rooms)-1].ID), 10)
		result.NextCursor = &next
	}
	result.Items = rooms
	return result, nil
}

func (r RoomRepository) ListByMember(ctx context.Context, userID domain.UserID) ([]domain.Room, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.max_participants, r.is_active, r.created_by, r.created_at
		FROM rooms r
		JOIN room_participants rp ON rp.room_id = r.id
		WHERE rp.user_id = $1
		ORDER BY r.id DESC`, int64(userID))
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

func (r RoomRepository) Join(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, joinRoom, int64(roomID), int64(userID)).Scan(&id)
	switch {
	case err == nil:
		return true, nil
	case isUniqueViolation(err):
		// a concurrent join of the same user won
		return false, nil
	case goerrors.Is(err, pgx.ErrNoRows):
		return false, r.exists(ctx, roomID)
	default:
		return false, fmt.Errorf("room join failed: %w", err)
	}
}

func (r RoomRepository) Leave(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, leaveRoom, int64(roomID), int64(userID)).Scan(&id)
	switch {
	case err == nil:
		return true, nil
	case goerrors.Is(err, pgx.ErrNoRows):
		return false, r.exists(ctx, roomID)
	default:
		return false, fmt.Errorf("room leave failed: %w", err)
	}
}

func (r RoomRepository) Deactivate(ctx context.Context, roomID domain.RoomID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE rooms SET is_active = FALSE WHERE id = $1`, int64(roomID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", errors.ErrRoomNotFound, roomID)
	}
	return nil
}

func (r RoomRepository) exists(ctx context.Context, roomID domain.RoomID) error {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, int64(roomID)).Scan(&found)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %d", errors.ErrRoomNotFound, roomID)
	}
	return nil
}

// collect scans room rows and attaches their participants.
func (r RoomRepository) collect(ctx context.Context, rows pgx.Rows) ([]domain.Room, error) {
	rooms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Room, error) {
		var room domain.Room
		var id, createdBy int64
		err := row.Scan(&id, &room.Name, &room.Description, &room.MaxParticipants, &room.IsActive, &createdBy, &room.CreatedAt)
		room.ID = domain.RoomID(id)
		room.CreatedBy = domain.UserID(createdBy)
		room.CreatedAt = room.CreatedAt.UTC()
		room.Participants = make(map[domain.UserID]struct{})
		return room, err
	})
	if err != nil || len(rooms) == 0 {
		return rooms, err
	}

	ids := make([]int64, len(rooms))
	index := make(map[domain.RoomID]int, len(rooms))
	for i, room := range rooms {
		ids[i] = int64(room.ID)
		index[room.ID] = i
	}
	participants, err := r.pool.Query(ctx,
		`SELECT room_id, user_id FROM room_participants WHERE room_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer participants.Close()
	for participants.Next() {
		var roomID, userID int64
		if err = participants.Scan(&roomID, &userID); err != nil {
			return nil, err
		}
		rooms[index[domain.RoomID(roomID)]].Participants[domain.UserID(userID)] = struct{}{}
	}
	return rooms, participants.Err()
}
