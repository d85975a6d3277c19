package postgres

import (
	"cine-chat/domain"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewMessageRepository(pool *pgxpool.Pool, log *slog.Logger) MessageRepository {
	return MessageRepository{pool: pool, log: log}
}

func (m MessageRepository) Append(ctx context.Context, roomID domain.RoomID, senderID domain.UserID, content string) (domain.Message, error) {
	message := domain.Message{
		ID:       uuid.New(),
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
		// timestamptz keeps microseconds
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	_, err := m.pool.Exec(ctx, `
		INSERT INTO messages (id, room_id, sender_id, content, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5)`,
		message.ID.String(), int64(roomID), int64(senderID), content, message.CreatedAt,
	)
	if err != nil {
		return domain.Message{}, fmt.Errorf("message append failed: %w", err)
	}
	return message, nil
}

// PageByRoom uses keyset pagination on (created_at, id). The cursor is "<unixnano>:<uuid>".
func (m MessageRepository) PageByRoom(ctx context.Context, roomID domain.RoomID, page domain.PageRequest) (domain.Page[domain.Message], error) {
	page = page.Normalize(defaultPageSize)
	query := `SELECT id::text, room_id, sender_id, content, created_at FROM messages WHERE room_id = $1`
	args := []any{int64(roomID), page.Limit + 1}
	if page.Cursor != nil {
		at, id, err := parseCursor(*page.Cursor)
		if err != nil {
			return domain.Page[domain.Message]{}, err
		}
		query += ` AND (created_at, id) < ($3, $4::uuid)`
		args = append(args, at, id.String())
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := m.pool.Query(ctx, query, args...)
	if err != nil {
		return domain.Page[domain.Message]{}, err
	}
	messages, err := pgx.CollectRows(rows, scanMessage)
	if err != nil {
		return domain.Page[domain.Message]{}, err
	}
	var result domain.Page[domain.Message]
	if len(messages) > page.Limit {
		messages = messages[:page.Limit]
		last := messages[len(messages)-1]
		next := fmt.Sprintf("%d:%s", last.CreatedAt.UnixNano(), last.ID)
		result.NextCursor = &next
	}
	result.Items = messages
	return result, nil
}

// PurgeOlderThan lists messages created before cutoff without deleting them.
func (m MessageRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Message, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT id::text, room_id, sender_id, content, created_at
		FROM messages WHERE created_at < $1
		ORDER BY created_at`, cutoff)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanMessage)
}

func scanMessage(row pgx.CollectableRow) (domain.Message, error) {
	var message domain.Message
	var id string
	var roomID, senderID int64
	if err := row.Scan(&id, &roomID, &senderID, &message.Content, &message.CreatedAt); err != nil {
		return domain.Message{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.Message{}, err
	}
	message.ID = parsed
	message.RoomID = domain.RoomID(roomID)
	message.SenderID = domain.UserID(senderID)
	message.CreatedAt = message.CreatedAt.UTC()
	return message, nil
}

func parseCursor(cursor string) (time.Time, uuid.UUID, error) {
	nano, id, found := strings.Cut(cursor, ":")
	if !found {
		return time.Time{}, uuid.Nil, fmt.Errorf("invalid cursor %q", cursor)
	}
	n, err := strconv.ParseInt(nano, 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("invalid cursor %q: %w", cursor, err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("invalid cursor %q: %w", cursor, err)
	}
	return time.Unix(0, n).UTC(), parsed, nil
}
