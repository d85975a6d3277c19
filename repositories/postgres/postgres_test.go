package postgres

import (
	"cine-chat/domain"
	"cine-chat/errors"
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// openPool connects to TEST_DATABASE_URL, migrates and empties the tables.
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, RunMigrations(dsn))
	pool, err := Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = pool.Exec(context.Background(),
		`TRUNCATE messages, room_participants, rooms, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func Test_Migration_URL(t *testing.T) {
	req := require.New(t)
	req.Equal("pgx5://u:p@localhost:5432/chat", migrationURL("postgres://u:p@localhost:5432/chat"))
	req.Equal("pgx5://u:p@localhost/chat", migrationURL(" postgresql://u:p@localhost/chat "))
	req.Equal("pgx5://already", migrationURL("pgx5://already"))
}

func Test_Parse_Cursor(t *testing.T) {
	req := require.New(t)
	at, id, err := parseCursor("1700000000000000000:3f1c6c8e-4e6a-4c55-9d43-0c5f2a1e8b11")
	req.NoError(err)
	req.Equal(int64(1700000000000000000), at.UnixNano())
	req.Equal("3f1c6c8e-4e6a-4c55-9d43-0c5f2a1e8b11", id.String())

	for _, cursor := range []string{"", "12345", "abc:3f1c6c8e-4e6a-4c55-9d43-0c5f2a1e8b11", "12:not-a-uuid"} {
		_, _, err = parseCursor(cursor)
		req.Error(err, cursor)
	}
}

func Test_Postgres_Room_Lifecycle(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openPool(t), slog.Default())
	ctx := context.Background()

	room, err := repository.Create(ctx, domain.NewRoom{Name: "R1", MaxParticipants: 2, CreatedBy: 1})
	req.NoError(err)
	req.True(room.HasParticipant(1))

	_, err = repository.Create(ctx, domain.NewRoom{Name: "R1", MaxParticipants: 2, CreatedBy: 2})
	req.ErrorIs(err, errors.ErrRoomNameTaken)

	joined, err := repository.Join(ctx, room.ID, 2)
	req.NoError(err)
	req.True(joined)

	joined, err = repository.Join(ctx, room.ID, 3)
	req.NoError(err)
	req.False(joined)

	left, err := repository.Leave(ctx, room.ID, 2)
	req.NoError(err)
	req.True(left)

	left, err = repository.Leave(ctx, room.ID, 2)
	req.NoError(err)
	req.False(left)

	_, err = repository.Join(ctx, 999, 2)
	req.ErrorIs(err, errors.ErrRoomNotFound)

	req.NoError(repository.Deactivate(ctx, room.ID))
	joined, err = repository.Join(ctx, room.ID, 3)
	req.NoError(err)
	req.False(joined)

	page, err := repository.ListActive(ctx, domain.PageRequest{})
	req.NoError(err)
	req.Empty(page.Items)

	rooms, err := repository.ListByMember(ctx, 1)
	req.NoError(err)
	req.Len(rooms, 1)
}

func Test_Postgres_Concurrent_Joins_Never_Exceed_Capacity(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openPool(t), slog.Default())
	ctx := context.Background()

	room, err := repository.Create(ctx, domain.NewRoom{Name: "Rush", MaxParticipants: 3, CreatedBy: 1})
	req.NoError(err)

	var wg sync.WaitGroup
	var successes atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(userID domain.UserID) {
			defer wg.Done()
			if joined, err := repository.Join(ctx, room.ID, userID); err == nil && joined {
				successes.Add(1)
			}
		}(domain.UserID(100 + i))
	}
	wg.Wait()

	req.Equal(int32(2), successes.Load())
	fetched, err := repository.Get(ctx, room.ID)
	req.NoError(err)
	req.Equal(3, fetched.Size())
}

func Test_Postgres_Messages_Pages(t *testing.T) {
	req := require.New(t)
	pool := openPool(t)
	rooms := NewRoomRepository(pool, slog.Default())
	messages := NewMessageRepository(pool, slog.Default())
	ctx := context.Background()

	room, err := rooms.Create(ctx, domain.NewRoom{Name: "Talk", MaxParticipants: 10, CreatedBy: 1})
	req.NoError(err)

	var stored []domain.Message
	for i := 0; i < 3; i++ {
		message, err := messages.Append(ctx, room.ID, 1, "hello")
		req.NoError(err)
		stored = append(stored, message)
		time.Sleep(time.Millisecond)
	}

	first, err := messages.PageByRoom(ctx, room.ID, domain.PageRequest{Limit: 2})
	req.NoError(err)
	req.Len(first.Items, 2)
	req.Equal(stored[2].ID, first.Items[0].ID)
	req.NotNil(first.NextCursor)

	second, err := messages.PageByRoom(ctx, room.ID, domain.PageRequest{Cursor: first.NextCursor, Limit: 2})
	req.NoError(err)
	req.Len(second.Items, 1)
	req.Equal(stored[0].ID, second.Items[0].ID)
	req.Nil(second.NextCursor)

	purgeable, err := messages.PurgeOlderThan(ctx, time.Now().Add(time.Hour))
	req.NoError(err)
	req.Len(purgeable, 3)
}

func Test_Postgres_Users(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openPool(t))
	ctx := context.Background()

	alice, err := repository.CreateUser(ctx, "alice")
	req.NoError(err)
	_, err = repository.CreateUser(ctx, "alice")
	req.ErrorIs(err, errors.ErrUserExists)

	fetched, err := repository.GetUserByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal(alice.ID, fetched.ID)

	_, err = repository.GetUserByUsername(ctx, "ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)
}
