package api

import (
	"bytes"
	"cine-chat/auth"
	"cine-chat/domain"
	"cine-chat/domain/event"
	"cine-chat/repositories"
	"cine-chat/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	router   *gin.Engine
	tokens   *auth.TokenAuthority
	users    repositories.UserRepository
	messages repositories.MessageRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tokens, err := auth.NewTokenAuthority(testSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	users := repositories.NewUserRepository(db)
	messages := repositories.NewMessageRepository(db, log)
	rooms := services.NewRoomService(log, repositories.NewRoomRepository(db, log), messages, 50)
	ws := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	return &testEnv{
		router:   NewRouter(log, auth.NewGatekeeper(log, tokens, users), rooms, ws),
		tokens:   tokens,
		users:    users,
		messages: messages,
	}
}

func (e *testEnv) account(t *testing.T, username string) (domain.Identity, string) {
	t.Helper()
	user, err := e.users.CreateUser(context.Background(), username)
	require.NoError(t, err)
	token, err := e.tokens.Issue(user.Identity())
	require.NoError(t, err)
	return user.Identity(), token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	r := httptest.NewRequest(method, path, &payload)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set(auth.AuthorizationHeader, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func (e *testEnv) createRoom(t *testing.T, token, name string, max int) RoomResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, APIPrefix+"/rooms", token, CreateRoomRequest{Name: name, MaxParticipants: max})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[RoomResponse](t, w)
}

func TestRouter_Unauthenticated(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	// Given no token, a garbage token and a token for an unknown user
	ghost, err := env.tokens.Issue(domain.Identity{UserID: 99, Username: "ghost"})
	req.NoError(err)

	for _, token := range []string{"", "garbage", ghost} {
		// When listing rooms
		w := env.do(t, http.MethodGet, APIPrefix+"/rooms", token, nil)

		// Then the request is refused
		req.Equal(http.StatusUnauthorized, w.Code)
	}
}

func TestRouter_RefreshTokenIsAccepted(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	user, _ := env.account(t, "alice")
	refresh, err := env.tokens.IssueRefresh(user)
	req.NoError(err)

	req.Equal(http.StatusOK, env.do(t, http.MethodGet, APIPrefix+"/rooms", refresh, nil).Code)
}

func TestRouter_HealthAndWebSocketAreMounted(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)

	req.Equal(http.StatusOK, env.do(t, http.MethodGet, HealthPath, "", nil).Code)
	req.Equal(http.StatusTeapot, env.do(t, http.MethodGet, WebSocketPath, "", nil).Code)
}

func TestRoomHandler_CreateAndGet(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	alice, aliceToken := env.account(t, "alice")
	_, bobToken := env.account(t, "bob")

	// When alice creates a room
	room := env.createRoom(t, aliceToken, "Dune", 0)

	// Then defaults apply and the creator is already inside
	req.Equal("Dune", room.Name)
	req.Equal(domain.DefaultMaxParticipants, room.MaxParticipants)
	req.Equal(1, room.ParticipantCount)
	req.True(room.IsActive)

	// And the detail shows her pseudonym
	w := env.do(t, http.MethodGet, fmt.Sprintf("%s/rooms/%d", APIPrefix, room.ID), aliceToken, nil)
	req.Equal(http.StatusOK, w.Code)
	detail := decode[RoomDetailResponse](t, w)
	req.True(detail.IsParticipant)
	req.Equal(domain.Pseudonym(alice.UserID, room.ID), detail.DisplayName)

	// And an outsider is Unknown
	w = env.do(t, http.MethodGet, fmt.Sprintf("%s/rooms/%d", APIPrefix, room.ID), bobToken, nil)
	detail = decode[RoomDetailResponse](t, w)
	req.False(detail.IsParticipant)
	req.Equal(domain.UnknownDisplayName, detail.DisplayName)
}

func TestRoomHandler_CreateErrors(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	_, token := env.account(t, "alice")
	env.createRoom(t, token, "Alien", 5)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{name: "duplicate name", body: CreateRoomRequest{Name: "Alien", MaxParticipants: 5}, status: http.StatusConflict},
		{name: "blank name", body: CreateRoomRequest{Name: "   ", MaxParticipants: 5}, status: http.StatusBadRequest},
		{name: "capacity too small", body: CreateRoomRequest{Name: "Heat", MaxParticipants: 1}, status: http.StatusBadRequest},
		{name: "capacity too large", body: CreateRoomRequest{Name: "Heat", MaxParticipants: 101}, status: http.StatusBadRequest},
		{name: "not json", body: "Heat", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, APIPrefix+"/rooms", token, tt.body)
			req.Equal(tt.status, w.Code, w.Body.String())
			req.NotEmpty(decode[ErrorResponse](t, w).Error)
		})
	}
}

func TestRoomHandler_JoinLeave(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	_, aliceToken := env.account(t, "alice")
	_, bobToken := env.account(t, "bob")
	_, carolToken := env.account(t, "carol")
	room := env.createRoom(t, aliceToken, "Ran", 2)
	path := fmt.Sprintf("%s/rooms/%d", APIPrefix, room.ID)

	// When bob joins twice
	w := env.do(t, http.MethodPost, path+"/join", bobToken, nil)
	req.Equal(http.StatusOK, w.Code)
	req.True(decode[SuccessResponse](t, w).Success)
	w = env.do(t, http.MethodPost, path+"/join", bobToken, nil)

	// Then the second attempt is a conflict
	req.Equal(http.StatusConflict, w.Code)
	req.False(decode[SuccessResponse](t, w).Success)

	// And carol does not fit
	req.Equal(http.StatusConflict, env.do(t, http.MethodPost, path+"/join", carolToken, nil).Code)

	// When bob leaves, carol fits
	req.Equal(http.StatusOK, env.do(t, http.MethodPost, path+"/leave", bobToken, nil).Code)
	req.Equal(http.StatusConflict, env.do(t, http.MethodPost, path+"/leave", bobToken, nil).Code)
	req.Equal(http.StatusOK, env.do(t, http.MethodPost, path+"/join", carolToken, nil).Code)

	// And my rooms reflect membership
	mine := decode[[]RoomResponse](t, env.do(t, http.MethodGet, APIPrefix+"/rooms/my", carolToken, nil))
	req.Len(mine, 1)
	req.Equal(room.ID, mine[0].ID)
	req.Empty(decode[[]RoomResponse](t, env.do(t, http.MethodGet, APIPrefix+"/rooms/my", bobToken, nil)))
}

func TestRoomHandler_UnknownRoom(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	_, token := env.account(t, "alice")

	req.Equal(http.StatusNotFound, env.do(t, http.MethodGet, APIPrefix+"/rooms/999", token, nil).Code)
	req.Equal(http.StatusNotFound, env.do(t, http.MethodPost, APIPrefix+"/rooms/999/join", token, nil).Code)
	req.Equal(http.StatusBadRequest, env.do(t, http.MethodGet, APIPrefix+"/rooms/abc", token, nil).Code)
}

func TestRoomHandler_ListActivePaging(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	_, token := env.account(t, "alice")
	for i := range 3 {
		env.createRoom(t, token, fmt.Sprintf("Room %d", i), 5)
	}

	// When paging two by two
	first := decode[PageResponse[RoomResponse]](t, env.do(t, http.MethodGet, APIPrefix+"/rooms?limit=2", token, nil))
	req.Len(first.Items, 2)
	req.NotNil(first.NextCursor)
	second := decode[PageResponse[RoomResponse]](t, env.do(t, http.MethodGet, APIPrefix+"/rooms?limit=2&cursor="+*first.NextCursor, token, nil))

	// Then every room is seen exactly once
	req.Len(second.Items, 1)
	req.Nil(second.NextCursor)
	seen := map[domain.RoomID]bool{}
	for _, r := range append(first.Items, second.Items...) {
		req.False(seen[r.ID])
		seen[r.ID] = true
	}
}

func TestRoomHandler_History(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	alice, aliceToken := env.account(t, "alice")
	_, bobToken := env.account(t, "bob")
	room := env.createRoom(t, aliceToken, "Tenet", 5)
	_, err := env.messages.Append(context.Background(), room.ID, alice.UserID, "hello")
	req.NoError(err)
	path := fmt.Sprintf("%s/rooms/%d/messages", APIPrefix, room.ID)

	// When a participant reads the history
	w := env.do(t, http.MethodGet, path, aliceToken, nil)

	// Then messages carry the sender pseudonym
	req.Equal(http.StatusOK, w.Code)
	page := decode[PageResponse[event.ChatEvent]](t, w)
	req.Len(page.Items, 1)
	req.Equal("hello", page.Items[0].Content)
	req.Equal(domain.Pseudonym(alice.UserID, room.ID), page.Items[0].SenderName)

	// And an outsider is forbidden
	req.Equal(http.StatusForbidden, env.do(t, http.MethodGet, path, bobToken, nil).Code)
}
