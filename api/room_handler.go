package api

import (
	"context"
	"cine-chat/domain"
	"cine-chat/domain/event"
	"cine-chat/errors"
	"cine-chat/services"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RoomHandler exposes the Room Directory over REST.
type RoomHandler struct {
	log   *slog.Logger
	rooms services.IRoomService
}

func NewRoomHandler(log *slog.Logger, rooms services.IRoomService) *RoomHandler {
	return &RoomHandler{log: log, rooms: rooms}
}

func (h *RoomHandler) Register(g *gin.RouterGroup) {
	g.POST("/rooms", h.Create)
	g.GET("/rooms", h.ListActive)
	g.GET("/rooms/my", h.ListMine)
	g.GET("/rooms/:id", h.Get)
	g.GET("/rooms/:id/messages", h.History)
	g.POST("/rooms/:id/join", h.Join)
	g.POST("/rooms/:id/leave", h.Leave)
}

func (h *RoomHandler) Create(c *gin.Context) {
	var request CreateRoomRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errors.ErrInvalidRoom, err))
		return
	}
	room, err := h.rooms.Create(c.Request.Context(), domain.NewRoom{
		Name:            request.Name,
		Description:     request.Description,
		MaxParticipants: request.MaxParticipants,
		CreatedBy:       identityOf(c).UserID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRoomResponse(room))
}

func (h *RoomHandler) ListActive(c *gin.Context) {
	page, err := h.rooms.ListActive(c.Request.Context(), pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPage(page, toRoomResponse))
}

func (h *RoomHandler) ListMine(c *gin.Context) {
	rooms, err := h.rooms.ListForMember(c.Request.Context(), identityOf(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomResponses(rooms))
}

func (h *RoomHandler) Get(c *gin.Context) {
	roomID, ok := h.roomID(c)
	if !ok {
		return
	}
	room, err := h.rooms.Get(c.Request.Context(), roomID)
	if err != nil {
		h.fail(c, err)
		return
	}
	userID := identityOf(c).UserID
	c.JSON(http.StatusOK, RoomDetailResponse{
		RoomResponse:  toRoomResponse(room),
		DisplayName:   domain.DisplayNameFor(room, userID),
		IsParticipant: room.HasParticipant(userID),
	})
}

func (h *RoomHandler) History(c *gin.Context) {
	roomID, ok := h.roomID(c)
	if !ok {
		return
	}
	page, err := h.rooms.History(c.Request.Context(), roomID, identityOf(c).UserID, pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPage(page, func(e event.ChatEvent) event.ChatEvent { return e }))
}

func (h *RoomHandler) Join(c *gin.Context) {
	h.membership(c, h.rooms.Join)
}

func (h *RoomHandler) Leave(c *gin.Context) {
	h.membership(c, h.rooms.Leave)
}

type membershipChange func(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)

// membership answers 409 when the change was refused by the room rules.
func (h *RoomHandler) membership(c *gin.Context, change membershipChange) {
	roomID, ok := h.roomID(c)
	if !ok {
		return
	}
	changed, err := change(c.Request.Context(), roomID, identityOf(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	status := http.StatusOK
	if !changed {
		status = http.StatusConflict
	}
	c.JSON(status, SuccessResponse{Success: changed})
}

func (h *RoomHandler) roomID(c *gin.Context) (domain.RoomID, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return 0, false
	}
	return domain.RoomID(id), true
}

func (h *RoomHandler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, ErrorResponse{Error: errors.PublicMessage(err)})
}

// pageRequest reads ?cursor=&limit=. A bad limit falls back to the default.
func pageRequest(c *gin.Context) domain.PageRequest {
	var page domain.PageRequest
	if cursor := c.Query("cursor"); cursor != "" {
		page.Cursor = &cursor
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		page.Limit = limit
	}
	return page
}
