package api

import (
	"cine-chat/auth"
	"cine-chat/services"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	APIPrefix     = "/api/chat"
	WebSocketPath = "/ws"
	HealthPath    = "/health"
)

// NewRouter mounts the REST surface under APIPrefix and the STOMP endpoint at WebSocketPath.
func NewRouter(log *slog.Logger, gatekeeper auth.IGatekeeper, rooms services.IRoomService, stompEndpoint http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET(HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET(WebSocketPath, gin.WrapH(stompEndpoint))

	g := r.Group(APIPrefix, Authenticate(gatekeeper))
	NewRoomHandler(log, rooms).Register(g)
	return r
}
