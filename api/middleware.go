package api

import (
	"cine-chat/auth"
	"cine-chat/domain"
	"cine-chat/errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Authenticate resolves the Bearer token through the same path as the
// STOMP handshake and stores the identity in the gin context.
func Authenticate(gatekeeper auth.IGatekeeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader(auth.AuthorizationHeader))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: errors.ErrUnauthorized.Error()})
			return
		}
		identity, err := gatekeeper.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: errors.ErrUnauthorized.Error()})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// identityOf is only valid behind Authenticate.
func identityOf(c *gin.Context) domain.Identity {
	return c.MustGet(identityKey).(domain.Identity)
}

// RequestLogger logs one line per request.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
