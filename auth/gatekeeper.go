package auth

import (
	"cine-chat/contract"
	"cine-chat/domain"
	"cine-chat/errors"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-stomp/stomp/v3/frame"
)

const (
	AuthorizationHeader = "Authorization"
	TokenHeader         = "token"
	bearerPrefix        = "Bearer "
)

type IGatekeeper interface {
	Intercept(ctx context.Context, sessionID string, f *frame.Frame) (*frame.Frame, domain.AuthenticatedConn)
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

// Gatekeeper authenticates the STOMP handshake before anything else is allowed.
// It fails closed: any doubt ends in a rejected handshake.
type Gatekeeper struct {
	log    *slog.Logger
	tokens ITokenAuthority
	users  contract.IUserRepository
}

func NewGatekeeper(log *slog.Logger, tokens ITokenAuthority, users contract.IUserRepository) *Gatekeeper {
	return &Gatekeeper{log: log, tokens: tokens, users: users}
}

// IsHandshake reports whether the frame opens a STOMP session.
func IsHandshake(f *frame.Frame) bool {
	return f != nil && (f.Command == frame.CONNECT || f.Command == frame.STOMP)
}

// Intercept only looks at handshake frames, every other frame is returned untouched.
// A rejected handshake returns a nil frame and a zero connection.
func (g *Gatekeeper) Intercept(ctx context.Context, sessionID string, f *frame.Frame) (forward *frame.Frame, conn domain.AuthenticatedConn) {
	if !IsHandshake(f) {
		return f, domain.AuthenticatedConn{}
	}

	defer func() {
		if r := recover(); r != nil {
			g.log.Error("Handshake rejected after panic", "session_id", sessionID, "panic", r)
			forward, conn = nil, domain.AuthenticatedConn{}
		}
	}()

	token, ok := ExtractToken(f)
	if !ok {
		g.log.Debug("Handshake rejected, no token", "session_id", sessionID)
		return nil, domain.AuthenticatedConn{}
	}

	identity, err := g.Resolve(ctx, token)
	if err != nil {
		g.log.Debug("Handshake rejected", "session_id", sessionID, "error", err)
		return nil, domain.AuthenticatedConn{}
	}

	g.log.Debug("Handshake accepted", "session_id", sessionID, "user_id", identity.UserID)
	return f, domain.AuthenticatedConn{SessionID: sessionID, Identity: identity}
}

// Resolve turns a bearer token into the identity of an existing user.
func (g *Gatekeeper) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	if !g.tokens.Validate(token) {
		return domain.Identity{}, errors.ErrInvalidToken
	}
	username, err := g.tokens.UsernameOf(token)
	if err != nil {
		return domain.Identity{}, err
	}
	user, err := g.users.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrUnauthorized, err)
	}
	return user.Identity(), nil
}

// ExtractToken reads "Authorization: Bearer <token>" and falls back to the "token" header
// for clients that cannot set an Authorization header.
func ExtractToken(f *frame.Frame) (string, bool) {
	if f.Header == nil {
		return "", false
	}
	if value, ok := f.Header.Contains(AuthorizationHeader); ok && strings.HasPrefix(value, bearerPrefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(value, bearerPrefix)); token != "" {
			return token, true
		}
	}
	if value, ok := f.Header.Contains(TokenHeader); ok {
		if token := strings.TrimSpace(value); token != "" {
			return token, true
		}
	}
	return "", false
}

// BearerToken extracts the token of an HTTP Authorization header value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}
