package auth

import (
	"cine-chat/domain"
	"cine-chat/errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer          = "cine-chat"
	minSecretLength = 32
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// CustomClaims defines the structure of the data stored inside the JWT.
// The registered subject carries the username.
type CustomClaims struct {
	UserID    domain.UserID `json:"user_id"`
	TokenType TokenType     `json:"token_type"`
	jwt.RegisteredClaims
}

type ITokenAuthority interface {
	Issue(identity domain.Identity) (string, error)
	IssueRefresh(identity domain.Identity) (string, error)
	Validate(token string) bool
	ValidateFor(token string, identity domain.Identity) bool
	UsernameOf(token string) (string, error)
	IsExpired(token string) bool
}

// TokenAuthority signs and checks HS256 tokens with a shared key.
// It keeps no state besides the key: there is no revocation.
type TokenAuthority struct {
	key             []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
	now             func() time.Time
}

func NewTokenAuthority(secret string, accessDuration, refreshDuration time.Duration) (*TokenAuthority, error) {
	if len(secret) < minSecretLength {
		return nil, errors.ErrWeakSecret
	}
	return &TokenAuthority{
		key:             []byte(secret),
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		now:             time.Now,
	}, nil
}

// Issue creates a short-lived access token.
func (a *TokenAuthority) Issue(identity domain.Identity) (string, error) {
	return a.sign(identity, AccessToken, a.accessDuration)
}

// IssueRefresh creates a long-lived refresh token.
func (a *TokenAuthority) IssueRefresh(identity domain.Identity) (string, error) {
	return a.sign(identity, RefreshToken, a.refreshDuration)
}

func (a *TokenAuthority) sign(identity domain.Identity, tokenType TokenType, duration time.Duration) (string, error) {
	now := a.now()
	claims := &CustomClaims{
		UserID:    identity.UserID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	// Create the token using the HS256 algorithm (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("token signing failed: %w", err)
	}
	return signed, nil
}

// Validate checks signature and expiry. It never returns an error.
func (a *TokenAuthority) Validate(token string) bool {
	_, err := a.parse(token)
	return err == nil
}

// ValidateFor also requires the subject to be the given user.
func (a *TokenAuthority) ValidateFor(token string, identity domain.Identity) bool {
	claims, err := a.parse(token)
	if err != nil {
		return false
	}
	return claims.Subject == identity.Username
}

// UsernameOf returns the subject of a valid token.
func (a *TokenAuthority) UsernameOf(token string) (string, error) {
	claims, err := a.parse(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	return claims.Subject, nil
}

// IsExpired reports true for expired tokens and for tokens that cannot be verified at all.
func (a *TokenAuthority) IsExpired(token string) bool {
	claims, err := a.parse(token, jwt.WithoutClaimsValidation())
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return !a.now().Before(claims.ExpiresAt.Time)
}

func (a *TokenAuthority) parse(tokenString string, opts ...jwt.ParserOption) (*CustomClaims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
