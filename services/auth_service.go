package services

import (
	"cine-chat/auth"
	"cine-chat/contract"
	"cine-chat/errors"
	"context"
	goerrors "errors"
	"fmt"
	"strings"
)

// IAuthService mints token pairs for accounts that already exist.
// Login itself belongs to the platform in front of the chat.
type IAuthService interface {
	IssueTokens(ctx context.Context, username string) (TokenPair, error)
	Seed(ctx context.Context, username string) (TokenPair, error)
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type AuthService struct {
	users  contract.IUserRepository
	tokens auth.ITokenAuthority
}

func NewAuthService(users contract.IUserRepository, tokens auth.ITokenAuthority) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) IssueTokens(ctx context.Context, username string) (TokenPair, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return TokenPair{}, err
	}
	access, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefresh(user.Identity())
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Seed creates the account when missing, then issues its tokens.
func (s *AuthService) Seed(ctx context.Context, username string) (TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return TokenPair{}, fmt.Errorf("%w: empty username", errors.ErrUnauthorized)
	}
	if _, err := s.users.CreateUser(ctx, username); err != nil && !goerrors.Is(err, errors.ErrUserExists) {
		return TokenPair{}, err
	}
	return s.IssueTokens(ctx, username)
}
