package postgres

import (
	"cine-chat/domain"
	"cine-chat/errors"
	"context"
	goerrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return UserRepository{pool: pool}
}

func (u UserRepository) CreateUser(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{Username: username}
	var id int64
	err := u.pool.QueryRow(ctx,
		`INSERT INTO users (username) VALUES ($1) RETURNING id, created_at`, username,
	).Scan(&id, &user.CreatedAt)
	if isUniqueViolation(err) {
		return domain.User{}, fmt.Errorf("%w: %s", errors.ErrUserExists, username)
	}
	if err != nil {
		return domain.User{}, err
	}
	user.ID = domain.UserID(id)
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (u UserRepository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{Username: username}
	var id int64
	err := u.pool.QueryRow(ctx,
		`SELECT id, created_at FROM users WHERE username = $1`, username,
	).Scan(&id, &user.CreatedAt)
	if goerrors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, fmt.Errorf("%w: %s", errors.ErrUserNotFound, username)
	}
	if err != nil {
		return domain.User{}, err
	}
	user.ID = domain.UserID(id)
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}
