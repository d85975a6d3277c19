package repositories

import (
	"cine-chat/domain"
	"cine-chat/errors"
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const userPrefix = "user:"

var userSequenceKey = []byte("seq:user")

// UserRepository stores the accounts the gatekeeper resolves token subjects against.
// Accounts are created by the platform; CreateUser exists for seeding and tests.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

type diskUser struct {
	ID        int64
	Username  string
	CreatedAt int64
}

func (u UserRepository) CreateUser(ctx context.Context, username string) (domain.User, error) {
	var user domain.User
	err := update(ctx, u.db, func(txn *badger.Txn) error {
		key := []byte(userPrefix + username)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("%w: %s", errors.ErrUserExists, username)
		} else if !goerrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		id, err := nextID(txn, userSequenceKey)
		if err != nil {
			return err
		}
		user = domain.User{ID: domain.UserID(id), Username: username, CreatedAt: time.Now().UTC()}
		bytes, err := encode(diskUser{ID: id, Username: username, CreatedAt: user.CreatedAt.UnixNano()})
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (u UserRepository) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	var record diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + username))
		if err != nil {
			return err
		}
		return decodeItem(item, &record)
	})
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, fmt.Errorf("%w: %s", errors.ErrUserNotFound, username)
	}
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:        domain.UserID(record.ID),
		Username:  record.Username,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
	}, nil
}
