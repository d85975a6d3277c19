package repositories

import (
	"context"
	"encoding/binary"
	goerrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

// maxConflictRetries bounds the retries of one optimistic transaction.
// Every conflict means another writer committed, so progress is guaranteed.
const maxConflictRetries = 64

const defaultPageSize = 50

// update runs fn in a read-write transaction and replays it on badger.ErrConflict.
// fn must be idempotent and reset any captured result at its start.
func update(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := db.Update(fn)
		if !goerrors.Is(err, badger.ErrConflict) || attempt >= maxConflictRetries {
			return err
		}
	}
}

// nextID increments the counter stored under key inside txn.
func nextID(txn *badger.Txn, key []byte) (int64, error) {
	var current uint64
	item, err := txn.Get(key)
	switch {
	case err == nil:
		if err = item.Value(func(val []byte) error {
			current = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return 0, err
		}
	case !goerrors.Is(err, badger.ErrKeyNotFound):
		return 0, err
	}
	current++
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, current)
	if err = txn.Set(key, buf); err != nil {
		return 0, err
	}
	return int64(current), nil
}

func encode(v any) ([]byte, error) {
	b, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor marshal failed: %w", err)
	}
	return b, nil
}

func decodeItem(item *badger.Item, v any) error {
	return item.Value(func(val []byte) error {
		return cbor.Unmarshal(val, v)
	})
}

// reverseSeekKey returns where a newest-first scan starts.
// The 19 nines sort after every zero-padded int64.
func reverseSeekKey(prefix string, cursor *string) []byte {
	if cursor == nil {
		return []byte(prefix + "9999999999999999999")
	}
	return []byte(prefix + *cursor)
}
