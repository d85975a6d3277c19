package main

import (
	"cine-chat/contract"
	"cine-chat/internal"
	"cine-chat/repositories"
	"cine-chat/repositories/postgres"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// storage groups the repositories of one driver and how to release them.
type storage struct {
	users    contract.IUserRepository
	rooms    contract.IRoomRepository
	messages contract.IMessageRepository
	close    func()
}

func openStorage(ctx context.Context, log *slog.Logger, config internal.Config) (storage, error) {
	switch config.StorageDriver {
	case internal.StoragePostgres:
		return openPostgres(ctx, log, config.DatabaseURL)
	default:
		return openBadger(log, config.BadgerFilepath)
	}
}

func openBadger(log *slog.Logger, path string) (storage, error) {
	db, err := badger.Open(badger.DefaultOptions(path).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return storage{}, fmt.Errorf("database opening failed: %w", err)
	}
	log.Info("BadgerDB opened", "path", path)
	return storage{
		users:    repositories.NewUserRepository(db),
		rooms:    repositories.NewRoomRepository(db, log),
		messages: repositories.NewMessageRepository(db, log),
		close: func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		},
	}, nil
}

func openPostgres(ctx context.Context, log *slog.Logger, dsn string) (storage, error) {
	if err := postgres.RunMigrations(dsn); err != nil {
		return storage{}, err
	}
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		return storage{}, err
	}
	log.Info("PostgreSQL connected", "max_conns", pool.Config().MaxConns)
	return storage{
		users:    postgres.NewUserRepository(pool),
		rooms:    postgres.NewRoomRepository(pool, log),
		messages: postgres.NewMessageRepository(pool, log),
		close: func() {
			log.Info("Closing PostgreSQL pool...")
			pool.Close()
		},
	}, nil
}
