// Package store persists the book collection. Every backend reads and writes
// the whole collection at once; there is no partial update.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"bookshelf/internal/config"
	"bookshelf/internal/entity"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/redis.v5"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrRead    = errors.New("store: read failed")
	ErrCorrupt = errors.New("store: corrupt data")
	ErrWrite   = errors.New("store: write failed")
)

// Store loads and saves the complete, ordered book collection. Missing
// backing data loads as an empty collection.
type Store interface {
	Load(ctx context.Context) ([]entity.Book, error)
	Save(ctx context.Context, books []entity.Book) error
}

// Open builds the store selected by cfg.StoreDriver. The returned cleanup
// releases any connection the store holds.
func Open(ctx context.Context, cfg config.Config) (Store, func(), error) {
	noop := func() {}

	switch cfg.StoreDriver {
	case config.DriverFile, "":
		return NewFileStore(cfg.BooksFile), noop, nil
	case config.DriverMemory:
		return NewMemoryStore(), noop, nil
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("create db pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		return NewPostgresStore(pool, cfg.DBTimeout), pool.Close, nil
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping().Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client, cfg.RedisKey), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// decode parses a JSON array of books. Blank input and a JSON null are an
// empty collection.
func decode(data []byte) ([]entity.Book, error) {
	books := []entity.Book{}
	if len(bytes.TrimSpace(data)) == 0 {
		return books, nil
	}
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if books == nil {
		books = []entity.Book{}
	}
	return books, nil
}

func encode(books []entity.Book) ([]byte, error) {
	if books == nil {
		books = []entity.Book{}
	}
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrWrite, err)
	}
	return data, nil
}
