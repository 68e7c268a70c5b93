package store

import (
	"context"
	"fmt"

	"bookshelf/internal/entity"

	"gopkg.in/redis.v5"
)

// RedisStore keeps the JSON document under a single key. SET replaces the
// value atomically.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) ([]entity.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.client.Get(s.key).Bytes()
	if err == redis.Nil {
		return []entity.Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	books, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("redis key %s: %w", s.key, err)
	}
	return books, nil
}

func (s *RedisStore) Save(ctx context.Context, books []entity.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(books)
	if err != nil {
		return err
	}
	if err := s.client.Set(s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
