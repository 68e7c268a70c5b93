package store

import (
	"context"
	"sync"

	"bookshelf/internal/entity"
)

// MemoryStore holds the collection in process memory. Load and Save copy, so
// callers never share a slice with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	books []entity.Book
}

func NewMemoryStore(books ...entity.Book) *MemoryStore {
	return &MemoryStore{books: append([]entity.Book{}, books...)}
}

func (s *MemoryStore) Load(ctx context.Context) ([]entity.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Book{}, s.books...), nil
}

func (s *MemoryStore) Save(ctx context.Context, books []entity.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.books = append([]entity.Book{}, books...)
	s.mu.Unlock()
	return nil
}
