package book

import (
	"context"
	"fmt"
	"sync"

	"bookshelf/internal/event"
)

// Service provides the book operations. Every call reads the full collection
// from the store; writes replace it.
type Service struct {
	store  Store
	events Publisher

	// writeMu serializes load-modify-save so concurrent writers in this
	// process cannot overwrite each other's changes.
	writeMu sync.Mutex
}

// NewService creates a new book service. events may be nil.
func NewService(store Store, events Publisher) *Service {
	return &Service{store: store, events: events}
}

// List returns every book in insertion order.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	books, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// Get returns the book with the given id.
func (s *Service) Get(ctx context.Context, id int) (Book, error) {
	books, err := s.store.Load(ctx)
	if err != nil {
		return Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	i := indexOf(books, id)
	if i < 0 {
		return Book{}, ErrNotFound
	}
	return books[i], nil
}

// Create appends a new book with the next free id.
func (s *Service) Create(ctx context.Context, in Input) (Book, error) {
	if err := in.Validate(); err != nil {
		return Book{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	books, err := s.store.Load(ctx)
	if err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}

	b := Book{ID: nextID(books), Title: in.Title, Author: in.Author}
	if err := s.store.Save(ctx, append(books, b)); err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}

	s.publish(ctx, event.Added(b))
	return b, nil
}

// Update replaces title and author of the book with the given id, keeping
// its id and position.
func (s *Service) Update(ctx context.Context, id int, in Input) (Book, error) {
	if err := in.Validate(); err != nil {
		return Book{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	books, err := s.store.Load(ctx)
	if err != nil {
		return Book{}, fmt.Errorf("update book %d: %w", id, err)
	}
	i := indexOf(books, id)
	if i < 0 {
		return Book{}, ErrNotFound
	}

	books[i].Title = in.Title
	books[i].Author = in.Author
	if err := s.store.Save(ctx, books); err != nil {
		return Book{}, fmt.Errorf("update book %d: %w", id, err)
	}

	s.publish(ctx, event.Updated(books[i]))
	return books[i], nil
}

// Delete removes every book with the given id.
func (s *Service) Delete(ctx context.Context, id int) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	books, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	kept := make([]Book, 0, len(books))
	for _, b := range books {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(books) {
		return ErrNotFound
	}

	if err := s.store.Save(ctx, kept); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	s.publish(ctx, event.Deleted(id))
	return nil
}

func (s *Service) publish(ctx context.Context, e event.Event) {
	if s.events != nil {
		s.events.Publish(ctx, e)
	}
}

func indexOf(books []Book, id int) int {
	for i, b := range books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// nextID is one past the highest id in use, or 1 for an empty collection.
func nextID(books []Book) int {
	highest := 0
	for _, b := range books {
		if b.ID > highest {
			highest = b.ID
		}
	}
	return highest + 1
}
