package book

//go:generate mockgen -source=ports.go -destination=mocks/mock_ports.go -package=mocks

import (
	"context"

	"bookshelf/internal/entity"
	"bookshelf/internal/event"
)

// Store loads and replaces the whole book collection.
type Store interface {
	Load(ctx context.Context) ([]entity.Book, error)
	Save(ctx context.Context, books []entity.Book) error
}

// Publisher delivers book events to listeners and reports how many failed.
type Publisher interface {
	Publish(ctx context.Context, e event.Event) int
}
