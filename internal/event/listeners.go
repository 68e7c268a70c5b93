package event

import (
	"context"
	"log/slog"
)

// RegisterLogListeners wires the listeners that report every book mutation
// to logger.
func RegisterLogListeners(bus *Bus, logger *slog.Logger) {
	bus.Subscribe(BookAdded, func(ctx context.Context, e Event) error {
		logger.InfoContext(ctx, "book added", "title", e.Book.Title, "author", e.Book.Author)
		return nil
	})
	bus.Subscribe(BookUpdated, func(ctx context.Context, e Event) error {
		logger.InfoContext(ctx, "book updated", "id", e.ID, "title", e.Book.Title)
		return nil
	})
	bus.Subscribe(BookDeleted, func(ctx context.Context, e Event) error {
		logger.InfoContext(ctx, "book deleted", "id", e.ID)
		return nil
	})
}
