package event

import (
	"time"

	"bookshelf/internal/entity"
)

// Kind names a book lifecycle event.
type Kind string

const (
	BookAdded   Kind = "BookAdded"
	BookUpdated Kind = "BookUpdated"
	BookDeleted Kind = "BookDeleted"
)

// Event is what the bus hands to handlers. Added and Updated carry the full
// book; Deleted only carries ID.
type Event struct {
	Kind Kind
	ID   int
	Book *entity.Book
	At   time.Time
}

// Added builds a BookAdded event for b.
func Added(b entity.Book) Event {
	return Event{Kind: BookAdded, ID: b.ID, Book: &b, At: time.Now().UTC()}
}

// Updated builds a BookUpdated event for b.
func Updated(b entity.Book) Event {
	return Event{Kind: BookUpdated, ID: b.ID, Book: &b, At: time.Now().UTC()}
}

// Deleted builds a BookDeleted event for id.
func Deleted(id int) Event {
	return Event{Kind: BookDeleted, ID: id, At: time.Now().UTC()}
}
