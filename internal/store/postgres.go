package store

import (
	"context"
	"fmt"
	"time"

	"bookshelf/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the collection in the books table, one row per book,
// ordered by position. Save replaces every row inside one transaction.
type PostgresStore struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresStore(db *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PostgresStore) Load(ctx context.Context) ([]entity.Book, error) {
	const query = `SELECT id, title, author FROM books ORDER BY position`

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.Query(timeoutCtx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer rows.Close()

	books := []entity.Book{}
	for rows.Next() {
		var b entity.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return books, nil
}

func (s *PostgresStore) Save(ctx context.Context, books []entity.Book) error {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := pgx.BeginFunc(timeoutCtx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(timeoutCtx, `DELETE FROM books`); err != nil {
			return err
		}
		_, err := tx.CopyFrom(timeoutCtx,
			pgx.Identifier{"books"},
			[]string{"position", "id", "title", "author"},
			pgx.CopyFromSlice(len(books), func(i int) ([]any, error) {
				b := books[i]
				return []any{i, b.ID, b.Title, b.Author}, nil
			}),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
