package book

import (
	"errors"
	"strings"

	"bookshelf/internal/entity"
	"bookshelf/internal/platform/validation"
)

var (
	// ErrNotFound is returned when no book has the requested id.
	ErrNotFound = errors.New("book not found")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid book input")
)

// Book is the book record handled by this package.
type Book = entity.Book

// Input is the client-supplied part of a book. The id is never taken from
// the client.
type Input struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
}

// ValidationError lists the fields of an Input that failed validation.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validate reports a *ValidationError when title or author is missing.
func (in Input) Validate() error {
	if fields := validation.Struct(in); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
