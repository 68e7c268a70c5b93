package event

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const defaultHandlerTimeout = 2 * time.Second

// HandlerFunc reacts to a published event.
type HandlerFunc func(ctx context.Context, e Event) error

// Bus is a synchronous in-process publish/subscribe channel. Handlers for a
// kind run in registration order before Publish returns. A handler that
// fails, panics or overruns its timeout is logged and skipped; it never
// reaches the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]HandlerFunc
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithHandlerTimeout bounds how long Publish waits for each handler.
func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// NewBus creates an empty bus. A nil logger falls back to slog.Default.
func NewBus(logger *slog.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		handlers: make(map[Kind][]HandlerFunc),
		timeout:  defaultHandlerTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for kind.
func (b *Bus) Subscribe(kind Kind, h HandlerFunc) {
	b.mu.Lock()
	b.handlers[kind] = append(b.handlers[kind], h)
	b.mu.Unlock()
}

// Publish runs every handler registered for e.Kind and returns how many of
// them failed.
func (b *Bus) Publish(ctx context.Context, e Event) int {
	b.mu.RLock()
	hs := append([]HandlerFunc(nil), b.handlers[e.Kind]...)
	b.mu.RUnlock()

	// Handlers outlive a cancelled request; the mutation is already saved.
	base := context.WithoutCancel(ctx)

	failed := 0
	for i, h := range hs {
		if err := b.run(base, h, e); err != nil {
			failed++
			b.logger.Error("event handler failed",
				"kind", string(e.Kind),
				"id", e.ID,
				"handler", i,
				"error", err,
			)
		}
	}
	return failed
}

func (b *Bus) run(ctx context.Context, h HandlerFunc, e Event) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		done <- h(ctx, e)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("handler did not finish within %s: %w", b.timeout, ctx.Err())
	}
}
