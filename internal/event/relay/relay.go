// Package relay forwards book events from the in-process bus to an external
// message broker.
package relay

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookshelf/internal/config"
	"bookshelf/internal/entity"
	"bookshelf/internal/event"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sink delivers one encoded message to a broker topic.
type Sink interface {
	Send(ctx context.Context, topic string, key, payload []byte) error
	Close() error
}

// Message is the wire form of a forwarded event.
type Message struct {
	Kind string       `json:"kind"`
	ID   int          `json:"id"`
	Book *entity.Book `json:"book,omitempty"`
	At   time.Time    `json:"at"`
}

// Relay is an event handler that publishes every event it sees to a Sink.
type Relay struct {
	sink   Sink
	prefix string
}

// New returns a relay sending to topics named "<prefix>.<kind>".
func New(sink Sink, prefix string) *Relay {
	return &Relay{sink: sink, prefix: strings.TrimSuffix(prefix, ".")}
}

// Register subscribes the relay to every book event kind.
func (r *Relay) Register(bus *event.Bus) {
	for _, k := range []event.Kind{event.BookAdded, event.BookUpdated, event.BookDeleted} {
		bus.Subscribe(k, r.Handle)
	}
}

// Topic returns the topic an event of kind k is sent to.
func (r *Relay) Topic(k event.Kind) string {
	if r.prefix == "" {
		return string(k)
	}
	return r.prefix + "." + string(k)
}

// Handle encodes e and sends it to the sink.
func (r *Relay) Handle(ctx context.Context, e event.Event) error {
	payload, err := json.Marshal(Message{Kind: string(e.Kind), ID: e.ID, Book: e.Book, At: e.At})
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Kind, err)
	}
	topic := r.Topic(e.Kind)
	if err := r.sink.Send(ctx, topic, []byte(strconv.Itoa(e.ID)), payload); err != nil {
		return fmt.Errorf("send %s: %w", topic, err)
	}
	return nil
}

// Open connects the sink selected by cfg.RelayDriver. It returns a nil Sink
// when relaying is disabled.
func Open(cfg config.Config) (Sink, error) {
	switch cfg.RelayDriver {
	case config.RelayNATS:
		return DialNATS(cfg.RelayURL)
	case config.RelayKafka:
		return DialKafka(strings.Split(cfg.RelayURL, ","))
	case config.RelayAMQP:
		return DialAMQP(cfg.RelayURL, cfg.RelayTopicPrefix)
	case config.RelayNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown relay driver %q", cfg.RelayDriver)
	}
}
