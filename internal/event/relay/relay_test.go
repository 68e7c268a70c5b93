package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"bookshelf/internal/config"
	"bookshelf/internal/entity"
	"bookshelf/internal/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	topic   string
	key     string
	payload []byte
}

type fakeSink struct {
	sent []sent
	err  error
}

func (f *fakeSink) Send(ctx context.Context, topic string, key, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{topic: topic, key: string(key), payload: payload})
	return nil
}

func (f *fakeSink) Close() error { return nil }

func TestRelay_ForwardsEveryKind(t *testing.T) {
	sink := &fakeSink{}
	bus := event.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	New(sink, "books.").Register(bus)

	b := entity.Book{ID: 2, Title: "Dune", Author: "Herbert"}
	bus.Publish(context.Background(), event.Added(b))
	bus.Publish(context.Background(), event.Updated(b))
	bus.Publish(context.Background(), event.Deleted(2))

	require.Len(t, sink.sent, 3)
	assert.Equal(t, "books.BookAdded", sink.sent[0].topic)
	assert.Equal(t, "books.BookUpdated", sink.sent[1].topic)
	assert.Equal(t, "books.BookDeleted", sink.sent[2].topic)

	var added Message
	require.NoError(t, json.Unmarshal(sink.sent[0].payload, &added))
	assert.Equal(t, "BookAdded", added.Kind)
	assert.Equal(t, 2, added.ID)
	require.NotNil(t, added.Book)
	assert.Equal(t, b, *added.Book)
	assert.Equal(t, "2", sink.sent[0].key)

	var deleted Message
	require.NoError(t, json.Unmarshal(sink.sent[2].payload, &deleted))
	assert.Nil(t, deleted.Book)
	assert.Equal(t, 2, deleted.ID)
}

func TestRelay_SendFailureIsReported(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker down")}
	r := New(sink, "books")

	err := r.Handle(context.Background(), event.Deleted(9))

	assert.ErrorContains(t, err, "books.BookDeleted")
	assert.ErrorContains(t, err, "broker down")
}

func TestRelay_SendFailureDoesNotReachPublisher(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker down")}
	bus := event.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	New(sink, "books").Register(bus)

	assert.Equal(t, 1, bus.Publish(context.Background(), event.Deleted(9)))
}

func TestRelay_TopicWithoutPrefix(t *testing.T) {
	assert.Equal(t, "BookAdded", New(&fakeSink{}, "").Topic(event.BookAdded))
}

func TestOpen_Disabled(t *testing.T) {
	sink, err := Open(config.Config{RelayDriver: config.RelayNone})
	assert.NoError(t, err)
	assert.Nil(t, sink)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.Config{RelayDriver: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestDialKafka_RequiresBrokers(t *testing.T) {
	_, err := DialKafka(nil)
	assert.Error(t, err)
}
