package relay

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSSink publishes messages on NATS subjects.
type NATSSink struct {
	conn *nats.Conn
}

// DialNATS connects to the NATS server at url.
func DialNATS(url string) (*NATSSink, error) {
	nc, err := nats.Connect(url, nats.Name("bookshelf-relay"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSSink{conn: nc}, nil
}

func (s *NATSSink) Send(ctx context.Context, topic string, key, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := nats.NewMsg(topic)
	msg.Header.Set("Book-Id", string(key))
	msg.Header.Set("Content-Type", "application/json")
	msg.Data = payload
	return s.conn.PublishMsg(msg)
}

func (s *NATSSink) Close() error {
	return s.conn.Drain()
}
