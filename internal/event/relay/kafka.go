package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink produces records with franz-go. The book id is the record key so
// events for one book stay on one partition.
type KafkaSink struct {
	cl *kgo.Client
}

// DialKafka creates a producer for brokers.
func DialKafka(brokers []string) (*KafkaSink, error) {
	if len(brokers) == 0 || brokers[0] == "" {
		return nil, errors.New("kafka brokers required")
	}
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID("bookshelf-relay"),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaSink{cl: cl}, nil
}

func (s *KafkaSink) Send(ctx context.Context, topic string, key, payload []byte) error {
	rec := &kgo.Record{
		Topic:   topic,
		Key:     key,
		Value:   payload,
		Headers: []kgo.RecordHeader{{Key: "content-type", Value: []byte("application/json")}},
	}
	return s.cl.ProduceSync(ctx, rec).FirstErr()
}

func (s *KafkaSink) Close() error {
	s.cl.Close()
	return nil
}
