package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const fetchRetryDelay = time.Second

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Handler processes one decoded event.
type Handler func(ctx context.Context, e Event)

type KafkaConsumer struct {
	reader messageReader
}

// NewKafkaConsumer reads topic as a member of groupID, starting at the newest
// offset. Give every instance its own group to receive every event.
func NewKafkaConsumer(brokers []string, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:        brokers,
			Topic:          topic,
			GroupID:        groupID,
			CommitInterval: time.Second,
			StartOffset:    kafkago.LastOffset,
		}),
	}
}

// Consume hands every event to handle until ctx is done. Undecodable messages
// are committed and skipped; fetch errors are logged and retried.
func (c *KafkaConsumer) Consume(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("Failed to fetch event", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		var e Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			slog.Error("Failed to decode event", "offset", msg.Offset, "error", err)
		} else {
			handle(ctx, e)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			slog.Error("Failed to commit event", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
