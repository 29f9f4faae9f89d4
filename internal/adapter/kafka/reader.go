// Package kafka adapts the sightings topic to the ingest loop.
package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"bird-map-service/internal/config"
	"bird-map-service/internal/domain"
)

// Reader consumes raw sighting messages from the configured topic.
// It implements ingest.Extractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a Kafka consumer for the sightings topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroupID,
	})
	return &Reader{reader: r, logger: logger}
}

// Extract blocks until one message is available or the context is
// cancelled. Offsets are committed via the returned Commit callback, after
// the sighting has been applied to the dataset.
func (r *Reader) Extract(ctx context.Context) (domain.RawSighting, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return domain.RawSighting{}, err
	}
	raw := mapMessageToRawSighting(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawSighting converts a Kafka message into the domain's raw
// sighting representation.
func mapMessageToRawSighting(msg kafkago.Message) domain.RawSighting {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawSighting{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
