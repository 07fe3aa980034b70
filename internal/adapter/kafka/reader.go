package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/config"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
)

// defaultPollTimeout bounds how long ExtractBatch waits for additional
// messages once it has at least one, so a trickle of telemetry still flushes
// promptly.
const defaultPollTimeout = 250 * time.Millisecond

// Reader consumes raw telemetry from the source Kafka topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader      *kafkago.Reader
	pollTimeout time.Duration
	logger      *slog.Logger
}

// NewReader creates a Kafka consumer for the configured source topic. Offsets
// are committed explicitly through each message's Commit closure, never
// automatically, so a crash replays unacknowledged telemetry.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaSourceTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	pollTimeout := cfg.BatchFlushInterval
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Reader{reader: r, pollTimeout: pollTimeout, logger: logger}
}

// ExtractBatch reads up to batchSize messages. It blocks for the first
// message, then drains whatever else arrives within the poll timeout, so the
// pipeline sees full batches under load and single messages when idle.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	batch := make([]domain.RawEvent, 0, batchSize)
	batch = append(batch, r.toRawEvent(first))

	for len(batch) < batchSize {
		pollCtx, cancel := context.WithTimeout(ctx, r.pollTimeout)
		msg, err := r.reader.FetchMessage(pollCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			if ctx.Err() != nil {
				// Return what we have; the pipeline shuts down after this batch.
				break
			}
			return nil, err
		}
		batch = append(batch, r.toRawEvent(msg))
	}

	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

func (r *Reader) toRawEvent(msg kafkago.Message) domain.RawEvent {
	raw := mapMessageToRawEvent(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

// mapMessageToRawEvent converts a Kafka message into the domain representation.
// The Commit closure is attached separately by the Reader.
func mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
