package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("key-1"),
		Value:     []byte(`{"event_type":"pothole"}`),
		Topic:     "raw-road-telemetry",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "device_id", Value: []byte("unit-7")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("key-1"), raw.Key)
	assert.JSONEq(t, `{"event_type":"pothole"}`, string(raw.Value))
	assert.Equal(t, "raw-road-telemetry", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "unit-7", raw.Headers["device_id"])
	assert.Nil(t, raw.Commit, "the commit closure is attached by the reader")
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	event := domain.SensorEvent{
		ID:          "pothole-abc123",
		EventType:   domain.EventPothole,
		Geo:         domain.GeoPoint{Lat: 30.7411, Lon: 76.7842},
		Severity:    72,
		ProcessedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("pothole-abc123"), msg.Key)
	assert.Contains(t, string(msg.Value), `"event_type":"pothole"`)
	assert.Contains(t, string(msg.Value), `"severity":72`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("pothole"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}
