package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

type mockWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func TestProducer_PublishPriceRecorded(t *testing.T) {
	writer := &mockWriter{}
	p := &Producer{writer: writer, topic: "prices"}

	g, s := int64(1500), int64(-50)
	record := &models.PriceRecord{
		ID:     1,
		Date:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Gold:   151500,
		Silver: 1950,
	}

	err := p.PublishPriceRecorded(context.Background(), "run1", record, models.DiffResult{GoldDiff: &g, SilverDiff: &s})
	require.NoError(t, err)
	require.Len(t, writer.msgs, 1)
	assert.Equal(t, "2024-01-15", string(writer.msgs[0].Key))

	var event models.PriceEvent
	require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &event))
	assert.Equal(t, models.EventPriceRecorded, event.EventType)
	assert.Equal(t, "2024-01-15", event.Date)
	assert.Equal(t, "run1", event.RunID)
	assert.Equal(t, int64(151500), event.Record.Gold)
	require.NotNil(t, event.Diff.SilverDiff)
	assert.Equal(t, int64(-50), *event.Diff.SilverDiff)
}

func TestProducer_PublishPriceRecorded_NullDiff(t *testing.T) {
	writer := &mockWriter{}
	p := &Producer{writer: writer}

	record := &models.PriceRecord{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Gold: 1, Silver: 1}
	require.NoError(t, p.PublishPriceRecorded(context.Background(), "", record, models.DiffResult{}))

	assert.Contains(t, string(writer.msgs[0].Value), `"gold_diff":null`)
}

func TestProducer_RequestRun(t *testing.T) {
	writer := &mockWriter{}
	p := &Producer{writer: writer}

	require.NoError(t, p.RequestRun(context.Background(), "cli"))

	var event models.TriggerEvent
	require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &event))
	assert.Equal(t, models.EventRunRequested, event.EventType)
	assert.Equal(t, "cli", event.RequestedBy)
}

func TestProducer_WriteFailure(t *testing.T) {
	p := &Producer{writer: &mockWriter{err: errors.New("broker down")}}

	err := p.RequestRun(context.Background(), "cli")
	assert.ErrorContains(t, err, "broker down")
}
