package kafka

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing price events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishPriceRecorded publishes a price recorded event keyed by date
func (p *Producer) PublishPriceRecorded(ctx context.Context, runID string, record *models.PriceRecord, diff models.DiffResult) error {
	date := record.Date.Format(models.DateLayout)
	event := models.PriceEvent{
		EventType: models.EventPriceRecorded,
		Date:      date,
		Record:    record,
		Diff:      diff,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
	}
	return p.publish(ctx, date, event)
}

// RequestRun publishes a run request, picked up by a TriggerConsumer
func (p *Producer) RequestRun(ctx context.Context, requestedBy string) error {
	event := models.TriggerEvent{
		EventType:   models.EventRunRequested,
		RequestedBy: requestedBy,
		Timestamp:   time.Now().UTC(),
	}
	return p.publish(ctx, requestedBy, event)
}

func (p *Producer) publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
