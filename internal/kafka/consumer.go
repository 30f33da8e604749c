package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/metal-price-tracker/internal/logx"
	"github.com/trogers1052/metal-price-tracker/internal/models"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Config() kafka.ReaderConfig
	Close() error
}

// RunFunc runs the pipeline once on behalf of requestedBy
type RunFunc func(ctx context.Context, requestedBy string) error

// TriggerConsumer runs the pipeline for every RUN_REQUESTED event
type TriggerConsumer struct {
	reader messageReader
	run    RunFunc
}

// NewTriggerConsumer creates a consumer for the trigger topic
func NewTriggerConsumer(brokers []string, topic, groupID string, run RunFunc) *TriggerConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &TriggerConsumer{
		reader: reader,
		run:    run,
	}
}

// Start consumes trigger events until ctx is cancelled
func (c *TriggerConsumer) Start(ctx context.Context) error {
	log := logx.FromContext(ctx)
	log.Info("starting trigger consumer", logx.FieldTopic, c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Info("trigger consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.reader.Close()
				}
				log.Error("failed to read trigger message", logx.Error(err))
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				log.Error("failed to process trigger message", logx.Error(err))
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *TriggerConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.TriggerEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal trigger event: %w", err)
	}

	if event.EventType != models.EventRunRequested {
		logx.FromContext(ctx).Debug("ignoring event type", logx.FieldEventType, event.EventType)
		return nil
	}

	requestedBy := event.RequestedBy
	if requestedBy == "" {
		requestedBy = string(msg.Key)
	}

	if err := c.run(ctx, requestedBy); err != nil {
		return fmt.Errorf("triggered run failed: %w", err)
	}
	return nil
}
