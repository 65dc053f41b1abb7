package worker

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/krishnaqnq/todo/internal/models"
	"github.com/krishnaqnq/todo/pkg/logger"
)

// EventRecorder persists consumed events.
type EventRecorder interface {
	Record(ctx context.Context, ev *models.TodoEvent) error
}

// Run starts the audit consumer: reads todo events from Kafka and records
// them to the events table. One consumer per process; scale by running more
// replicas (the consumer group shares partitions).
func Run(ctx context.Context, brokers []string, topic string, events EventRecorder) {
	if len(brokers) == 0 {
		logger.Info(ctx, "Audit worker disabled (no Kafka brokers)")
		return
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "todo-audit",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	logger.Info(ctx, "Audit consumer started", "topic", topic)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, events, msg.Value); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway to avoid a poison pill blocking the partition
			_ = reader.CommitMessages(ctx, msg)
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
	}
}

func handleMessage(ctx context.Context, events EventRecorder, payload []byte) error {
	var ev models.TodoEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	return events.Record(ctx, &ev)
}
