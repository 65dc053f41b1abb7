package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/krishnaqnq/todo/internal/models"
	"github.com/krishnaqnq/todo/pkg/logger"
)

// Publisher emits todo mutation events for the audit worker. A nil *Publisher
// is valid and drops everything; request success never depends on Kafka.
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher builds an async writer, or nil when no brokers are configured.
func NewPublisher(ctx context.Context, brokers []string, topic string) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Async:        true,
		RequiredAcks: kafka.RequireOne,
	}
	logger.Info(ctx, "Kafka producer initialized", "topic", topic, "brokers", brokers)
	return &Publisher{writer: w, topic: topic}
}

// EnsureTopic creates the events topic (idempotent). If it fails the app
// still runs; events are simply dropped until a broker appears.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int) {
	if len(brokers) == 0 {
		return
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug(ctx, "Kafka create topic failed (topic may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", topic, "partitions", partitions)
}

// Publish emits one event, fire-and-forget. Failures are logged, not returned:
// the mutation already committed and the audit trail is best-effort.
func (p *Publisher) Publish(ctx context.Context, ev *models.TodoEvent) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error(ctx, "Marshal todo event failed", "error", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.OwnerID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "Publish todo event failed", "error", err, "action", ev.Action)
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
