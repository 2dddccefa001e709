package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// IssueEventProducer — интерфейс отправки событий репорта в Kafka
// (для подмены моком в тестах).
type IssueEventProducer interface {
	ProduceIssueEvent(ctx context.Context, event string, payload map[string]interface{})
}

// Producer пишет события репортов в топик Kafka (best-effort, не блокирует API).
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer создаёт продюсер. Если brokers пустой или topic пустой — методы no-op.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// ProduceIssueEvent отправляет событие репорта в топик. payload: issue_id,
// order_item_id, customer_id, status, resolved_type, carrier_fault, concluded.
func (p *Producer) ProduceIssueEvent(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	msg := map[string]interface{}{"event": event}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("kafka: marshal issue event: %v", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		log.Printf("kafka: write issue event: %v", err)
	}
}

// Close закрывает writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
