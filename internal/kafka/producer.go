package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/algo-rangers/support-service/internal/model"
)

// TicketPayload builds the shared event body for ticket.created/ticket.updated.
func TicketPayload(t *model.SupportTicket) map[string]interface{} {
	return map[string]interface{}{
		"ticket_id":         t.TicketID,
		"session_id":        t.SessionID,
		"issue_description": t.IssueDescription,
		"category":          t.Category,
		"priority":          string(t.Priority),
		"status":            string(t.Status),
	}
}

// TicketEventProducer publishes ticket lifecycle events (mockable in tests).
type TicketEventProducer interface {
	ProduceTicketEvent(ctx context.Context, event string, payload map[string]interface{})
}

// Producer writes ticket events to a Kafka topic, best-effort: failures are
// logged and never block the chat turn.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer returns a producer. With no brokers or an empty topic the
// methods are no-ops.
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

// ProduceTicketEvent publishes one event. payload carries ticket_id,
// session_id, issue_description, category, priority, status.
func (p *Producer) ProduceTicketEvent(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	msg := map[string]interface{}{"event": event}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		log.Warn().Err(err).Msg("kafka: marshal ticket event")
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: body}); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("kafka: write ticket event")
	}
}

// Close closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
