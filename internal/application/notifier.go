package application

import (
	"context"
	"time"

	"github.com/algo-rangers/support-service/internal/kafka"
	"github.com/algo-rangers/support-service/internal/model"
	"github.com/algo-rangers/support-service/internal/searchindex"
)

// ticketNotifier fans a created ticket out to Kafka and the search index.
// Both paths are best-effort and must not block the chat turn.
type ticketNotifier struct {
	producer kafka.TicketEventProducer
	search   *searchindex.Client
}

func (n *ticketNotifier) TicketCreated(t *model.SupportTicket) {
	if n.producer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n.producer.ProduceTicketEvent(ctx, "ticket.created", kafka.TicketPayload(t))
	}
	if n.search != nil {
		n.search.IndexTicketAsync(t)
	}
}
