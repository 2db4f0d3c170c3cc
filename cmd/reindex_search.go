package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/algo-rangers/support-service/internal/config"
	"github.com/algo-rangers/support-service/internal/database"
	"github.com/algo-rangers/support-service/internal/kafka"
	"github.com/algo-rangers/support-service/internal/logger"
	"github.com/algo-rangers/support-service/internal/searchindex"
	"github.com/algo-rangers/support-service/internal/store"
)

var reindexSearchCmd = &cobra.Command{
	Use:   "reindex-search",
	Short: "Reindex all tickets into search. Prefers Kafka; falls back to HTTP if SEARCH_SERVICE_URL set.",
	RunE:  runReindexSearch,
}

func init() {
	rootCmd.AddCommand(reindexSearchCmd)
}

func runReindexSearch(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	st := store.New(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	tickets, err := st.AllTickets(ctx)
	if err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}
	log.Info().Int("count", len(tickets)).Msg("reindex-search: tickets found")

	// Prefer Kafka, then HTTP
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopicTicket != "" {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
		defer producer.Close()
		for i := range tickets {
			producer.ProduceTicketEvent(ctx, "ticket.updated", kafka.TicketPayload(&tickets[i]))
		}
		log.Info().Int("count", len(tickets)).Msg("reindex-search: events sent to Kafka")
		return nil
	}
	if cfg.SearchServiceURL != "" {
		client := searchindex.NewClient(cfg.SearchServiceURL)
		for i := range tickets {
			client.IndexTicket(ctx, &tickets[i])
		}
		log.Info().Int("count", len(tickets)).Msg("reindex-search: tickets indexed via HTTP")
		return nil
	}
	log.Warn().Msg("reindex-search: neither KAFKA_BROKERS nor SEARCH_SERVICE_URL set, nothing reindexed")
	return nil
}
