package application

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/algo-rangers/support-service/internal/classifier"
	"github.com/algo-rangers/support-service/internal/config"
	"github.com/algo-rangers/support-service/internal/conversation"
	"github.com/algo-rangers/support-service/internal/database"
	"github.com/algo-rangers/support-service/internal/handler"
	"github.com/algo-rangers/support-service/internal/kafka"
	"github.com/algo-rangers/support-service/internal/llm"
	"github.com/algo-rangers/support-service/internal/router"
	"github.com/algo-rangers/support-service/internal/searchindex"
	"github.com/algo-rangers/support-service/internal/store"
)

// API is the app in api mode: HTTP server plus its collaborators.
type API struct {
	cfg      *config.Config
	log      zerolog.Logger
	httpSrv  *http.Server
	producer *kafka.Producer
}

func NewAPI(cfg *config.Config, log zerolog.Logger) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	st := store.New(db)
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	search := searchindex.NewClient(cfg.SearchServiceURL)

	// One OpenAI-compatible client serves both the classifier and the
	// free-form chat fallback; nil when no API key is configured, in which
	// case classification is keyword-only and there is no LLM fallback.
	provider := llm.NewProviderClient(cfg.Groq.APIKey, cfg.Groq.BaseURL)

	var cls classifier.Classifier
	var chat llm.Completer
	if provider != nil {
		cls = classifier.NewRemoteClassifier(provider, cfg.Groq.ClassifierModel, cfg.Groq.ClassifierTimeout, log)
		chat = llm.NewClient(provider, cfg.Groq.ChatModel, log)
	} else {
		log.Warn().Msg("GROQ_API_KEY not set: classification is keyword-only, no free-form fallback")
		cls = classifier.NewKeywordClassifier()
	}

	notify := &ticketNotifier{producer: producer, search: search}
	ctrl := conversation.NewController(st, cls, chat, notify, log)

	h := router.New(
		handler.NewChatHandler(ctrl, log),
		handler.NewTicketHandler(st, producer, search),
		handler.NewHistoryHandler(st),
	)

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		log:      log,
		httpSrv:  httpSrv,
		producer: producer,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info().Str("addr", a.httpSrv.Addr).Msg("HTTP server listening")
	a.log.Info().Str("swagger", base+"/swagger").Str("health", base+"/health").Str("api", base+"/api/v1/").Msg("endpoints")

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		a.log.Warn().Err(err).Msg("kafka close")
	}
	return nil
}
