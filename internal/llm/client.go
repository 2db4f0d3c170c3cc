// Package llm wraps the OpenAI-compatible completion provider used for
// free-form answers when no canned policy applies.
package llm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const chatSystemPrompt = `You are a friendly customer support assistant for an online store. Answer the customer's question helpfully and concisely. If the issue needs human attention, suggest that a support ticket can be created.`

// API is the slice of the provider client this package uses.
type API interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// Completion is one free-form answer with its attribution.
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}

// Completer produces a free-form answer for a single message.
type Completer interface {
	Complete(ctx context.Context, message string) (*Completion, error)
}

// Client calls the provider with either a pinned model or the best available
// chat model, re-resolved at most once per modelTTL.
type Client struct {
	api   API
	model string
	log   zerolog.Logger

	mu       sync.Mutex
	pickedAt time.Time
	picked   string
	modelTTL time.Duration
}

func NewClient(api API, modelName string, log zerolog.Logger) *Client {
	return &Client{
		api:      api,
		model:    modelName,
		log:      log,
		modelTTL: time.Hour,
	}
}

// NewProviderClient builds the underlying OpenAI-compatible client pointed at
// the provider base URL (Groq by default); nil when no API key is configured.
func NewProviderClient(apiKey, baseURL string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func (c *Client) Complete(ctx context.Context, message string) (*Completion, error) {
	modelName, err := c.resolveModel(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return &Completion{Model: modelName}, nil
	}
	return &Completion{
		Text:       resp.Choices[0].Message.Content,
		Model:      modelName,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// resolveModel returns the pinned model, or auto-selects from the provider's
// model list and caches the choice.
func (c *Client) resolveModel(ctx context.Context) (string, error) {
	if c.model != "" {
		return c.model, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.picked != "" && time.Since(c.pickedAt) < c.modelTTL {
		return c.picked, nil
	}

	list, err := c.api.ListModels(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	best := PickChatModel(ids)
	if best == "" {
		c.log.Warn().Msg("llm: provider returned no usable chat models")
		return "", ErrNoChatModel
	}
	c.picked = best
	c.pickedAt = time.Now()
	c.log.Info().Str("model", best).Msg("llm: auto-selected chat model")
	return best, nil
}
