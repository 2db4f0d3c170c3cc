package classifier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const intentClassificationPrompt = `You are an expert customer support intent classifier. Your job is to analyze customer messages and classify them into specific support categories.

CLASSIFICATION CATEGORIES:

1. **ticket_lookup** - When user provides a specific ticket ID (format: TCKT-YYYYMMDD-XXX)
2. **ticket_status_request** - When user wants to check ticket status but hasn't provided ticket ID yet
3. **greeting** - Simple greetings without specific requests (hi, hello, hey, good morning)
4. **shipping** - Questions about delivery, shipping times, tracking, when orders will arrive
5. **refund** - Questions about getting money back, refund process, canceling orders
6. **return** - Questions about returning items, exchanges, defective products
7. **login** - Problems with logging in, password issues, account access
8. **account** - Account information changes, profile updates, billing
9. **order_status** - Checking order status, where is my order
10. **ticket_request** - Explicit requests to create new tickets
11. **complex** - Complex issues that need human support but don't fit other categories

RESPONSE FORMAT:
Return ONLY a JSON object with this exact structure:
{
    "intent": "category_name",
    "confidence": 0.95,
    "reasoning": "brief explanation"
}

CLASSIFICATION RULES:
- If message contains ticket ID pattern (TCKT-YYYYMMDD-XXX), always classify as "ticket_lookup"
- If user wants to check ticket status but no ID provided, use "ticket_status_request"
- Simple greetings (1-3 words) should be "greeting"
- Be very specific about shipping vs order_status vs return intent
- If user explicitly asks to create ticket, use "ticket_request"
- When in doubt between categories, choose the most specific one
- Complex technical issues or complaints should be "complex"

Analyze this customer message and classify it:`

// CompletionAPI is the slice of the chat-completions client the remote
// classifier needs; *openai.Client satisfies it.
type CompletionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// RemoteClassifier asks an OpenAI-compatible completion endpoint to classify
// the message and degrades to the keyword tier on any failure: transport
// errors, rate limits, timeouts, unparsable payloads, unknown labels.
type RemoteClassifier struct {
	api      CompletionAPI
	model    string
	timeout  time.Duration
	fallback *KeywordClassifier
	log      zerolog.Logger
}

func NewRemoteClassifier(api CompletionAPI, modelName string, timeout time.Duration, log zerolog.Logger) *RemoteClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteClassifier{
		api:      api,
		model:    modelName,
		timeout:  timeout,
		fallback: NewKeywordClassifier(),
		log:      log,
	}
}

func (rc *RemoteClassifier) Classify(ctx context.Context, message string) Result {
	// An embedded ticket id is authoritative, no model call needed.
	if ExtractTicketID(message) != "" {
		return Result{Intent: IntentTicketLookup, Confidence: 0.99, Reasoning: "Contains ticket ID pattern"}
	}
	if rc.api == nil {
		return rc.fallback.Classify(ctx, message)
	}

	callCtx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()

	resp, err := rc.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       rc.model,
		Temperature: 0.1,
		MaxTokens:   100,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: intentClassificationPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		rc.log.Warn().Err(err).Msg("classifier: remote call failed, using keyword fallback")
		return rc.fallback.Classify(ctx, message)
	}
	if len(resp.Choices) == 0 {
		rc.log.Warn().Msg("classifier: remote returned no choices, using keyword fallback")
		return rc.fallback.Classify(ctx, message)
	}

	result, ok := parsePayload(resp.Choices[0].Message.Content)
	if !ok {
		rc.log.Warn().Msg("classifier: unparsable remote payload, using keyword fallback")
		return rc.fallback.Classify(ctx, message)
	}
	return result
}

// parsePayload decodes the model's reply defensively: the JSON object is
// extracted between the first '{' and the last '}' in case the model wrapped
// it in prose or a code fence.
func parsePayload(raw string) (Result, bool) {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Result{}, false
	}

	var payload struct {
		Intent     string   `json:"intent"`
		Confidence *float64 `json:"confidence"`
		Reasoning  string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return Result{}, false
	}

	r := Result{
		Intent:     payload.Intent,
		Confidence: 0.5,
		Reasoning:  payload.Reasoning,
	}
	if payload.Confidence != nil {
		r.Confidence = *payload.Confidence
	}
	if r.Intent == "" {
		r.Intent = IntentComplex
	}
	if r.Reasoning == "" {
		r.Reasoning = "AI classification"
	}
	if !validIntents[r.Intent] {
		r.Intent = IntentComplex
		r.Confidence = 0.5
	}
	return r, true
}
