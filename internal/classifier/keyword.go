package classifier

import (
	"context"
	"strings"
)

// keywordRule is one ordered fallback rule. Rules are substring tests with no
// mutual exclusivity, so order is significant: the first match wins.
type keywordRule struct {
	intent     string
	confidence float64
	reasoning  string
	keywords   []string
	// maxTokens, when > 0, additionally requires the message to have at most
	// that many whitespace-separated tokens (used for greetings).
	maxTokens int
}

var fallbackRules = []keywordRule{
	{IntentTicketStatusRequest, 0.8, "Ticket status keywords", []string{"check status", "ticket status", "status of my ticket"}, 0},
	{IntentGreeting, 0.9, "Simple greeting", []string{"hi", "hello", "hey"}, 3},
	{IntentShipping, 0.7, "Shipping keywords", []string{"ship", "delivery", "tracking"}, 0},
	{IntentRefund, 0.7, "Refund keywords", []string{"refund", "money back"}, 0},
	{IntentReturn, 0.7, "Return keywords", []string{"return", "exchange", "broken"}, 0},
	{IntentLogin, 0.7, "Login keywords", []string{"login", "password", "sign in"}, 0},
	{IntentAccount, 0.7, "Account keywords", []string{"account", "profile", "billing"}, 0},
	{IntentOrderStatus, 0.7, "Order status keywords", []string{"order status", "where is my order"}, 0},
	{IntentTicketRequest, 0.8, "Ticket creation keywords", []string{"create ticket", "new ticket", "need help"}, 0},
}

// KeywordClassifier is the deterministic fallback tier. It also serves as the
// sole tier when no LLM provider is configured.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (kc *KeywordClassifier) Classify(_ context.Context, message string) Result {
	if ExtractTicketID(message) != "" {
		return Result{Intent: IntentTicketLookup, Confidence: 0.99, Reasoning: "Contains ticket ID"}
	}

	lower := strings.ToLower(message)
	tokens := len(strings.Fields(lower))
	for _, rule := range fallbackRules {
		if rule.maxTokens > 0 && tokens > rule.maxTokens {
			continue
		}
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return Result{Intent: rule.intent, Confidence: rule.confidence, Reasoning: rule.reasoning}
			}
		}
	}
	return Result{Intent: IntentComplex, Confidence: 0.5, Reasoning: "No specific category matched"}
}
