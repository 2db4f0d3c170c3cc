// Package classifier assigns an intent category to incoming support messages.
//
// Classification runs in two tiers: a remote LLM call (OpenAI-compatible
// chat completions) and a deterministic keyword fallback that takes over on
// any remote failure. Neither tier ever returns an error to the caller.
package classifier

import (
	"context"
	"regexp"
	"strings"
)

// Known intent labels.
const (
	IntentTicketLookup        = "ticket_lookup"
	IntentTicketStatusRequest = "ticket_status_request"
	IntentGreeting            = "greeting"
	IntentShipping            = "shipping"
	IntentRefund              = "refund"
	IntentReturn              = "return"
	IntentLogin               = "login"
	IntentAccount             = "account"
	IntentOrderStatus         = "order_status"
	IntentTicketRequest       = "ticket_request"
	IntentComplex             = "complex"
)

var validIntents = map[string]bool{
	IntentTicketLookup:        true,
	IntentTicketStatusRequest: true,
	IntentGreeting:            true,
	IntentShipping:            true,
	IntentRefund:              true,
	IntentReturn:              true,
	IntentLogin:               true,
	IntentAccount:             true,
	IntentOrderStatus:         true,
	IntentTicketRequest:       true,
	IntentComplex:             true,
}

// ticketIDRe matches a public ticket id anywhere in a message.
var ticketIDRe = regexp.MustCompile(`TCKT-\d{8}-\d{3}`)

// Result is the outcome of classifying one message. It is transient and
// never persisted.
type Result struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classifier is the single-method capability the conversation controller
// depends on; tests substitute a stub to avoid the network.
type Classifier interface {
	Classify(ctx context.Context, message string) Result
}

// ExtractTicketID returns the first ticket id embedded in the message,
// upper-cased, or "" when none is present.
func ExtractTicketID(message string) string {
	return ticketIDRe.FindString(strings.ToUpper(message))
}
