// Package conversation orchestrates one chat turn: routing between the
// pending-ticket confirmation handler, ticket lookup, and the
// classifier/resolver pipeline.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/algo-rangers/support-service/internal/classifier"
	"github.com/algo-rangers/support-service/internal/errs"
	"github.com/algo-rangers/support-service/internal/llm"
	"github.com/algo-rangers/support-service/internal/model"
	"github.com/algo-rangers/support-service/internal/resolver"
)

// ModelSupportLogic is the model_used attribution for turns answered by the
// deterministic support logic rather than the LLM.
const ModelSupportLogic = "support-logic"

var (
	affirmativeTokens = []string{"yes", "please", "create", "y"}
	negativeTokens    = []string{"no", "cancel", "nevermind"}
)

// Store is the persistence contract the controller consumes.
type Store interface {
	GetOrCreateUser(ctx context.Context, sessionID, username, email string) (*model.User, error)
	SaveConversation(ctx context.Context, sessionID, message, response, modelUsed string, tokensUsed int) (uint64, error)
	CreateTicket(ctx context.Context, sessionID, issueDescription, category string, priority model.TicketPriority) (*model.SupportTicket, error)
	TicketByID(ctx context.Context, ticketID string) (*model.SupportTicket, error)
}

// TicketNotifier receives best-effort notifications about created tickets
// (event bus, search indexing). Implementations must not block the turn.
type TicketNotifier interface {
	TicketCreated(t *model.SupportTicket)
}

// Reply is the outcome of one handled turn.
type Reply struct {
	Text                string  `json:"reply"`
	Intent              string  `json:"intent,omitempty"`
	Confidence          float64 `json:"confidence,omitempty"`
	PendingConfirmation bool    `json:"pending_confirmation"`
	TicketID            string  `json:"ticket_id,omitempty"`
	ModelUsed           string  `json:"model_used"`
	TokensUsed          int     `json:"tokens_used,omitempty"`
}

// Controller routes messages per session. Per-session transient state (the
// pending ticket offer) is isolated in the session registry; sessions never
// share mutable state.
type Controller struct {
	store    Store
	classify classifier.Classifier
	chat     llm.Completer
	notify   TicketNotifier
	log      zerolog.Logger
	sessions *sessionRegistry
}

func NewController(st Store, cl classifier.Classifier, chat llm.Completer, notify TicketNotifier, log zerolog.Logger) *Controller {
	return &Controller{
		store:    st,
		classify: cl,
		chat:     chat,
		notify:   notify,
		log:      log,
		sessions: newSessionRegistry(),
	}
}

// HandleMessage processes one incoming message for a session and returns the
// assistant's reply. Turns within a session are serialized.
func (c *Controller) HandleMessage(ctx context.Context, sessionID, message string) (*Reply, error) {
	sess := c.sessions.get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := c.store.GetOrCreateUser(ctx, sessionID, "", ""); err != nil {
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("conversation: get or create user failed")
	}

	var reply *Reply
	if sess.pending != nil {
		reply = c.handleConfirmation(ctx, sessionID, sess, message)
	} else {
		reply = c.handleIdle(ctx, sessionID, sess, message)
	}
	reply.PendingConfirmation = sess.pending != nil

	// History saves are best-effort: the user still gets the reply.
	if _, err := c.store.SaveConversation(ctx, sessionID, message, reply.Text, reply.ModelUsed, reply.TokensUsed); err != nil {
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("conversation: save history failed")
	}
	return reply, nil
}

// Reset clears any pending ticket offer for the session.
func (c *Controller) Reset(sessionID string) {
	sess := c.sessions.get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.pending = nil
}

func (c *Controller) handleConfirmation(ctx context.Context, sessionID string, sess *session, message string) *Reply {
	switch {
	case containsToken(message, affirmativeTokens):
		pending := sess.pending
		sess.pending = nil
		desc := pending.description
		if desc == "" {
			desc = message
		}
		t, err := c.store.CreateTicket(ctx, sessionID, desc, pending.category, pending.priority)
		if err != nil {
			// Claiming success with no persisted ticket would be worse than
			// admitting failure.
			c.log.Error().Err(err).Str("session_id", sessionID).Msg("conversation: ticket creation failed")
			return &Reply{
				Text:      "I'm sorry, I wasn't able to create your ticket just now. Please try again in a moment.",
				ModelUsed: ModelSupportLogic,
			}
		}
		if c.notify != nil {
			c.notify.TicketCreated(t)
		}
		return &Reply{
			Text: fmt.Sprintf(
				"I've created support ticket %s for you (category: %s, priority: %s). Our team will follow up as soon as possible. You can check its status anytime by sharing the ticket ID.",
				t.TicketID, t.Category, t.Priority),
			TicketID:  t.TicketID,
			ModelUsed: ModelSupportLogic,
		}

	case containsToken(message, negativeTokens):
		sess.pending = nil
		return &Reply{
			Text:      "No problem! Is there anything else I can help you with?",
			ModelUsed: ModelSupportLogic,
		}

	default:
		// Stay in the confirmation state until we get an explicit yes or no.
		return &Reply{
			Text:      "Just to confirm — would you like me to create a support ticket? Please reply yes or no.",
			ModelUsed: ModelSupportLogic,
		}
	}
}

func (c *Controller) handleIdle(ctx context.Context, sessionID string, sess *session, message string) *Reply {
	res := c.classify.Classify(ctx, message)

	if res.Intent == classifier.IntentTicketLookup {
		r := c.lookupTicket(ctx, message)
		r.Intent = res.Intent
		r.Confidence = res.Confidence
		return r
	}

	policy := resolver.Resolve(res.Intent)
	switch {
	case policy.CanAnswer:
		return &Reply{
			Text:       policy.Response,
			Intent:     res.Intent,
			Confidence: res.Confidence,
			ModelUsed:  ModelSupportLogic,
		}

	case policy.FollowUp != "":
		sess.pending = &pendingTicket{
			description: message,
			category:    resolver.TicketCategory(res.Intent),
			priority:    resolver.TicketPriority(message),
		}
		return &Reply{
			Text:       policy.Response + " " + policy.FollowUp,
			Intent:     res.Intent,
			Confidence: res.Confidence,
			ModelUsed:  ModelSupportLogic,
		}

	default:
		return c.freeFormAnswer(ctx, message, res, policy)
	}
}

func (c *Controller) lookupTicket(ctx context.Context, message string) *Reply {
	id := classifier.ExtractTicketID(message)
	if id == "" {
		// The remote model can label a message ticket_lookup without an
		// actual id in it; ask for one instead of failing the lookup.
		return &Reply{
			Text:      resolver.Resolve(classifier.IntentTicketStatusRequest).Response,
			ModelUsed: ModelSupportLogic,
		}
	}
	t, err := c.store.TicketByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			return &Reply{
				Text:      fmt.Sprintf("I couldn't find a ticket with ID %s. Please double-check the ID and try again.", id),
				ModelUsed: ModelSupportLogic,
			}
		}
		c.log.Error().Err(err).Str("ticket_id", id).Msg("conversation: ticket lookup failed")
		return &Reply{
			Text:      "I'm having trouble accessing ticket records right now. Please try again shortly.",
			ModelUsed: ModelSupportLogic,
		}
	}
	return &Reply{
		Text:      fmt.Sprintf("Ticket %s %s. Category: %s, priority: %s.", t.TicketID, statusNarrative(t.Status), t.Category, t.Priority),
		TicketID:  t.TicketID,
		ModelUsed: ModelSupportLogic,
	}
}

// freeFormAnswer delegates unanswerable intents without an escalation prompt
// to the LLM. When the provider is unavailable the canned policy text is the
// graceful degradation.
func (c *Controller) freeFormAnswer(ctx context.Context, message string, res classifier.Result, policy resolver.Policy) *Reply {
	if c.chat != nil {
		completion, err := c.chat.Complete(ctx, message)
		if err == nil && completion.Text != "" {
			return &Reply{
				Text:       completion.Text,
				Intent:     res.Intent,
				Confidence: res.Confidence,
				ModelUsed:  completion.Model,
				TokensUsed: completion.TokensUsed,
			}
		}
		if err != nil {
			c.log.Warn().Err(err).Msg("conversation: free-form completion failed")
		}
	}
	return &Reply{
		Text:       policy.Response,
		Intent:     res.Intent,
		Confidence: res.Confidence,
		ModelUsed:  ModelSupportLogic,
	}
}

func statusNarrative(status model.TicketStatus) string {
	switch strings.ToLower(string(status)) {
	case "open":
		return "is currently being reviewed"
	case "in progress":
		return "is being actively worked on"
	case "resolved":
		return "has been resolved"
	default:
		return "is currently marked as " + string(status)
	}
}

// containsToken reports whether any whitespace-separated word of the message,
// stripped of surrounding punctuation, equals one of the tokens.
func containsToken(message string, tokens []string) bool {
	for _, field := range strings.Fields(strings.ToLower(message)) {
		word := strings.Trim(field, ".,!?;:'\"")
		for _, t := range tokens {
			if word == t {
				return true
			}
		}
	}
	return false
}
