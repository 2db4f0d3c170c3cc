// Package resolver maps classified intents to canned response policies and
// derives ticket category and priority for escalations.
package resolver

import (
	"strings"

	"github.com/algo-rangers/support-service/internal/classifier"
	"github.com/algo-rangers/support-service/internal/model"
)

// Policy describes how to answer one intent: the canned text, whether it can
// be answered directly, and the ticket-offer follow-up when it cannot.
type Policy struct {
	Response    string
	CanAnswer   bool
	FollowUp    string
	NeedsTicket bool
}

// policies is the fixed intent table. ticket_lookup and ticket_status_request
// with an id present are routed specially by the controller, not through here.
var policies = map[string]Policy{
	classifier.IntentShipping: {
		Response:  "Our standard shipping takes 3-5 business days. Express shipping is available for 1-2 business days. You'll receive a tracking number once your order ships.",
		CanAnswer: true,
	},
	classifier.IntentRefund: {
		Response:  "Refunds are processed within 5-7 business days after we receive your return. The refund will be credited to your original payment method.",
		CanAnswer: true,
	},
	classifier.IntentReturn: {
		Response: "You can return items within 30 days of delivery. Items must be in original condition. Please visit our returns page or I can create a return ticket for you.",
		FollowUp: "Would you like me to create a return ticket for you?",
	},
	classifier.IntentLogin: {
		Response: "For login issues, please try resetting your password first. If that doesn't work, I'll create a support ticket for our technical team.",
		FollowUp: "Would you like me to create a support ticket for your login issue?",
	},
	classifier.IntentAccount: {
		Response: "For account changes, you can update most information in your profile settings. For billing or sensitive changes, I'll need to create a support ticket.",
		FollowUp: "Would you like me to create a ticket for account assistance?",
	},
	classifier.IntentOrderStatus: {
		Response:  "To check your order status, I'll need your order number or ticket ID. Please share it with me.",
		CanAnswer: true,
	},
	classifier.IntentGreeting: {
		Response:  "Hello! I'm your customer support assistant. How can I help you today?",
		CanAnswer: true,
	},
	classifier.IntentTicketStatusRequest: {
		Response:  "Sure! Please provide your ticket ID (format: TCKT-YYYYMMDD-XXX).",
		CanAnswer: true,
	},
	classifier.IntentTicketRequest: {
		Response:    "I'd be happy to create a support ticket for you. Could you please describe your issue in detail?",
		NeedsTicket: true,
	},
	classifier.IntentComplex: {
		Response:    "I understand you need assistance, but this seems like a complex issue that would be best handled by our support team.",
		FollowUp:    "Would you like me to create a support ticket for you?",
		NeedsTicket: true,
	},
}

// Resolve returns the policy for an intent. Anything not in the table,
// including unknown labels, resolves to the complex policy.
func Resolve(intent string) Policy {
	if p, ok := policies[intent]; ok {
		return p
	}
	return policies[classifier.IntentComplex]
}

var categoryMap = map[string]string{
	classifier.IntentReturn:        "Returns",
	classifier.IntentRefund:        "Refunds",
	classifier.IntentLogin:         "Technical",
	classifier.IntentAccount:       "Account",
	classifier.IntentShipping:      "Shipping",
	classifier.IntentOrderStatus:   "Orders",
	classifier.IntentComplex:       "General Support",
	classifier.IntentTicketRequest: "General Support",
}

// TicketCategory maps an intent to a ticket category, defaulting to General Support.
func TicketCategory(intent string) string {
	if c, ok := categoryMap[intent]; ok {
		return c
	}
	return "General Support"
}

var (
	urgentKeywords = []string{"urgent", "emergency", "asap", "immediately", "critical", "broken"}
	highKeywords   = []string{"important", "soon", "quickly", "deadline"}
)

// TicketPriority derives a priority from message content. Urgent keywords win
// over high keywords when both appear.
func TicketPriority(message string) model.TicketPriority {
	lower := strings.ToLower(message)
	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			return model.TicketPriorityUrgent
		}
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return model.TicketPriorityHigh
		}
	}
	return model.TicketPriorityMedium
}
