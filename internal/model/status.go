package model

import "strings"

// ParseTicketStatus normalizes a user-supplied status string. Matching is
// case-insensitive and tolerates underscores ("in_progress").
func ParseTicketStatus(s string) (TicketStatus, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
	switch normalized {
	case "open":
		return TicketStatusOpen, true
	case "in progress":
		return TicketStatusInProgress, true
	case "resolved":
		return TicketStatusResolved, true
	case "closed":
		return TicketStatusClosed, true
	}
	return "", false
}
