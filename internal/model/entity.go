package model

import "time"

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityUrgent TicketPriority = "Urgent"
)

// User is created lazily on the first message of a browser session and never deleted.
type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"uniqueIndex;size:255;not null" json:"session_id"`
	Username  string    `gorm:"size:100" json:"username,omitempty"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
}

// Conversation is one completed chat turn. Rows are append-only.
type Conversation struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	SessionID  string    `gorm:"index;size:255;not null" json:"session_id"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Response   string    `gorm:"type:text;not null" json:"response"`
	ModelUsed  string    `gorm:"size:100" json:"model_used,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	TokensUsed int       `gorm:"default:0" json:"tokens_used"`
}

// SupportTicket is a persisted support case. TicketID carries the public
// TCKT-YYYYMMDD-NNN identifier; NNN restarts at 001 each calendar day.
type SupportTicket struct {
	ID               uint64         `gorm:"primaryKey" json:"id"`
	TicketID         string         `gorm:"uniqueIndex;size:50;not null" json:"ticket_id"`
	SessionID        string         `gorm:"index;size:255;not null" json:"session_id"`
	IssueDescription string         `gorm:"type:text;not null" json:"issue_description"`
	Status           TicketStatus   `gorm:"type:varchar(50);index;default:Open" json:"status"`
	Priority         TicketPriority `gorm:"type:varchar(20);default:Medium" json:"priority"`
	Category         string         `gorm:"size:100" json:"category,omitempty"`
	AssignedAgent    string         `gorm:"size:100" json:"assigned_agent,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
