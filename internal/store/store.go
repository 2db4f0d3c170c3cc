package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/algo-rangers/support-service/internal/errs"
	"github.com/algo-rangers/support-service/internal/model"
)

// ticketIDPattern matches the public ticket identifier TCKT-YYYYMMDD-NNN.
var ticketIDPattern = regexp.MustCompile(`^TCKT-\d{8}-\d{3}$`)

// maxIDAttempts bounds retries when two same-day creations race on the
// daily sequence number.
const maxIDAttempts = 5

// TicketStore persists users, conversations and support tickets.
type TicketStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *TicketStore {
	return &TicketStore{db: db}
}

// GetOrCreateUser returns the user for a session, creating it on first contact.
func (s *TicketStore) GetOrCreateUser(ctx context.Context, sessionID, username, email string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	u = model.User{
		SessionID: sessionID,
		Username:  username,
		Email:     email,
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		// Lost a race with a concurrent first message for the same session.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if lookupErr := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&u).Error; lookupErr == nil {
				return &u, nil
			}
		}
		return nil, err
	}
	return &u, nil
}

// SaveConversation appends one completed turn to the conversation history.
func (s *TicketStore) SaveConversation(ctx context.Context, sessionID, message, response, modelUsed string, tokensUsed int) (uint64, error) {
	c := model.Conversation{
		SessionID:  sessionID,
		Message:    message,
		Response:   response,
		ModelUsed:  modelUsed,
		TokensUsed: tokensUsed,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return 0, err
	}
	return c.ID, nil
}

// ConversationHistory returns the most recent turns for a session, newest first.
func (s *TicketStore) ConversationHistory(ctx context.Context, sessionID string, limit int) ([]model.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []model.Conversation
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// UserStats aggregates per-session usage counters.
type UserStats struct {
	TotalConversations int64 `json:"total_conversations"`
	TotalTokensUsed    int64 `json:"total_tokens_used"`
	TotalTickets       int64 `json:"total_tickets"`
}

func (s *TicketStore) Stats(ctx context.Context, sessionID string) (*UserStats, error) {
	var out UserStats
	tx := s.db.WithContext(ctx)
	if err := tx.Model(&model.Conversation{}).Where("session_id = ?", sessionID).Count(&out.TotalConversations).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&model.Conversation{}).Where("session_id = ?", sessionID).
		Select("COALESCE(SUM(tokens_used), 0)").Scan(&out.TotalTokensUsed).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&model.SupportTicket{}).Where("session_id = ?", sessionID).Count(&out.TotalTickets).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTicket creates a support ticket with a fresh TCKT-YYYYMMDD-NNN id.
// The daily sequence is computed inside the insert transaction; a duplicate-key
// conflict from a concurrent same-day creation recomputes and retries.
func (s *TicketStore) CreateTicket(ctx context.Context, sessionID, issueDescription, category string, priority model.TicketPriority) (*model.SupportTicket, error) {
	if priority == "" {
		priority = model.TicketPriorityMedium
	}
	day := time.Now().UTC().Format("20060102")
	prefix := "TCKT-" + day + "-"

	var created *model.SupportTicket
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var todays int64
			if err := tx.Model(&model.SupportTicket{}).
				Where("ticket_id LIKE ?", prefix+"%").
				Count(&todays).Error; err != nil {
				return err
			}
			t := &model.SupportTicket{
				TicketID:         fmt.Sprintf("%s%03d", prefix, todays+1),
				SessionID:        sessionID,
				IssueDescription: issueDescription,
				Category:         category,
				Priority:         priority,
				Status:           model.TicketStatusOpen,
			}
			if err := tx.Create(t).Error; err != nil {
				return err
			}
			created = t
			return nil
		})
		if err == nil {
			return created, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("create ticket: exhausted %d attempts at a unique daily id", maxIDAttempts)
}

// TicketByID looks a ticket up by its public id, case-insensitively.
// Malformed ids are reported as not found rather than as a distinct error.
func (s *TicketStore) TicketByID(ctx context.Context, ticketID string) (*model.SupportTicket, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticketID))
	if !ticketIDPattern.MatchString(normalized) {
		return nil, errs.ErrTicketNotFound
	}
	var t model.SupportTicket
	if err := s.db.WithContext(ctx).Where("ticket_id = ?", normalized).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// UserTickets returns all tickets for a session, newest first.
func (s *TicketStore) UserTickets(ctx context.Context, sessionID string) ([]model.SupportTicket, error) {
	var items []model.SupportTicket
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// AllTickets lists every ticket; used by the reindex command.
func (s *TicketStore) AllTickets(ctx context.Context) ([]model.SupportTicket, error) {
	var items []model.SupportTicket
	err := s.db.WithContext(ctx).Find(&items).Error
	return items, err
}

// UpdateTicketStatus sets a ticket's status and optionally the assigned agent.
// Transitioning into Resolved or Closed stamps resolved_at.
func (s *TicketStore) UpdateTicketStatus(ctx context.Context, ticketID string, status model.TicketStatus, assignedAgent string) (*model.SupportTicket, error) {
	t, err := s.TicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	changes := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if assignedAgent != "" {
		changes["assigned_agent"] = assignedAgent
	}
	switch strings.ToLower(string(status)) {
	case "resolved", "closed":
		changes["resolved_at"] = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Model(t).Updates(changes).Error; err != nil {
		return nil, err
	}
	// Updates does not refresh every field on the struct; re-read the row.
	return s.TicketByID(ctx, t.TicketID)
}
