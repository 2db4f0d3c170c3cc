package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/algo-rangers/support-service/internal/model"
)

// Client sends tickets to search-service for indexing (best-effort, never
// blocks the chat turn).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client. With an empty baseURL IndexTicket is a no-op.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// IndexTicketPayload is the body of POST /search/index/ticket.
type IndexTicketPayload struct {
	TicketID         string `json:"ticket_id"`
	SessionID        string `json:"session_id"`
	IssueDescription string `json:"issue_description"`
	Category         string `json:"category"`
	Priority         string `json:"priority"`
	Status           string `json:"status"`
	AssignedAgent    string `json:"assigned_agent,omitempty"`
}

// IndexTicket sends one ticket to search-service. Call in a goroutine after
// create/update.
func (c *Client) IndexTicket(ctx context.Context, t *model.SupportTicket) {
	if c.baseURL == "" {
		return
	}
	payload := IndexTicketPayload{
		TicketID:         t.TicketID,
		SessionID:        t.SessionID,
		IssueDescription: t.IssueDescription,
		Category:         t.Category,
		Priority:         string(t.Priority),
		Status:           string(t.Status),
		AssignedAgent:    t.AssignedAgent,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Msg("searchindex: marshal")
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/index/ticket", bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Msg("searchindex: new request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("searchindex: request")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("ticket_id", t.TicketID).Msg("searchindex: unexpected status")
	}
}

// IndexTicketAsync runs IndexTicket in its own goroutine.
func (c *Client) IndexTicketAsync(t *model.SupportTicket) {
	if c.baseURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.IndexTicket(ctx, t)
	}()
}
