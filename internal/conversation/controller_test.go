package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algo-rangers/support-service/internal/classifier"
	"github.com/algo-rangers/support-service/internal/errs"
	"github.com/algo-rangers/support-service/internal/llm"
	"github.com/algo-rangers/support-service/internal/model"
)

type savedTurn struct {
	message   string
	response  string
	modelUsed string
}

type fakeStore struct {
	tickets   map[string]*model.SupportTicket
	created   []*model.SupportTicket
	saved     []savedTurn
	seq       int
	createErr error
	saveErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tickets: make(map[string]*model.SupportTicket)}
}

func (f *fakeStore) GetOrCreateUser(_ context.Context, sessionID, _, _ string) (*model.User, error) {
	return &model.User{SessionID: sessionID, IsActive: true}, nil
}

func (f *fakeStore) SaveConversation(_ context.Context, _, message, response, modelUsed string, _ int) (uint64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.saved = append(f.saved, savedTurn{message: message, response: response, modelUsed: modelUsed})
	return uint64(len(f.saved)), nil
}

func (f *fakeStore) CreateTicket(_ context.Context, sessionID, desc, category string, priority model.TicketPriority) (*model.SupportTicket, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	t := &model.SupportTicket{
		TicketID:         fmt.Sprintf("TCKT-20250115-%03d", f.seq),
		SessionID:        sessionID,
		IssueDescription: desc,
		Category:         category,
		Priority:         priority,
		Status:           model.TicketStatusOpen,
	}
	f.tickets[t.TicketID] = t
	f.created = append(f.created, t)
	return t, nil
}

func (f *fakeStore) TicketByID(_ context.Context, ticketID string) (*model.SupportTicket, error) {
	if t, ok := f.tickets[strings.ToUpper(ticketID)]; ok {
		return t, nil
	}
	return nil, errs.ErrTicketNotFound
}

type stubChat struct {
	text  string
	err   error
	calls int
}

func (s *stubChat) Complete(_ context.Context, _ string) (*llm.Completion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Completion{Text: s.text, Model: "llama-3.3-70b-versatile", TokensUsed: 42}, nil
}

func newTestController(st Store, chat llm.Completer) *Controller {
	return NewController(st, classifier.NewKeywordClassifier(), chat, nil, zerolog.Nop())
}

func TestGreetingIsAnsweredVerbatim(t *testing.T) {
	st := newFakeStore()
	c := newTestController(st, nil)

	reply, err := c.HandleMessage(context.Background(), "s1", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello! I'm your customer support assistant. How can I help you today?", reply.Text)
	assert.Equal(t, classifier.IntentGreeting, reply.Intent)
	assert.False(t, reply.PendingConfirmation)
	assert.Empty(t, st.created)
}

func TestReturnFlowCreatesTicketOnYes(t *testing.T) {
	st := newFakeStore()
	c := newTestController(st, nil)
	ctx := context.Background()

	reply, err := c.HandleMessage(ctx, "s1", "I want to return this broken item")
	require.NoError(t, err)
	assert.Equal(t, classifier.IntentReturn, reply.Intent)
	assert.True(t, reply.PendingConfirmation)
	assert.True(t, strings.HasSuffix(reply.Text, "Would you like me to create a return ticket for you?"), "got %q", reply.Text)
	assert.Empty(t, st.created, "the offer turn must not create a ticket")

	reply, err = c.HandleMessage(ctx, "s1", "yes")
	require.NoError(t, err)
	require.Len(t, st.created, 1)
	created := st.created[0]
	assert.Equal(t, "Returns", created.Category)
	assert.Equal(t, model.TicketPriorityUrgent, created.Priority)
	assert.Equal(t, "I want to return this broken item", created.IssueDescription)
	assert.Contains(t, reply.Text, created.TicketID)
	assert.Equal(t, created.TicketID, reply.TicketID)
	assert.False(t, reply.PendingConfirmation)
}

func TestDeclineCreatesNoTicket(t *testing.T) {
	st := newFakeStore()
	c := newTestController(st, nil)
	ctx := context.Background()

	_, err := c.HandleMessage(ctx, "s1", "I can't sign in to my account, password reset fails")
	require.NoError(t, err)

	reply, err := c.HandleMessage(ctx, "s1", "no thanks")
	require.NoError(t, err)
	assert.Empty(t, st.created)
	assert.False(t, reply.PendingConfirmation)
}

func TestAmbiguousConfirmationReprompts(t *testing.T) {
	st := newFakeStore()
	c := newTestController(st, nil)
	ctx := context.Background()

	_, err := c.HandleMessage(ctx, "s1", "I want to return this item")
	require.NoError(t, err)

	reply, err := c.HandleMessage(ctx, "s1", "hmm maybe, what would that involve?")
	require.NoError(t, err)
	assert.True(t, reply.PendingConfirmation, "ambiguous answer must keep the confirmation pending")
	assert.Contains(t, reply.Text, "yes or no")
	assert.Empty(t, st.created)

	// An explicit yes afterwards still works.
	reply, err = c.HandleMessage(ctx, "s1", "yes please")
	require.NoError(t, err)
	require.Len(t, st.created, 1)
	assert.False(t, reply.PendingConfirmation)
}

func TestTicketLookupNotFound(t *testing.T) {
	st := newFakeStore()
	c := newTestController(st, nil)

	reply, err := c.HandleMessage(context.Background(), "s1", "TCKT-20240101-001")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "TCKT-20240101-001")
	assert.Contains(t, reply.Text, "couldn't find")
	assert.False(t, reply.PendingConfirmation)
	assert.Empty(t, st.created)
}

func TestTicketLookupStatusNarrative(t *testing.T) {
	st := newFakeStore()
	st.tickets["TCKT-20250115-001"] = &model.SupportTicket{
		TicketID: "TCKT-20250115-001",
		Status:   model.TicketStatusInProgress,
		Category: "Returns",
		Priority: model.TicketPriorityHigh,
	}
	c := newTestController(st, nil)

	reply, err := c.HandleMessage(context.Background(), "s1", "any news on tckt-20250115-001?")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "being actively worked on")
	assert.Equal(t, "TCKT-20250115-001", reply.TicketID)
}

func TestHistorySaveFailureIsSoft(t *testing.T) {
	st := newFakeStore()
	st.saveErr = errors.New("db down")
	c := newTestController(st, nil)

	reply, err := c.HandleMessage(context.Background(), "s1", "Hello")
	require.NoError(t, err, "history saves are best-effort")
	assert.NotEmpty(t, reply.Text)
}

func TestTicketCreateFailureIsReported(t *testing.T) {
	st := newFakeStore()
	c := newTestController(st, nil)
	ctx := context.Background()

	_, err := c.HandleMessage(ctx, "s1", "I want to return this item")
	require.NoError(t, err)

	st.createErr = errors.New("db down")
	reply, err := c.HandleMessage(ctx, "s1", "yes")
	require.NoError(t, err)
	assert.Empty(t, reply.TicketID)
	assert.Contains(t, reply.Text, "wasn't able to create")
	assert.False(t, reply.PendingConfirmation)
	assert.Empty(t, st.created)
}

func TestFreeFormFallbackUsesLLM(t *testing.T) {
	st := newFakeStore()
	chat := &stubChat{text: "Of course, tell me more about the issue."}
	c := newTestController(st, chat)

	// ticket_request has no follow-up prompt, so it goes to the LLM.
	reply, err := c.HandleMessage(context.Background(), "s1", "please create ticket for my weird issue")
	require.NoError(t, err)
	assert.Equal(t, 1, chat.calls)
	assert.Equal(t, "Of course, tell me more about the issue.", reply.Text)
	assert.Equal(t, "llama-3.3-70b-versatile", reply.ModelUsed)
	assert.Equal(t, 42, reply.TokensUsed)
}

func TestFreeFormFallbackDegradesToCannedText(t *testing.T) {
	st := newFakeStore()
	chat := &stubChat{err: errors.New("provider down")}
	c := newTestController(st, chat)

	reply, err := c.HandleMessage(context.Background(), "s1", "please create ticket for my weird issue")
	require.NoError(t, err)
	assert.Equal(t, ModelSupportLogic, reply.ModelUsed)
	assert.NotEmpty(t, reply.Text)
}

func TestSessionsAreIsolated(t *testing.T) {
	st := newFakeStore()
	c := newTestController(st, nil)
	ctx := context.Background()

	_, err := c.HandleMessage(ctx, "s1", "I want to return this broken item")
	require.NoError(t, err)

	// A different session saying yes must not confirm s1's offer.
	reply, err := c.HandleMessage(ctx, "s2", "yes")
	require.NoError(t, err)
	assert.Empty(t, st.created)
	assert.NotContains(t, reply.Text, "TCKT-")
}

func TestResetClearsPendingState(t *testing.T) {
	st := newFakeStore()
	c := newTestController(st, nil)
	ctx := context.Background()

	_, err := c.HandleMessage(ctx, "s1", "I want to return this item")
	require.NoError(t, err)
	c.Reset("s1")

	// With no pending offer, "yes" is classified like any other message and
	// must not create a ticket.
	_, err = c.HandleMessage(ctx, "s1", "yes")
	require.NoError(t, err)
	assert.Empty(t, st.created, "reset must drop the pending offer")
}

func TestEveryTurnIsSaved(t *testing.T) {
	st := newFakeStore()
	c := newTestController(st, nil)
	ctx := context.Background()

	_, _ = c.HandleMessage(ctx, "s1", "Hello")
	_, _ = c.HandleMessage(ctx, "s1", "I want to return this item")
	_, _ = c.HandleMessage(ctx, "s1", "yes")

	require.Len(t, st.saved, 3)
	for _, turn := range st.saved {
		assert.Equal(t, ModelSupportLogic, turn.modelUsed)
		assert.NotEmpty(t, turn.response)
	}
}
