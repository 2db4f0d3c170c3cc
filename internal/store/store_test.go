package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/algo-rangers/support-service/internal/errs"
	"github.com/algo-rangers/support-service/internal/model"
)

var dbSeq int

func newTestStore(t *testing.T) *TicketStore {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:store_test_%d?mode=memory&cache=shared", dbSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Conversation{}, &model.SupportTicket{}))
	return New(db)
}

func TestGetOrCreateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u1, err := s.GetOrCreateUser(ctx, "sess-1", "alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", u1.SessionID)
	assert.True(t, u1.IsActive)

	// Second contact with the same session returns the same row.
	u2, err := s.GetOrCreateUser(ctx, "sess-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "alice", u2.Username)
}

func TestCreateTicketDailySequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Now().UTC().Format("20060102")

	for i := 1; i <= 3; i++ {
		ticket, err := s.CreateTicket(ctx, "sess-1", "it is broken", "Returns", model.TicketPriorityUrgent)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("TCKT-%s-%03d", day, i), ticket.TicketID)
		assert.Equal(t, model.TicketStatusOpen, ticket.Status)
	}
}

func TestCreateTicketDefaultsPriority(t *testing.T) {
	s := newTestStore(t)

	ticket, err := s.CreateTicket(context.Background(), "sess-1", "question", "General Support", "")
	require.NoError(t, err)
	assert.Equal(t, model.TicketPriorityMedium, ticket.Priority)
}

func TestTicketByIDIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTicket(ctx, "sess-1", "login broken", "Technical", model.TicketPriorityHigh)
	require.NoError(t, err)

	got, err := s.TicketByID(ctx, "  "+strings.ToLower(created.TicketID)+" ")
	require.NoError(t, err)
	assert.Equal(t, created.TicketID, got.TicketID)
}

func TestTicketByIDMalformedIsNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "TCKT-123", "garbage", "TCKT-20240101-1"} {
		_, err := s.TicketByID(ctx, id)
		assert.ErrorIs(t, err, errs.ErrTicketNotFound, "id %q", id)
	}

	_, err := s.TicketByID(ctx, "TCKT-20240101-001")
	assert.ErrorIs(t, err, errs.ErrTicketNotFound)
}

func TestUserTicketsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		ticket, err := s.CreateTicket(ctx, "sess-1", fmt.Sprintf("issue %d", i), "General Support", "")
		require.NoError(t, err)
		ids = append(ids, ticket.TicketID)
		time.Sleep(5 * time.Millisecond)
	}
	_, err := s.CreateTicket(ctx, "sess-other", "not mine", "General Support", "")
	require.NoError(t, err)

	items, err := s.UserTickets(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, ids[2], items[0].TicketID)
	assert.Equal(t, ids[0], items[2].TicketID)
}

func TestUpdateTicketStatusStampsResolvedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTicket(ctx, "sess-1", "issue", "General Support", "")
	require.NoError(t, err)

	updated, err := s.UpdateTicketStatus(ctx, created.TicketID, model.TicketStatusInProgress, "agent-7")
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusInProgress, updated.Status)
	assert.Equal(t, "agent-7", updated.AssignedAgent)
	assert.Nil(t, updated.ResolvedAt)

	updated, err = s.UpdateTicketStatus(ctx, created.TicketID, model.TicketStatusResolved, "")
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)
	assert.WithinDuration(t, time.Now().UTC(), *updated.ResolvedAt, time.Minute)
}

func TestUpdateTicketStatusNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdateTicketStatus(context.Background(), "TCKT-20240101-001", model.TicketStatusClosed, "")
	assert.True(t, errors.Is(err, errs.ErrTicketNotFound))
}

func TestConversationHistoryAndStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := s.SaveConversation(ctx, "sess-1", fmt.Sprintf("msg %d", i), "reply", "support-logic", 10)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	_, err := s.SaveConversation(ctx, "sess-other", "other", "reply", "support-logic", 99)
	require.NoError(t, err)

	items, err := s.ConversationHistory(ctx, "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "msg 3", items[0].Message)

	_, err = s.CreateTicket(ctx, "sess-1", "issue", "General Support", "")
	require.NoError(t, err)

	stats, err := s.Stats(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalConversations)
	assert.Equal(t, int64(40), stats.TotalTokensUsed)
	assert.Equal(t, int64(1), stats.TotalTickets)
}
