package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/algo-rangers/support-service/internal/store"
)

type HistoryHandler struct {
	store *store.TicketStore
}

func NewHistoryHandler(st *store.TicketStore) *HistoryHandler {
	return &HistoryHandler{store: st}
}

// Conversations returns the most recent turns for a session, newest first.
func (h *HistoryHandler) Conversations(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	items, err := h.store.ConversationHistory(c.Request.Context(), sessionID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversations": items,
		"total":         len(items),
	})
}

// Stats returns per-session usage counters.
func (h *HistoryHandler) Stats(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	stats, err := h.store.Stats(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
