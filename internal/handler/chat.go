package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/algo-rangers/support-service/internal/conversation"
)

type ChatHandler struct {
	ctrl *conversation.Controller
	log  zerolog.Logger
}

func NewChatHandler(ctrl *conversation.Controller, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{ctrl: ctrl, log: log}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	*conversation.Reply
}

// Message handles one chat turn. A missing session id starts a new session.
func (h *ChatHandler) Message(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply, err := h.ctrl.HandleMessage(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("chat: handle message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}
	c.JSON(http.StatusOK, chatResponse{SessionID: sessionID, Reply: reply})
}

type resetRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Reset clears any pending ticket offer for the session.
func (h *ChatHandler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	h.ctrl.Reset(req.SessionID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
