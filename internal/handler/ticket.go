package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/algo-rangers/support-service/internal/errs"
	"github.com/algo-rangers/support-service/internal/kafka"
	"github.com/algo-rangers/support-service/internal/model"
	"github.com/algo-rangers/support-service/internal/searchindex"
	"github.com/algo-rangers/support-service/internal/store"
)

type TicketHandler struct {
	store    *store.TicketStore
	producer kafka.TicketEventProducer
	search   *searchindex.Client
}

func NewTicketHandler(st *store.TicketStore, producer kafka.TicketEventProducer, search *searchindex.Client) *TicketHandler {
	return &TicketHandler{store: st, producer: producer, search: search}
}

func (h *TicketHandler) Get(c *gin.Context) {
	t, err := h.store.TicketByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ticket"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) List(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	items, err := h.store.UserTickets(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": items,
		"total":   len(items),
	})
}

type updateStatusRequest struct {
	Status        string `json:"status" binding:"required"`
	AssignedAgent string `json:"assigned_agent"`
}

// UpdateStatus serves agent tooling: status transitions plus optional
// assignment. Resolved/Closed transitions stamp resolved_at in the store.
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	status, ok := model.ParseTicketStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	t, err := h.store.UpdateTicketStatus(c.Request.Context(), c.Param("id"), status, req.AssignedAgent)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update ticket"})
		return
	}

	if h.producer != nil {
		h.producer.ProduceTicketEvent(c.Request.Context(), "ticket.updated", kafka.TicketPayload(t))
	}
	if h.search != nil {
		h.search.IndexTicketAsync(t)
	}
	c.JSON(http.StatusOK, t)
}
