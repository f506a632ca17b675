package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propalyst/internal/conversation"
	"propalyst/internal/model"
	"propalyst/internal/session"
)

// ChatHandler serves the Propalyst conversation endpoints.
type ChatHandler struct {
	flow *conversation.Flow
	log  *zap.Logger
}

func NewChatHandler(flow *conversation.Flow, log *zap.Logger) *ChatHandler {
	return &ChatHandler{flow: flow, log: log}
}

// Chat handles POST /api/propalyst/chat. An empty user_input starts or
// resumes the conversation; otherwise the input answers the named field.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	resp, err := h.flow.Advance(c.Request.Context(), req.SessionID, req.Field, req.UserInput)
	if err != nil {
		h.log.Error("chat turn failed", zap.String("session_id", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Summary handles POST /api/propalyst/summary.
func (h *ChatHandler) Summary(c *gin.Context) {
	var req model.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	summary, err := h.flow.Summary(c.Request.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		h.log.Error("summary failed", zap.String("session_id", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate summary"})
		return
	}

	c.JSON(http.StatusOK, model.SummaryResponse{
		Summary:   summary,
		SessionID: req.SessionID,
	})
}

// Areas handles POST /api/propalyst/areas.
func (h *ChatHandler) Areas(c *gin.Context) {
	var req model.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	areas, err := h.flow.Areas(c.Request.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		h.log.Error("areas lookup failed", zap.String("session_id", req.SessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute areas"})
		return
	}

	c.JSON(http.StatusOK, model.AreasResponse{
		Areas:     areas,
		SessionID: req.SessionID,
	})
}
