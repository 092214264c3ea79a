package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rentalbot/internal/model"
	"rentalbot/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionHeader carries the conversation id when it is not in the body or path
const SessionHeader = "X-Session-ID"

// SessionProvider resolves a session id to its chatbot
type SessionProvider interface {
	Get(ctx context.Context, sessionID string) (*service.Chatbot, string, error)
}

// ChatHandler handles conversation-related HTTP requests
type ChatHandler struct {
	sessions SessionProvider
}

// NewChatHandler creates a new chat handler
func NewChatHandler(sessions SessionProvider) *ChatHandler {
	return &ChatHandler{sessions: sessions}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	startTime := time.Now()

	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	bot, sessionID, ok := h.session(c, req.SessionID)
	if !ok {
		return
	}

	answer := bot.GetResponse(c.Request.Context(), req.Message)

	c.Header(SessionHeader, sessionID)
	c.JSON(http.StatusOK, model.ChatResponse{
		Answer:    answer,
		SessionID: sessionID,
		Took:      time.Since(startTime).Milliseconds(),
	})
}

// ChatStream handles POST /api/v1/chat/stream - SSE streaming answer
func (h *ChatHandler) ChatStream(c *gin.Context) {
	startTime := time.Now()

	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	bot, sessionID, ok := h.session(c, req.SessionID)
	if !ok {
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header(SessionHeader, sessionID)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", map[string]any{"session_id": sessionID})
	flusher.Flush()

	answer := bot.GetResponseStream(c.Request.Context(), req.Message, func(delta string) error {
		if err := c.Request.Context().Err(); err != nil {
			return err
		}
		sendSSE(c, "delta", map[string]any{"content": delta})
		flusher.Flush()
		return nil
	})

	// The final answer may be an apology that was never streamed
	sendSSE(c, "answer", model.ChatResponse{
		Answer:    answer,
		SessionID: sessionID,
		Took:      time.Since(startTime).Milliseconds(),
	})
	sendSSE(c, "done", nil)
	flusher.Flush()
}

// GetConversation handles GET /api/v1/conversations/:id
func (h *ChatHandler) GetConversation(c *gin.Context) {
	bot, sessionID, ok := h.session(c, c.Param("id"))
	if !ok {
		return
	}

	state := bot.History()
	c.JSON(http.StatusOK, model.ConversationResponse{
		SessionID:       sessionID,
		Messages:        state.Messages,
		Summary:         state.Summary,
		LastSummaryTime: state.LastSummaryTime,
	})
}

// ClearConversation handles DELETE /api/v1/conversations/:id
func (h *ChatHandler) ClearConversation(c *gin.Context) {
	bot, sessionID, ok := h.session(c, c.Param("id"))
	if !ok {
		return
	}

	bot.Clear(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "cleared": true})
}

// session resolves the chatbot from the given id, falling back to the session header
func (h *ChatHandler) session(c *gin.Context, sessionID string) (*service.Chatbot, string, bool) {
	if sessionID == "" {
		sessionID = c.GetHeader(SessionHeader)
	}

	bot, id, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open session: " + err.Error()})
		}
		return nil, "", false
	}
	return bot, id, true
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
