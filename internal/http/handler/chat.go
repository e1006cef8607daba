package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskdeck.app/server/internal/agent"
	"taskdeck.app/server/internal/http/dto"
)

type ChatHandler struct {
	agent *agent.ChatAgent
}

func NewChatHandler(chatAgent *agent.ChatAgent) *ChatHandler {
	return &ChatHandler{agent: chatAgent}
}

// Chat runs one conversational turn. Tool failures inside the loop come back
// as part of the conversation; only a failed completion call surfaces here.
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.agent.Chat(ctx, req.History, req.Message)
	if err != nil {
		if errors.Is(err, agent.ErrUpstream) {
			slog.ErrorContext(ctx, "llm call failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
			return
		}
		slog.ErrorContext(ctx, "chat turn failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{
		Reply:    result.Reply,
		Messages: result.Messages,
	})
}
