package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/runcoach/internal/service"
	"github.com/vcscsvcscs/runcoach/pkg/api"
	"go.uber.org/zap"
)

// ChatHandler implements the coach chat endpoints
type ChatHandler struct {
	chat   *service.ChatService
	logger *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chat *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: logger,
	}
}

// GetChat returns the panel state and history
// GET /api/v1/chat
func (h *ChatHandler) GetChat(c *gin.Context) {
	c.JSON(http.StatusOK, h.state())
}

// PostOpen opens the chat panel
// POST /api/v1/chat/open
func (h *ChatHandler) PostOpen(c *gin.Context) {
	h.chat.Open()
	c.JSON(http.StatusOK, h.state())
}

// PostClose closes the chat panel; history is kept
// POST /api/v1/chat/close
func (h *ChatHandler) PostClose(c *gin.Context) {
	h.chat.Close()
	c.JSON(http.StatusOK, h.state())
}

// PostMessage sends one message to the coach. A failed reply still answers
// 200 with the apology as the reply.
// POST /api/v1/chat/messages
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req api.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, h.logger, "Invalid request body", err)
		return
	}

	reply, err := h.chat.SendMessage(c.Request.Context(), req.Message)
	if err != nil {
		respondError(c, h.logger, "chat message rejected", err)
		return
	}

	c.JSON(http.StatusOK, api.ChatMessageResponse{
		Reply:   reply,
		History: h.chat.History(),
	})
}

func (h *ChatHandler) state() api.ChatStateResponse {
	return api.ChatStateResponse{
		Open:    h.chat.IsOpen(),
		History: h.chat.History(),
	}
}
