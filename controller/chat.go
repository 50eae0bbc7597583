package controller

import (
	"errors"
	"net/http"

	"deepchat-backend/logic"
	"deepchat-backend/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ChatController handles HTTP requests
type ChatController struct {
	chatLogic *logic.ChatLogic
	logger    *logrus.Logger
}

func NewChatController(chatLogic *logic.ChatLogic, logger *logrus.Logger) *ChatController {
	return &ChatController{chatLogic: chatLogic, logger: logger}
}

// CreateChat handles POST /chat/create
func (c *ChatController) CreateChat(ctx *gin.Context) {
	chat, err := c.chatLogic.CreateChat(middleware.UserID(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"chatId": chat.ID.String()})
}

// GetChat handles GET /chat/:id. Absent and soft-deleted chats both read as
// null rather than 404.
func (c *ChatController) GetChat(ctx *gin.Context) {
	chatID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	chat, err := c.chatLogic.GetChat(chatID)
	if err == gorm.ErrRecordNotFound {
		ctx.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, chat)
}

// ListChats handles GET /chats
func (c *ChatController) ListChats(ctx *gin.Context) {
	chats, err := c.chatLogic.ListChats(middleware.UserID(ctx))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, chats)
}

// DeleteChat handles DELETE /chat/:id (soft delete)
func (c *ChatController) DeleteChat(ctx *gin.Context) {
	chatID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	if err := c.chatLogic.DeleteChat(chatID); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// Chat handles POST /chat, the streaming turn endpoint.
func (c *ChatController) Chat(ctx *gin.Context) {
	var req logic.TurnRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Messages) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}
	if req.UserID == "" {
		req.UserID = middleware.UserID(ctx)
	}

	// Stream response to client using Server-Sent Events
	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	err := c.chatLogic.RunTurn(ctx.Request.Context(), &req, func(part logic.StreamPart) error {
		ctx.SSEvent(part.Type, part)
		ctx.Writer.Flush()
		return nil
	})
	if errors.Is(err, logic.ErrStreamTimeout) {
		ctx.JSON(http.StatusRequestTimeout, gin.H{"error": "response timed out"})
		return
	}
	if err != nil {
		c.logger.WithError(err).Error("Chat turn failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
}
