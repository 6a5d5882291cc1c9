package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abeme/echospace/entity"
	"github.com/abeme/echospace/middleware"
	"github.com/abeme/echospace/service"
	"github.com/abeme/echospace/ws"
)

type MessageController struct {
	msgSvc  service.MessageService
	chatSvc service.ChatService
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewMessageController(msgSvc service.MessageService, chatSvc service.ChatService, hub *ws.Hub, logger *slog.Logger) *MessageController {
	return &MessageController{msgSvc: msgSvc, chatSvc: chatSvc, hub: hub, logger: logger}
}

// Send persists the message, then fans it out to whichever receivers are
// online. Delivery is best effort: offline receivers are skipped and the
// request succeeds regardless.
func (m *MessageController) Send(c *gin.Context) {
	var req entity.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Chat ID, text and sender are required", "success": false})
		return
	}
	sender := middleware.Username(c)
	msg, err := m.msgSvc.Send(sender, req.ChatID, req.Text)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrChatNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Chat not found", "success": false})
		return
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Sender not found", "success": false})
		return
	case errors.Is(err, service.ErrNotParticipant):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Sender is not a participant of this chat", "success": false})
		return
	default:
		m.logger.Error("message send failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while sending the message", "success": false})
		return
	}

	if m.hub != nil {
		m.hub.DeliverToUsers(c.Request.Context(), req.ReceiverIDs, ws.Event{Event: "newMessage", Data: msg})
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Message sent successfully", "success": true, "newMessage": msg})
}

func (m *MessageController) GetMessages(c *gin.Context) {
	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid chat id", "success": false})
		return
	}
	msgs, err := m.msgSvc.List(uint(chatID))
	if err != nil {
		m.logger.Error("get messages failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while retrieving messages.", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Messages retrieved successfully.", "success": true, "messages": msgs})
}

func (m *MessageController) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid message id", "success": false})
		return
	}
	if err := m.msgSvc.Delete(uint(id)); err != nil {
		if errors.Is(err, service.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Message not found.", "success": false})
			return
		}
		m.logger.Error("message delete failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while deleting the message.", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully.", "success": true})
}

func (m *MessageController) GetChats(c *gin.Context) {
	username := middleware.Username(c)
	chats, err := m.chatSvc.ListForUser(username)
	if err != nil {
		m.logger.Error("get chats failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while retrieving chats.", "success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chats retrieved successfully.", "success": true, "chats": chats})
}

func (m *MessageController) CreateChat(c *gin.Context) {
	var req entity.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Both users must be specified", "success": false})
		return
	}
	username := middleware.Username(c)
	chat, err := m.chatSvc.GetOrCreate(username, req.ReceiverID)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"message": "Chat created successfully", "success": true, "chatId": chat.ID})
	case errors.Is(err, service.ErrSelfChat):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot create chat with yourself", "success": false})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "One or both users do not exist", "success": false})
	case errors.Is(err, service.ErrChatExists):
		c.JSON(http.StatusConflict, gin.H{"message": "Chat already exists", "success": false})
	default:
		m.logger.Error("chat create failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error", "success": false})
	}
}
