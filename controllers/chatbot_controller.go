package controllers

import (
	"net/http"

	"health-intake-backend/middleware"
	"health-intake-backend/models"
	"health-intake-backend/services"

	"github.com/gin-gonic/gin"
)

type ChatbotController struct {
	chatbotService *services.ChatbotService
}

func NewChatbotController(chatbotService *services.ChatbotService) *ChatbotController {
	return &ChatbotController{
		chatbotService: chatbotService,
	}
}

// sessionID is the id issued by the session middleware. Browser clients
// cannot name a session themselves.
func sessionID(c *gin.Context) string {
	return c.GetString(middleware.SessionIDKey)
}

// HandleChat processes chat messages
func (cc *ChatbotController) HandleChat(c *gin.Context) {
	var req models.ChatRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}
	req.Channel = models.ChannelWeb

	response, err := cc.chatbotService.ProcessMessage(c.Request.Context(), sessionID(c), req)
	if err != nil {
		// the client went away
		c.Status(499)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ResetSession clears the conversation state for the session
func (cc *ChatbotController) ResetSession(c *gin.Context) {
	id := sessionID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No session to reset"})
		return
	}
	if err := cc.chatbotService.ResetSession(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reset session",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset", "session_id": id})
}
