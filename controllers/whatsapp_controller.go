// controllers/whatsapp_controller.go
package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"health-intake-backend/models"
	"health-intake-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const whatsappTurnTimeout = 60 * time.Second

type WhatsAppController struct {
	whatsappService *services.WhatsAppService
	chatbotService  *services.ChatbotService
	logger          *zap.Logger

	// process runs webhook work; tests replace it to run inline.
	process func(func())
}

func NewWhatsAppController(whatsappService *services.WhatsAppService, chatbotService *services.ChatbotService, logger *zap.Logger) *WhatsAppController {
	return &WhatsAppController{
		whatsappService: whatsappService,
		chatbotService:  chatbotService,
		logger:          logger,
		process:         func(f func()) { go f() },
	}
}

// VerifyWebhook handles the webhook verification request from WhatsApp
func (wc *WhatsAppController) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == wc.whatsappService.GetVerifyToken() {
		c.String(http.StatusOK, challenge)
		return
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "Verification failed"})
}

// HandleWebhook processes incoming WhatsApp messages
func (wc *WhatsAppController) HandleWebhook(c *gin.Context) {
	var webhookData models.WhatsAppWebhookData

	if err := c.ShouldBindJSON(&webhookData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook data"})
		return
	}

	// The request context ends when we reply, so the work gets its own.
	ctx := context.WithoutCancel(c.Request.Context())
	wc.process(func() {
		ctx, cancel := context.WithTimeout(ctx, whatsappTurnTimeout)
		defer cancel()
		wc.processWebhookData(ctx, webhookData)
	})

	// Respond immediately to WhatsApp
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (wc *WhatsAppController) processWebhookData(ctx context.Context, webhookData models.WhatsAppWebhookData) {
	for _, entry := range webhookData.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, message := range change.Value.Messages {
				wc.handleIncomingMessage(ctx, message)
			}
			for _, status := range change.Value.Statuses {
				wc.logger.Debug("WhatsApp status update",
					zap.String("message_id", status.ID), zap.String("status", status.Status))
			}
		}
	}
}

func (wc *WhatsAppController) handleIncomingMessage(ctx context.Context, message models.WhatsAppMessage) {
	text := strings.TrimSpace(message.Body())
	if text == "" {
		if err := wc.whatsappService.SendTextMessage(ctx, message.From,
			"Sorry, I can only read text messages. Please describe your symptoms in words."); err != nil {
			wc.logger.Warn("Failed to send WhatsApp notice", zap.String("to", message.From), zap.Error(err))
		}
		return
	}
	wc.whatsappService.RecordInbound()

	if err := wc.whatsappService.MarkMessageAsRead(ctx, message.ID); err != nil {
		wc.logger.Debug("mark as read failed", zap.Error(err))
	}

	response, err := wc.chatbotService.ProcessMessage(ctx, "wa:"+message.From, models.ChatRequest{
		Message: text,
		UserID:  "wa:" + message.From,
		Channel: models.ChannelWhatsApp,
	})
	if err != nil {
		wc.logger.Warn("WhatsApp turn abandoned", zap.String("from", message.From), zap.Error(err))
		return
	}

	if err := wc.whatsappService.SendTextMessage(ctx, message.From, response.Response); err != nil {
		// no error reply, to avoid loops
		wc.logger.Warn("Failed to send WhatsApp response", zap.String("to", message.From), zap.Error(err))
	}
}

// SendMessage sends a message to a specific WhatsApp number (for notifications)
func (wc *WhatsAppController) SendMessage(c *gin.Context) {
	var req struct {
		To      string `json:"to" binding:"required"`
		Message string `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	to := services.CleanPhoneNumber(req.To)
	if err := wc.whatsappService.SendTextMessage(c.Request.Context(), to, req.Message); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to send message",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "sent",
		"to":     to,
	})
}

// GetStatus returns WhatsApp service status
func (wc *WhatsAppController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, wc.whatsappService.GetStatus())
}
