package controllers

import (
	"net/http"

	"health-intake-backend/middleware"
	"health-intake-backend/models"
	"health-intake-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type wsFrame struct {
	Message string `json:"message"`
}

type WebSocketController struct {
	chatbotService *services.ChatbotService
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

func NewWebSocketController(chatbotService *services.ChatbotService, allowedOrigins []string, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		chatbotService: chatbotService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		logger: logger,
	}
}

// HandleWebSocket treats every inbound JSON frame as one chat turn.
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.logger.Warn("WebSocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := sessionID(c)

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wc.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if frame.Message == "" {
			_ = conn.WriteJSON(gin.H{"error": "message is required"})
			continue
		}

		req := models.ChatRequest{
			Message: frame.Message,
			Channel: models.ChannelWebSocket,
		}
		response, err := wc.chatbotService.ProcessMessage(c.Request.Context(), sessionID, req)
		if err != nil {
			return
		}

		if err := conn.WriteJSON(response); err != nil {
			wc.logger.Warn("WebSocket write error", zap.Error(err))
			return
		}
	}
}
