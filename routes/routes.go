package routes

import (
	"context"
	"net/http"
	"time"

	"health-intake-backend/config"
	"health-intake-backend/controllers"
	"health-intake-backend/middleware"
	"health-intake-backend/repository"
	"health-intake-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the services the HTTP surface is built from. Payment may be nil.
type Deps struct {
	Config       *config.Config
	Chatbot      *services.ChatbotService
	WhatsApp     *services.WhatsAppService
	Payment      *services.PaymentService
	Appointments repository.AppointmentStore
	HealthCheck  func(ctx context.Context) error
	Logger       *zap.Logger
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	cfg := deps.Config

	// Initialize controllers
	chatbotController := controllers.NewChatbotController(deps.Chatbot)
	wsController := controllers.NewWebSocketController(deps.Chatbot, cfg.Security.AllowedOrigins, deps.Logger)
	whatsappController := controllers.NewWhatsAppController(deps.WhatsApp, deps.Chatbot, deps.Logger)
	paymentController := controllers.NewPaymentController(deps.Payment, deps.Appointments, deps.Chatbot)

	router.Use(middleware.CORS(cfg.Security.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if deps.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.HealthCheck(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":              status,
			"timestamp":           time.Now(),
			"llm_configured":      cfg.LLMEnabled(),
			"payment_configured":  cfg.PaymentEnabled(),
			"whatsapp_configured": cfg.WhatsAppEnabled(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Browser routes carry the session cookie
	public := router.Group("/api/v1")
	public.Use(middleware.Session(cfg.Session.CookieName, cfg.Session.IdleTimeout, cfg.Environment == "production"))
	{
		public.POST("/chat", chatbotController.HandleChat)
		public.POST("/chat/reset", chatbotController.ResetSession)

		// WebSocket for real-time chat
		public.GET("/ws", wsController.HandleWebSocket)

		public.GET("/appointments/:id", paymentController.GetAppointment)
		public.POST("/appointments/:id/checkout", paymentController.StartCheckout)
		public.GET("/payments/callback", paymentController.PaymentCallback)
	}

	// WhatsApp routes
	whatsapp := router.Group("/api/whatsapp")
	{
		// Webhook endpoints (no auth required for WhatsApp to call)
		whatsapp.GET("/webhook", whatsappController.VerifyWebhook)
		whatsapp.POST("/webhook", middleware.VerifyWhatsAppSignature(cfg.WhatsApp.AppSecret), whatsappController.HandleWebhook)

		admin := whatsapp.Group("/admin", middleware.AdminAuth(cfg.Security.AdminToken))
		admin.POST("/send", whatsappController.SendMessage)
		admin.GET("/status", whatsappController.GetStatus)
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
	})
}
