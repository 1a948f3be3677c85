package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"health-intake-backend/config"
	"health-intake-backend/database"
	"health-intake-backend/logger"
	"health-intake-backend/repository"
	"health-intake-backend/routes"
	"health-intake-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.Get()

	zlog, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Connect to database
	conn, err := database.Connect(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := conn.Disconnect(shutdownCtx); err != nil {
			zlog.Warn("database disconnect failed", zap.Error(err))
		}
	}()

	sessions, closeSessions := sessionStore(ctx, cfg, zlog)
	defer closeSessions()

	var dataset repository.DatasetSource
	if cfg.Dataset.CSVPath != "" {
		dataset = repository.CSVDatasetSource{Path: cfg.Dataset.CSVPath}
		zlog.Info("Symptom dataset from CSV", zap.String("path", cfg.Dataset.CSVPath))
	}

	llm := services.NewTextCompleter(cfg.AI, zlog)

	chatbot := services.NewIntakeChatbot(cfg, services.IntakeDeps{
		Store:    conn.Store,
		Dataset:  dataset,
		Sessions: sessions,
		LLM:      llm,
	}, zlog)

	var payment *services.PaymentService
	if cfg.PaymentEnabled() {
		payment = services.NewPaymentService(services.NewHTTPPaymentProvider(cfg.Payment), conn.Store, cfg, zlog)
	}

	// Verify WhatsApp configuration
	if cfg.WhatsAppEnabled() {
		zlog.Info("WhatsApp configuration verified successfully")
	} else {
		zlog.Warn("WhatsApp integration may not work properly: credentials missing")
	}
	if cfg.WhatsApp.AppSecret == "" {
		zlog.Warn("WHATSAPP_APP_SECRET not set: webhook signatures are not checked")
	}
	if cfg.Security.AdminToken == "" {
		zlog.Info("ADMIN_API_TOKEN not set: WhatsApp admin routes are disabled")
	}
	whatsapp := services.NewWhatsAppService(cfg.WhatsApp, zlog)

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		zlog.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	routes.SetupRoutes(router, routes.Deps{
		Config:       cfg,
		Chatbot:      chatbot,
		WhatsApp:     whatsapp,
		Payment:      payment,
		Appointments: conn.Store,
		HealthCheck:  conn.HealthCheck,
		Logger:       zlog,
	})

	logAvailableEndpoints(router, zlog)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zlog.Info("Server starting", zap.String("port", cfg.Port), zap.String("db_type", cfg.Database.Type))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}

// sessionStore uses Redis when configured and reachable, process memory
// otherwise.
func sessionStore(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (services.SessionStore, func()) {
	if cfg.Session.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.Session.RedisURL)
		if err == nil {
			zlog.Info("Sessions stored in Redis")
			return services.NewRedisSessionStore(client, cfg.Session.IdleTimeout), func() { _ = client.Close() }
		}
		zlog.Warn("Redis unavailable, keeping sessions in memory", zap.Error(err))
	}
	return services.NewMemorySessionStore(cfg.Session.IdleTimeout), func() {}
}

// logAvailableEndpoints logs all registered routes
func logAvailableEndpoints(router *gin.Engine, zlog *zap.Logger) {
	for _, route := range router.Routes() {
		zlog.Debug("route", zap.String("method", route.Method), zap.String("path", route.Path))
	}
}
