package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"oceanwatch/config"
	"oceanwatch/database"
	"oceanwatch/handlers"
	"oceanwatch/lifecycle"
	"oceanwatch/middleware"
	"oceanwatch/rabbitmq"
	"oceanwatch/storage"
	"oceanwatch/version"
	ws "oceanwatch/websocket"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Create database connection
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to create database connection: %v", err)
	}
	defer db.Close()

	// Ensure schema
	if err := db.EnsureReportsTable(context.Background()); err != nil {
		log.Fatalf("Failed to ensure reports table: %v", err)
	}
	if err := db.EnsureModerationEventsTable(context.Background()); err != nil {
		log.Fatalf("Failed to ensure moderation_events table: %v", err)
	}

	// Media storage
	media, err := storage.NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}

	// Lifecycle service
	svc := lifecycle.NewService(db, media, viewConfig(cfg))

	// WebSocket hub for the live moderation feed
	hub := ws.NewHub()
	go hub.Run()

	// RabbitMQ publisher for moderation events. Optional: the service
	// continues without a broker.
	var publisher *rabbitmq.Publisher
	if p, err := rabbitmq.NewPublisher(cfg.GetAMQPURL(), cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey); err != nil {
		log.Warnf("Failed to initialize RabbitMQ publisher: %v", err)
		log.Warn("Moderation events via RabbitMQ will be unavailable. Continuing without RabbitMQ...")
	} else {
		publisher = p
		log.Infof("RabbitMQ publisher initialized: exchange=%s, routing_key=%s", cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey)
	}

	// Create handlers
	h := handlers.NewHandlers(svc, db, hub, publisher, cfg)

	// Setup HTTP server
	router := setupRouter(cfg, h, media)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Errorf("Failed to close RabbitMQ publisher: %v", err)
		}
	}

	log.Info("Server exited")
}

func setupRouter(cfg *config.Config, h *handlers.Handlers, media *storage.LocalStore) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeaders())

	// Stored media is served straight from disk
	router.Static("/media", media.Root())

	api := router.Group("/api/v3")
	{
		api.GET("/version", func(c *gin.Context) {
			c.JSON(200, version.Get("oceanwatch"))
		})

		// Citizen routes
		api.POST("/reports", middleware.SubmitRateLimit(cfg.SubmitRateLimit, cfg.SubmitRateWindow), h.SubmitReport)
		api.GET("/reports/public", h.PublicReports)
		api.GET("/reports/geojson", h.PublicReportsGeoJSON)
		api.GET("/meta", h.Meta)

		// Live feed for the moderation screen
		api.GET("/reports/listen", h.ListenReports)

		// Moderation routes (require an admin token)
		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuth(cfg.JWTSecret))
		{
			admin.GET("/reports", h.AdminReports)
			admin.GET("/reports/summary", h.AdminSummary)
			admin.POST("/reports/status", h.SetReportStatus)
		}
	}

	// Root health check
	router.GET("/health", h.HealthCheck)
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, version.Get("oceanwatch"))
	})

	return router
}

func viewConfig(cfg *config.Config) lifecycle.ViewConfig {
	return lifecycle.ViewConfig{
		Default: lifecycle.Viewport{
			Latitude:  cfg.DefaultViewportLat,
			Longitude: cfg.DefaultViewportLng,
			LatDelta:  cfg.DefaultViewportLatSpan,
			LngDelta:  cfg.DefaultViewportLngSpan,
		},
		CitizenSpan:  lifecycle.Span{Lat: cfg.CitizenLatSpan, Lng: cfg.CitizenLngSpan},
		AdminMinSpan: lifecycle.Span{Lat: cfg.AdminMinLatSpan, Lng: cfg.AdminMinLngSpan},
		Padding:      cfg.ViewportPadding,
	}
}
