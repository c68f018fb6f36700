package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"elearn-chat-service/internal/bus"
	"elearn-chat-service/internal/config"
	"elearn-chat-service/internal/db"
	"elearn-chat-service/internal/handlers"
	"elearn-chat-service/internal/middleware"
	"elearn-chat-service/internal/observability"
	"elearn-chat-service/internal/repositories"
	"elearn-chat-service/internal/telemetry"
	"elearn-chat-service/internal/ws"
)

func main() {
	cfg := config.Load()
	secret := []byte(cfg.SecretKey)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, "elearn-chat-service", cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := observability.NewEventPublisher(cfg.AMQPURL, cfg.EventsExchange)
	observability.SetPublisher(publisher)
	defer publisher.Close()

	userRepo := repositories.NewUserRepo(database)
	courseRepo := repositories.NewCourseRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	privateMessageRepo := repositories.NewPrivateMessageRepo(database)

	hub := ws.NewHub()
	broadcast := bus.New(cfg.AMQPURL, cfg.BroadcastExchange, hub.Deliver)
	hub.SetBus(broadcast)
	defer broadcast.Close()
	log.Printf("broadcast bus mode=%s", bus.Mode(broadcast))

	ingest := ws.NewIngest(messageRepo, privateMessageRepo, hub, cfg.PersistWorkers, cfg.MediaURLPrefix)
	courseWS := ws.NewCourseWebSocketHandler(hub, courseRepo, userRepo, ingest, secret)
	privateWS := ws.NewPrivateWebSocketHandler(hub, userRepo, ingest, secret)

	uploadHandler := handlers.NewUploadHandler(cfg.MediaRoot, cfg.MediaURLPrefix)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware("elearn-chat-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(secret)

	router.POST("/chat/upload", authMiddleware, uploadHandler.Upload)
	router.GET("/ws/courses/:course_id", courseWS.Handle)
	router.GET("/ws/private/:room_name", privateWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.StaticFS("/media", http.Dir(cfg.MediaRoot))

	handlers.RegisterDebugRoutes(router, secret, cfg.TokenTTL, cfg.Debug)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	// Drain live connections through their normal teardown path before
	// the listener goes away.
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}
