package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"social-service/internal/auth"
	"social-service/internal/db"
	"social-service/internal/handlers"
	"social-service/internal/middleware"
	"social-service/internal/notify"
	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
	"social-service/internal/ws"
)

func main() {
	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, "social-service", getEnv("OTLP_GRPC_ADDR", ""))
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() { _ = shutdownTracing(ctx) }()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	amqpURL := getEnv("AMQP_URL", "")
	if publisher, err := observability.NewAMQPPublisher(amqpURL, getEnv("EVENTS_EXCHANGE", "ws_events")); err != nil {
		log.Printf("events publisher disabled: %v", err)
	} else {
		observability.SetPublisher(publisher)
		defer publisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(amqpURL, getEnv("AUDIT_EXCHANGE", "audit"))
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, "audit_log.social", "social-service", getEnv("ENVIRONMENT", "dev"))

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	postRepo := repositories.NewPostRepo(database)

	verifier := auth.NewVerifier(getEnv("JWT_SECRET", "dev-secret"), userRepo)

	hub := ws.NewHub()
	notifier := notify.NewNotifier(hub)

	messageHandler := handlers.NewMessageHandler(messageRepo, userRepo, notifier, audit)
	postHandler := handlers.NewPostHandler(postRepo, notifier, audit)
	userHandler := handlers.NewUserHandler(userRepo, notifier, audit)
	socketHandler := ws.NewSocketHandler(hub, verifier)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("social-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.POST("/messages/:user_id", authMiddleware, messageHandler.SendMessage)
	router.GET("/messages/:user_id", authMiddleware, messageHandler.GetMessages)

	router.POST("/posts", authMiddleware, postHandler.CreatePost)
	router.GET("/posts", authMiddleware, postHandler.ListPosts)
	router.POST("/posts/:post_id/like", authMiddleware, postHandler.LikePost)
	router.POST("/posts/:post_id/dislike", authMiddleware, postHandler.DislikePost)
	router.POST("/posts/:post_id/comments", authMiddleware, postHandler.AddComment)
	router.GET("/posts/:post_id/comments", authMiddleware, postHandler.GetComments)

	router.POST("/users/:user_id/follow", authMiddleware, userHandler.FollowUser)

	router.GET("/ws", socketHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, hub, getEnv("DEBUG_ROUTES", "") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
