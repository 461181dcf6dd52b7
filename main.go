package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-backend/internal/auth"
	"chat-backend/internal/config"
	"chat-backend/internal/db"
	"chat-backend/internal/delivery"
	"chat-backend/internal/friends"
	grpcserver "chat-backend/internal/grpc"
	"chat-backend/internal/handlers"
	"chat-backend/internal/membership"
	"chat-backend/internal/middleware"
	"chat-backend/internal/notifications"
	"chat-backend/internal/observability"
	"chat-backend/internal/rabbitmq"
	"chat-backend/internal/repositories"
	"chat-backend/internal/telemetry"
	"chat-backend/internal/ws"
)

const auditRoutingKey = "audit.chat"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}

	database, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	userRepo := repositories.NewUserRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	friendRepo := repositories.NewFriendRepo(database)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s reason=%s", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, auditRoutingKey, cfg.ServiceName, cfg.Environment)

	store := notifications.NewStore(ctx, cfg.RedisAddr)
	hub := ws.NewHub()
	pipeline := delivery.NewPipeline(messageRepo, groupRepo, hub)
	engine := membership.NewEngine(groupRepo, userRepo, hub, store)
	friendService := friends.NewService(friendRepo, userRepo, store)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authenticator := auth.NewAuthenticator(tokens)

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("failed to create upload dir: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", handlers.Health(database))
	router.Static("/uploads", cfg.UploadDir)

	handlers.NewAuthHandler(userRepo, tokens, audit).Register(router)

	authed := router.Group("/", middleware.AuthMiddleware(authenticator))
	handlers.NewUserHandler(userRepo, store, cfg.UploadDir, audit).Register(authed)
	handlers.NewFriendHandler(friendService, audit).Register(authed)
	handlers.NewGroupHandler(engine, pipeline, audit).Register(authed)

	router.GET("/ws", ws.NewHandler(hub, authenticator, engine, pipeline).Handle)
	handlers.RegisterDebugRoutes(router, audit, hub, cfg.DebugRoutes)

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("http listening port=%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	grpcSrv := grpcserver.NewServer(database, 0)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("failed to listen grpc: %v", err)
	}
	go func() {
		log.Printf("grpc listening port=%s", cfg.GRPCPort)
		if err := grpcSrv.Serve(ctx, lis); err != nil {
			log.Printf("grpc server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	log.Printf("closing websocket connections count=%d", hub.Shutdown())
	grpcSrv.Shutdown()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}
