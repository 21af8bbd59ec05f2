package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/api"
	"github.com/qs3c/persona_go_server/internal/api/handler"
	"github.com/qs3c/persona_go_server/internal/database"
	"github.com/qs3c/persona_go_server/internal/pkg/cron"
	"github.com/qs3c/persona_go_server/internal/pkg/pubsub"
	"github.com/qs3c/persona_go_server/internal/pkg/storage"
	"github.com/qs3c/persona_go_server/internal/pkg/workflow"
	"github.com/qs3c/persona_go_server/internal/pkg/ws"
	"github.com/qs3c/persona_go_server/internal/repository"
	"github.com/qs3c/persona_go_server/internal/service"
)

func main() {
	// .env 只在本地开发存在，线上用真实环境变量
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化存储
	store, err := storage.New(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}

	// 工作流引擎客户端与事件通道
	workflowClient := workflow.NewClient(&cfg.Workflow)
	publisher := pubsub.NewPublisher(rdb)
	subscriber := pubsub.NewSubscriber(rdb)

	// WebSocket Hub
	wsHub := ws.NewHub()

	// 生成完成事件推给在线用户
	go func() {
		err := subscriber.Subscribe(context.Background(), func(event *pubsub.Event) {
			msg := &ws.Message{Type: event.Type, Data: event}
			if err := wsHub.SendToUser(event.UserID, msg); err != nil {
				log.Printf("Failed to push event to user %s: %v", event.UserID, err)
			}
		})
		if err != nil {
			log.Printf("Event subscriber stopped: %v", err)
		}
	}()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	influencerRepo := repository.NewInfluencerRepository(db)
	imageRepo := repository.NewImageRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// 初始化 Service
	quotaService := service.NewQuotaService(userRepo, imageRepo, chatRepo, cfg)
	userService := service.NewUserService(userRepo, quotaService, cfg)
	billingService := service.NewBillingService(userRepo, service.NewStripeProvider(cfg), cfg)
	influencerService := service.NewInfluencerService(
		influencerRepo, imageRepo, chatRepo, workflowClient, store, publisher, nil)
	imageService := service.NewImageService(
		imageRepo, influencerRepo, userRepo, quotaService, workflowClient, store, publisher, nil)
	chatService := service.NewChatService(
		chatRepo, influencerRepo, quotaService, workflowClient, publisher)

	// 初始化 Handler
	userHandler := handler.NewUserHandler(userService)
	billingHandler := handler.NewBillingHandler(billingService, cfg)
	influencerHandler := handler.NewInfluencerHandler(influencerService)
	imageHandler := handler.NewImageHandler(imageService)
	chatHandler := handler.NewChatHandler(chatService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.Auth.JWTSecret)

	// 过期壳清扫
	cronService := cron.NewService(influencerRepo, cfg.Cleanup.ShellExpireHours)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		userHandler,
		billingHandler,
		influencerHandler,
		imageHandler,
		chatHandler,
		websocketHandler,
		userService,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
