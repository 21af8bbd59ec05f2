package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/api/handler"
	"github.com/qs3c/persona_go_server/internal/api/middleware"
	"github.com/qs3c/persona_go_server/internal/service"
)

type Router struct {
	userHandler       *handler.UserHandler
	billingHandler    *handler.BillingHandler
	influencerHandler *handler.InfluencerHandler
	imageHandler      *handler.ImageHandler
	chatHandler       *handler.ChatHandler
	websocketHandler  *handler.WebSocketHandler
	userService       *service.UserService
	cfg               *config.Config
}

func NewRouter(
	userHandler *handler.UserHandler,
	billingHandler *handler.BillingHandler,
	influencerHandler *handler.InfluencerHandler,
	imageHandler *handler.ImageHandler,
	chatHandler *handler.ChatHandler,
	websocketHandler *handler.WebSocketHandler,
	userService *service.UserService,
	cfg *config.Config,
) *Router {
	return &Router{
		userHandler:       userHandler,
		billingHandler:    billingHandler,
		influencerHandler: influencerHandler,
		imageHandler:      imageHandler,
		chatHandler:       chatHandler,
		websocketHandler:  websocketHandler,
		userService:       userService,
		cfg:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	// 本地存储时由进程自己吐媒体文件
	if r.cfg.Storage.Backend == "local" {
		engine.Static("/media", r.cfg.Storage.MediaDir)
	}

	api := engine.Group("/api")
	{
		// WebSocket（token 在 query 里自行校验）
		api.GET("/ws", r.websocketHandler.Handle)

		// Stripe webhook：验签代替登录态
		api.POST("/stripe/webhook", r.billingHandler.Webhook)

		// 工作流引擎回调：共享密钥把关
		callbacks := api.Group("")
		callbacks.Use(middleware.CallbackAuth(r.cfg.Workflow.CallbackSecret))
		{
			callbacks.POST("/influencer/finalize", r.influencerHandler.Finalize)
			callbacks.POST("/images/finalize", r.imageHandler.Finalize)
			callbacks.POST("/chat/finalize", r.chatHandler.Finalize)
		}

		// 登录用户接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.Auth.JWTSecret, r.userService))
		{
			authenticated.GET("/me", r.userHandler.Me)
			authenticated.POST("/upgrade", r.billingHandler.Upgrade)
			authenticated.POST("/billing-portal", r.billingHandler.Portal)

			authenticated.GET("/influencer", r.influencerHandler.Get)
			authenticated.POST("/influencer", r.influencerHandler.Create)

			authenticated.GET("/images", r.imageHandler.List)
			authenticated.POST("/images/create", r.imageHandler.Create)

			authenticated.GET("/chat", r.chatHandler.Get)
			authenticated.POST("/chat/message", r.chatHandler.Send)
		}
	}

	return engine
}
