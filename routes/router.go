package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nodespeak/nodespeak/config"
	"github.com/nodespeak/nodespeak/content"
	"github.com/nodespeak/nodespeak/controllers"
	"github.com/nodespeak/nodespeak/forum"
	"github.com/nodespeak/nodespeak/middleware"
	"github.com/nodespeak/nodespeak/utils"
	"github.com/nodespeak/nodespeak/wallet"
)

// Deps are the long-lived components the handlers use.
type Deps struct {
	Service  *forum.Service
	Session  *forum.Session
	Wallet   *wallet.Wallet
	Resolver *content.Resolver
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Access log goes to its own rolling file when GinPath is set
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, true))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	communityController := controllers.NewCommunityController(d.Service)
	postController := controllers.NewPostController(d.Service)
	walletController := controllers.NewWalletController(d.Wallet, d.Service)
	viewController := controllers.NewViewController(d.Service, d.Session)
	statusController := controllers.NewStatusController(d.Service, d.Wallet, d.Resolver)
	configController := controllers.NewConfigController()

	api := r.Group("/api/v1")

	// Public reads
	api.GET("/config", configController.GetConfig)
	api.GET("/status", statusController.GetStatus)
	api.GET("/transactions", statusController.ListTransactions)
	api.GET("/wallet", walletController.Status)
	api.GET("/communities", communityController.ListCommunities)
	api.GET("/communities/:id", communityController.GetCommunity)
	api.GET("/communities/:id/topics", communityController.ListTopics)
	api.GET("/communities/:id/posts", postController.ListCommunityPosts)
	api.GET("/posts", postController.Feed)
	api.GET("/posts/:id/comments", postController.ListComments)

	// Everything below drives the node wallet or its session
	protected := api.Group("")
	protected.Use(middleware.AuthRequired())

	protected.POST("/wallet/connect", walletController.Connect)
	protected.POST("/wallet/disconnect", walletController.Disconnect)
	protected.POST("/wallet/account", walletController.SwitchAccount)

	protected.GET("/view", viewController.Get)
	protected.POST("/view/community/:id", viewController.SelectCommunity)
	protected.POST("/view/topic", viewController.SelectTopic)
	protected.DELETE("/view/topic", viewController.ClearTopic)
	protected.POST("/view/toggle/:what", viewController.Toggle)
	protected.POST("/view/comments/:postId", viewController.ToggleComments)
	protected.POST("/view/reset", viewController.Reset)

	writes := protected.Group("")
	writes.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	writes.POST("/communities", communityController.CreateCommunity)
	writes.POST("/communities/:id/join", communityController.Join)
	writes.POST("/communities/:id/leave", communityController.Leave)
	writes.POST("/communities/:id/topics", communityController.AddTopic)
	writes.DELETE("/communities/:id", communityController.Deactivate)
	writes.POST("/communities/:id/posts", postController.CreatePost)
	writes.POST("/communities/:id/posts/:postId/like", postController.LikePost)
	writes.DELETE("/communities/:id/posts/:postId", postController.DeactivatePost)
	writes.POST("/posts/:id/comments", postController.CreateComment)
	writes.DELETE("/posts/:id/comments/:commentId", postController.DeactivateComment)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40410, "not found")
	})

	return r
}
