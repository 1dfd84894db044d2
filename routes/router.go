package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/topicbbs/apperrors"
	"github.com/cppla/topicbbs/config"
	"github.com/cppla/topicbbs/controllers"
	"github.com/cppla/topicbbs/metrics"
	"github.com/cppla/topicbbs/middleware"
	"github.com/cppla/topicbbs/utils"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	DB      *gorm.DB
	Auth    *controllers.AuthController
	Posts   *controllers.PostController
	Tokens  middleware.TokenVerifier
	Revoked middleware.RevocationChecker
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, deps Deps) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Request log goes to its own rolling file; fall back to the app logger
	gl := utils.Logger
	if cfg.GinPath != "" {
		if l, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
			gl = l
		} else {
			utils.Sugar.Warnf("gin logger init failed, using app logger: %v", err)
		}
	}
	r.Use(utils.RequestID())
	r.Use(utils.RequestLogger(gl))
	r.Use(utils.Recovery(gl, false))
	r.Use(middleware.Instrument())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.TokenHeader, utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.TokenHeader, utils.RequestIDHeader, controllers.IdempotentHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"message": "Welcome to the topicbbs API"})
	})

	r.GET("/health", func(ctx *gin.Context) {
		if deps.DB != nil {
			if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
				utils.Error(ctx, http.StatusServiceUnavailable, 50300, "database unavailable")
				return
			}
		}
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("")
	api.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	authGroup := api.Group("/auth")
	authGroup.POST("/register", deps.Auth.Register)
	authGroup.POST("/login", deps.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(deps.Tokens, deps.Revoked))
	protected.POST("/auth/logout", deps.Auth.Logout)
	protected.GET("/auth/me", deps.Auth.Me)

	protected.POST("/posts", deps.Posts.CreatePost)
	protected.GET("/posts/id/:id", deps.Posts.GetPost)
	protected.GET("/posts/:topic", deps.Posts.ListLive)
	protected.GET("/posts/:topic/expired", deps.Posts.ListExpired)
	protected.GET("/posts/:topic/most-active", deps.Posts.MostActive)
	protected.PATCH("/posts/:id/like", deps.Posts.Like)
	protected.PATCH("/posts/:id/dislike", deps.Posts.Dislike)
	protected.POST("/posts/:id/comment", deps.Posts.Comment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.RespondError(ctx, apperrors.New(apperrors.ErrNotFound, "route not found"))
	})

	return r
}
