package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/microblog/config"
	_ "github.com/d60-Lab/microblog/docs"
	"github.com/d60-Lab/microblog/internal/api/handler"
	"github.com/d60-Lab/microblog/internal/api/middleware"
)

// NewRouter 组装中间件与路由
func NewRouter(cfg *config.Config, h *handler.Handler, users middleware.UserLoader, toucher middleware.Toucher) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.AccessLog(),
		gzip.Gzip(gzip.DefaultCompression),
	)
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	r.GET("/health", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.LoadPrincipal(users, toucher))
	{
		v1.POST("/users", h.Register)
		v1.GET("/users/:id", h.GetProfile)
		v1.GET("/users/:id/following", h.ListFollowing)
		v1.GET("/users/:id/followers", h.ListFollowers)

		auth := v1.Group("", middleware.RequirePrincipal())
		auth.GET("/users/:id/is-following", h.IsFollowing)
		auth.POST("/relations/follow", h.Follow)
		auth.POST("/relations/unfollow", h.Unfollow)
		auth.POST("/posts", h.Publish)
		auth.GET("/feed", h.Feed)
	}
	return r, nil
}
