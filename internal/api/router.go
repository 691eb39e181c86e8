package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skainet/concentration-map/internal/config"
	"github.com/skainet/concentration-map/internal/handler"
	"github.com/skainet/concentration-map/internal/metrics"
	"github.com/skainet/concentration-map/internal/middleware"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Message *handler.MessageHandler
	Map     *handler.MapHandler
}

// SetupRouter 设置路由
func SetupRouter(ctx context.Context, cfg *config.Config, h Handlers, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimit, time.Minute)
	admin := middleware.RequireAdmin(cfg.JWTSecret)

	// 服务说明
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": cfg.NetworkName + " Cloud API",
			"endpoints": gin.H{
				"/api/v1/messages":         "GET list, POST batch from serial uplink",
				"/api/v1/messages/clear":   "POST clear messages (admin)",
				"/api/v1/messages/rescued": "POST mark person rescued (admin)",
				"/api/v1/map/markers":      "GET drawn markers as GeoJSON",
				"/api/v1/map/viewport":     "PUT client zoom level",
				"/api/v1/map/status":       "GET latest refresh status",
				"/api/v1/map/refresh":      "POST refresh now",
				"/api/health":              "GET server health",
				"/metrics":                 "GET prometheus metrics",
			},
		})
	})

	// 健康检查与指标
	r.GET("/api/health", h.Message.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// 兼容旧版上行链路与地图客户端
	legacy := r.Group("/api", middleware.RateLimit(limiter))
	{
		legacy.POST("/GetMessages", h.Message.LegacyIngest)
		legacy.GET("/messages", h.Message.LegacyList)
		legacy.POST("/clearMessages", admin, h.Message.LegacyClear)
		legacy.POST("/markRescued", admin, h.Message.LegacyMarkRescued)
	}

	// API 路由组
	v1 := r.Group("/api/v1", middleware.RateLimit(limiter))
	{
		// 消息接口
		messages := v1.Group("/messages")
		{
			messages.GET("", h.Message.List)
			messages.POST("", h.Message.Ingest)
			messages.POST("/clear", admin, h.Message.Clear)
			messages.POST("/rescued", admin, h.Message.MarkRescued)
		}

		// 地图接口
		mapGroup := v1.Group("/map")
		{
			mapGroup.GET("/markers", h.Map.GetMarkers)
			mapGroup.PUT("/viewport", h.Map.SetViewport)
			mapGroup.GET("/status", h.Map.GetStatus)
			mapGroup.POST("/refresh", h.Map.Refresh)
		}
	}

	return r
}
