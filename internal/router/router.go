package router

import (
	"agora/internal/config"
	"agora/internal/handlers"
	"agora/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// RegisterRoutes wires the reaction API onto r. Session middleware must
// already be installed.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, db *gorm.DB, reactionHandler *handlers.ReactionHandler) {
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.LoadUser(cfg.JWTSecret))

	r.GET("/healthz", handlers.Health(db))           // 健康检查
	r.GET("/metrics", gin.WrapH(promhttp.Handler())) // Prometheus 指标

	api := r.Group("/api")
	api.GET("/:type/:id/stats", reactionHandler.Stats) // 公开统计

	// 需要登录 (Protected Routes)
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/:type/:id/reactions/me", reactionHandler.Mine) // 我的反应

		toggles := authorized.Group("/")
		toggles.Use(middleware.ReactionRateLimit(cfg.ReactionRatePerSecond, burstFor(cfg.ReactionRatePerSecond)))
		toggles.POST("/:type/:id/reactions", reactionHandler.Toggle) // 点赞/点踩切换
		toggles.POST("/:type/:id/like", reactionHandler.Like)        // 点赞
		toggles.POST("/:type/:id/dislike", reactionHandler.Dislike)  // 点踩
	}

	// 管理员 (Admin Routes)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired(db))
	{
		admin.POST("/:type/:id/reconcile", reactionHandler.Reconcile) // 计数对账
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "HX-Request", "HX-Target", "HX-Current-URL")
	c.ExposeHeaders = []string{middleware.RequestIDHeader, "HX-Redirect", "Retry-After"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

func burstFor(perSecond float64) int {
	if perSecond < 1 {
		return 1
	}
	return int(perSecond) * 2
}
