package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/handlers"
	"agora/internal/logger"
	"agora/internal/reaction"
	"agora/internal/router"
	"agora/internal/services"
	"agora/internal/store"
	"agora/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := config.Load()
	if err := logger.Init(cfg.LogLevel, cfg.Development()); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	database, err := db.Open(cfg.DatabaseURL, db.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to connect database", zap.Error(err))
		os.Exit(1)
	}

	rdb := openRedis(ctx, cfg.RedisURL)
	if rdb != nil {
		defer rdb.Close()
	}

	reactionStore := store.NewReactionStore(database)

	// 异步排名服务
	ranking := services.NewRankingService(database)
	ranking.Start(ctx)

	reactionService := reaction.NewService(reactionStore,
		reaction.WithGate(store.NewUserGate(database, utils.GetCache(), cfg.UserGateTTL)),
		reaction.WithObserver(ranking),
		reaction.WithMaxAttempts(cfg.ReactionMaxAttempts),
	)

	// 每日计数对账
	services.NewReconciler(reactionService, reactionStore, rdb, cfg.ReconcileHour, cfg.ReconcileBatchSize).Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())

	// Setup Sessions
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("agora_session", sessionStore))
	r.HTMLRender = handlers.LoadTemplates()

	router.RegisterRoutes(r, cfg, database, handlers.NewReactionHandler(reactionService, cfg.ReactionRequestTimeout))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openRedis returns nil when no URL is configured or redis is unreachable;
// the reconciler then runs without a cluster lock.
func openRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("invalid REDIS_URL, continuing without redis", zap.Error(err))
		return nil
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, continuing without redis", zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	return rdb
}
