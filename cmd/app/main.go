package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"giveaway-engine/internal/common/config"
	"giveaway-engine/internal/common/logger"
	"giveaway-engine/internal/common/middleware"
	giveawayhttp "giveaway-engine/internal/features/giveaway/delivery/http"
	giveawayredis "giveaway-engine/internal/features/giveaway/repository/redis"
	"giveaway-engine/internal/features/giveaway/service"
	"giveaway-engine/internal/features/scheduler"
	schedulerredis "giveaway-engine/internal/features/scheduler/redis"
	"giveaway-engine/internal/platform/redis"
	"giveaway-engine/internal/platform/telegram"
	"giveaway-engine/internal/utils/deeplink"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger.Init("giveaway-engine", cfg.Debug)

	redisClient, err := redis.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	repo := giveawayredis.NewGiveawayRepository(redisClient)
	jobStore := schedulerredis.NewJobStore(redisClient)
	chatClient := telegram.NewClient(cfg.Telegram.BotToken)
	links := deeplink.NewBuilder(cfg.Telegram.BotUsername)

	sched := scheduler.New(jobStore, time.Duration(cfg.Scheduler.PollIntervalMS)*time.Millisecond)
	svc := service.NewService(repo, chatClient, sched, links)

	// Handlers must be in place before the scheduler starts so jobs armed by
	// a previous process run fire after restart.
	svc.RegisterHandlers(sched)
	sched.Start(ctx)
	defer sched.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", "init_data"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		if err := redisClient.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "giveaway-engine"})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.TelegramInitData(cfg.Telegram.BotToken))
	v1.Use(middleware.RequireAdmin(cfg.Telegram.AdminIDs))
	giveawayhttp.NewHandler(svc).Register(v1)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.Info().Msg("Server exited")
}
