package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/scrimworks/scrimplan/internal/handler"
	internalmiddleware "github.com/scrimworks/scrimplan/internal/middleware"
	"github.com/scrimworks/scrimplan/internal/repository"
	"github.com/scrimworks/scrimplan/internal/service"
	"github.com/scrimworks/scrimplan/pkg/cache"
	"github.com/scrimworks/scrimplan/pkg/config"
	"github.com/scrimworks/scrimplan/pkg/database"
	"github.com/scrimworks/scrimplan/pkg/logger"
	corsmiddleware "github.com/scrimworks/scrimplan/pkg/middleware/cors"
	reqidmiddleware "github.com/scrimworks/scrimplan/pkg/middleware/requestid"
	"github.com/scrimworks/scrimplan/pkg/push"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()
	broker := push.NewRedisBroker(redisClient, cfg.Sync.ChannelPrefix, logr)

	weekRepo := repository.NewWeekRepository(db)
	entryRepo := repository.NewAvailabilityRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	weekSvc := service.NewWeekService(weekRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(
		weekSvc, entryRepo, cacheSvc, broker, validate, metrics, cfg.Roster.Players, logr,
	)
	exportSvc := service.NewExportService(availabilitySvc, cfg.Roster.Coach, logr)
	feedSvc := service.NewFeedService(availabilitySvc, logr)
	housekeeping := service.NewHousekeepingService(weekSvc, "", logr)

	availabilityHandler := handler.NewAvailabilityHandler(weekSvc, availabilitySvc)
	streamHandler := handler.NewStreamHandler(weekSvc, broker, metrics, logr)
	exportHandler := handler.NewExportHandler(exportSvc, feedSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.GET("/availability/weeks", availabilityHandler.ListWeeks)
	api.POST("/availability/week", availabilityHandler.EnsureWeek)
	api.GET("/availability", availabilityHandler.GetWeekAvailability)
	api.POST("/availability", availabilityHandler.UpsertAvailability)
	api.PUT("/availability/:id", availabilityHandler.UpdateAvailability)
	api.DELETE("/availability/:id", availabilityHandler.DeleteAvailability)
	api.GET("/availability/stream", streamHandler.Stream)
	if cfg.Export.Enabled {
		api.GET("/availability/export", exportHandler.WeekSheet)
		api.GET("/availability/feed.ics", exportHandler.OverlapFeed)
	}

	if err := housekeeping.Start(); err != nil {
		logr.Sugar().Fatalw("failed to start housekeeping", "error", err)
	}
	defer housekeeping.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
