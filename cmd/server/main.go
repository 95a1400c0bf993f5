package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"holiday-viewer/internal/config"
	"holiday-viewer/internal/holidayapi"
	"holiday-viewer/internal/logger"
	"holiday-viewer/internal/metrics"
	"holiday-viewer/internal/session"
	"holiday-viewer/internal/source"
	"holiday-viewer/internal/web"
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

	m := metrics.New()

	// Data API client and one source per view
	client := holidayapi.NewClient(cfg.APIBaseURL,
		holidayapi.WithLogger(logr.Named("holidayapi")),
		holidayapi.WithRecorder(m),
	)
	registry := source.NewDefaultRegistry(client)

	// Session store (Redis or in-process)
	var sessions session.Store
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		rdb, err := session.NewRedisClient(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		redisStore := session.NewRedisStore(rdb, cfg.Session.TTL)
		defer redisStore.Close()
		sessions = redisStore
		logr.Info("session store: redis", zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
	case config.SessionBackendMemory:
		sessions = session.NewMemoryStore(cfg.Session.TTL)
		logr.Info("session store: memory")
	default:
		logr.Fatal("unknown session backend", zap.String("backend", cfg.Session.Backend))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestIDMiddleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(m.GinMiddleware())

	handler := web.New(registry, sessions, logr, cfg.Location)
	handler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting",
		zap.String("addr", addr),
		zap.String("env", cfg.Env),
		zap.String("api_base_url", client.BaseURL()),
		zap.String("timezone", cfg.Location.String()),
	)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		logr.Fatal("server failed", zap.Error(err))
	}
}
