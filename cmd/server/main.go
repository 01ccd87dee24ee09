package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/nhankey2000/auto-post/internal/config"
	"github.com/nhankey2000/auto-post/internal/container"
	"github.com/nhankey2000/auto-post/internal/handlers"
	"github.com/nhankey2000/auto-post/internal/logger"
	"github.com/nhankey2000/auto-post/internal/middleware"
	"github.com/nhankey2000/auto-post/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("AUTOPOST_CONFIG"), "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== autopost server starting ===")

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  cfg.Telemetry.Environment,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Enabled:      cfg.Telemetry.Enabled,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Log.Warn("Tracing disabled", zap.Error(err))
	}

	app, err := container.Build(context.Background(), cfg)
	if err != nil {
		logger.Log.Fatal("Failed to build application", zap.Error(err))
	}

	h := handlers.NewHandlers(app.DB(), app.Accounts(), app.Posts(), app.Analytics(), app.Messages(), cfg.Server.UploadDir)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.Use(middleware.RequestIDMiddleware())
	if cfg.Telemetry.Enabled {
		r.Use(middleware.TracingMiddleware(cfg.Telemetry.ServiceName))
	}
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware(app.Metrics()))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/storage", cfg.Storage.Dir)

	h.Register(r.Group("/api/v1"))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("autopost server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Publishing uploads can take a while; give them time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	app.Cleanup(ctx)
	if err := telemetry.Shutdown(ctx, tp); err != nil {
		logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
