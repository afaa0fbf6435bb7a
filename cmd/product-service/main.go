// Package main provides the entry point for the product service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/auth"
	"github.com/simpleecom/services/internal/cache"
	"github.com/simpleecom/services/internal/config"
	"github.com/simpleecom/services/internal/db"
	"github.com/simpleecom/services/internal/httpx"
	"github.com/simpleecom/services/internal/logging"
	"github.com/simpleecom/services/internal/productapi"
	"github.com/simpleecom/services/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting product service",
		zap.String("addr", cfg.ListenAddr),
		zap.Bool("cache_enabled", cfg.RedisAddr != ""),
	)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	runner, err := db.NewMigrationRunner(conn)
	if err != nil {
		logger.Fatal("Failed to create migration runner", zap.Error(err))
	}
	if err := runner.Up(); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	products := store.NewProducts(conn)
	if cfg.Seed {
		if err := products.SeedSampleProducts(ctx, logger); err != nil {
			logger.Fatal("Failed to seed sample products", zap.Error(err))
		}
	}

	var listCache productapi.ListCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			// The cache degrades to direct store reads, so a missing
			// redis is not fatal.
			logger.Warn("Redis unreachable at startup, continuing without warm cache", zap.Error(err))
		}
		listCache = cache.NewProductCache(client, 5*time.Minute, logger)
	}

	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.JWTTTL.Std(),
	})
	if err != nil {
		logger.Fatal("Failed to create token codec", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	api := productapi.New(products, listCache, logger)
	authn := auth.NewAuthenticator(codec, logger)
	engine := api.Router(authn)

	metrics := httpx.NewMetrics("product_service")
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": "product-service"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	var handler http.Handler = engine
	handler = metrics.Middleware(handler)
	handler = httpx.CORS(cfg.CORSOrigins)(handler)
	handler = httpx.RequestLogging(logger)(handler)
	handler = httpx.RequestID(handler)

	srv := httpx.NewServer(cfg.ListenAddr, handler, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
	logger.Info("Server stopped successfully")
}
