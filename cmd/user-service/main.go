// Package main provides the entry point for the user service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/auth"
	"github.com/simpleecom/services/internal/config"
	"github.com/simpleecom/services/internal/db"
	"github.com/simpleecom/services/internal/httpx"
	"github.com/simpleecom/services/internal/logging"
	"github.com/simpleecom/services/internal/ratelimit"
	"github.com/simpleecom/services/internal/store"
	"github.com/simpleecom/services/internal/userapi"
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

	logger.Info("Starting user service", zap.String("addr", cfg.ListenAddr))

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

	roles := store.NewRoles(conn)
	if err := roles.EnsureDefaults(ctx); err != nil {
		logger.Fatal("Failed to seed role catalog", zap.Error(err))
	}

	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.JWTTTL.Std(),
	})
	if err != nil {
		logger.Fatal("Failed to create token codec", zap.Error(err))
	}

	users := store.NewUsers(conn, logger)
	api := userapi.New(users, roles, codec, users, logger)
	authn := auth.NewAuthenticator(codec, logger)

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		api.UseLoginLimiter(ratelimit.NewLimiter(client, ratelimit.Config{
			Rate:      10,
			Window:    time.Minute,
			KeyPrefix: "user-service",
			FailOpen:  true,
		}))
		logger.Info("login throttling enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	metrics := httpx.NewMetrics("user_service")
	root := http.NewServeMux()
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "UP", "service": "user-service"})
	})
	root.Handle("/metrics", metrics.Handler())
	root.Handle("/", api.Router(authn))

	var handler http.Handler = root
	handler = metrics.Middleware(handler)
	handler = httpx.CORS(cfg.CORSOrigins)(handler)
	handler = httpx.Recovery(logger)(handler)
	handler = httpx.RequestLogging(logger)(handler)
	handler = httpx.RequestID(handler)

	srv := httpx.NewServer(cfg.ListenAddr, handler, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
	logger.Info("Server stopped successfully")
}
