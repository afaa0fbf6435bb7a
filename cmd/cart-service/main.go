// Package main provides the entry point for the cart service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/auth"
	"github.com/simpleecom/services/internal/cartapi"
	"github.com/simpleecom/services/internal/config"
	"github.com/simpleecom/services/internal/db"
	"github.com/simpleecom/services/internal/httpx"
	"github.com/simpleecom/services/internal/logging"
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

	logger.Info("Starting cart service", zap.String("addr", cfg.ListenAddr))

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

	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.JWTTTL.Std(),
	})
	if err != nil {
		logger.Fatal("Failed to create token codec", zap.Error(err))
	}

	api := cartapi.New(store.NewCarts(conn), logger)
	authn := auth.NewAuthenticator(codec, logger)

	metrics := httpx.NewMetrics("cart_service")
	root := http.NewServeMux()
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "UP", "service": "cart-service"})
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
