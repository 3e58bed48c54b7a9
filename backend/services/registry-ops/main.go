package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/pkg/common"
	"github.com/regnet/property-registration/backend/pkg/common/db"
	"github.com/regnet/property-registration/backend/pkg/common/migrations"
	"github.com/regnet/property-registration/backend/pkg/readmodel"
)

// Registrar operations console. Reads the projection the indexer maintains;
// approvals themselves go through the registry service.
func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := common.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := migrations.Run(ctx, database, readmodel.Migrations()); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	svc := NewService(readmodel.NewPostgresStore(database), logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(svc, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("registry ops service running", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
