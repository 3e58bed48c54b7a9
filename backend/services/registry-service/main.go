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

	"github.com/regnet/property-registration/backend/chaincode/regnet/chaincode"
	"github.com/regnet/property-registration/backend/pkg/common"
	"github.com/regnet/property-registration/backend/pkg/fabricclient"
)

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

	users, err := fabricclient.NewClient(cfg.Fabric, chaincode.UserContractName, chaincode.RegistrarContractName)
	if err != nil {
		logger.Fatal("failed to connect to fabric", zap.Error(err))
	}
	defer users.Close()

	contracts := Contracts{
		chaincode.UserContractName:      users,
		chaincode.RegistrarContractName: users,
	}
	if cfg.Registrar.Enabled() {
		registrar, err := fabricclient.NewClient(cfg.Fabric.AsRegistrar(cfg.Registrar), chaincode.RegistrarContractName)
		if err != nil {
			logger.Fatal("failed to connect to fabric as registrar", zap.Error(err))
		}
		defer registrar.Close()
		contracts[chaincode.RegistrarContractName] = registrar
	}

	svc := NewService(contracts, logger)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(svc, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("registry service running", zap.String("port", cfg.Port), zap.String("msp_id", cfg.Fabric.MSPID))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down registry service")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}
