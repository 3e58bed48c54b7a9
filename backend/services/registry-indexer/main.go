package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/chaincode/regnet/chaincode"
	"github.com/regnet/property-registration/backend/pkg/common"
	"github.com/regnet/property-registration/backend/pkg/common/db"
	"github.com/regnet/property-registration/backend/pkg/common/migrations"
	"github.com/regnet/property-registration/backend/pkg/fabricclient"
	"github.com/regnet/property-registration/backend/pkg/rabbitmq"
	"github.com/regnet/property-registration/backend/pkg/readmodel"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := migrations.Run(ctx, conn, readmodel.Migrations()); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	var publisher rabbitmq.Publisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("rabbitmq unavailable; events will not be republished", zap.Error(err))
		} else {
			publisher = producer
		}
	}
	defer publisher.Close()

	fabric, err := fabricclient.NewClient(cfg.Fabric, chaincode.UserContractName)
	if err != nil {
		logger.Fatal("failed to connect to fabric", zap.Error(err))
	}
	defer fabric.Close()

	store := readmodel.NewPostgresStore(conn)

	scheduler, err := NewScheduler(cfg.ReconcileSchedule, NewReconciler(store, fabric, logger), logger)
	if err != nil {
		logger.Fatal("invalid reconcile schedule", zap.Error(err))
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	events, err := fabric.ChaincodeEvents(ctx, ".*")
	if err != nil {
		logger.Fatal("failed to subscribe to chaincode events", zap.Error(err))
	}

	logger.Info("registry indexer running", zap.String("channel", cfg.Fabric.Channel), zap.String("chaincode", cfg.Fabric.Chaincode))
	NewProjector(store, publisher, logger).Run(ctx, events)
	logger.Info("shutting down registry indexer")
}
