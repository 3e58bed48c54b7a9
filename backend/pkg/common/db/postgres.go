package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Postgres driver
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/pkg/common"
)

// DSN renders the lib/pq connection string for cfg.
func DSN(cfg common.DBConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// Connect establishes a connection to the database, waiting for it to come up
func Connect(ctx context.Context, cfg common.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	for i := 0; i < 5; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		zap.L().Warn("waiting for database", zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	zap.L().Info("connected to database", zap.String("host", cfg.Host), zap.String("name", cfg.Name))
	return db, nil
}
