package database

import (
	"context"
	"fmt"

	"health-intake-backend/config"
	"health-intake-backend/repository"

	"go.uber.org/zap"
)

// Connection is an open backend plus whatever must be released on shutdown.
type Connection struct {
	Store repository.Store
	close func(ctx context.Context) error
}

// Connect establishes database connection based on config
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Connection, error) {
	switch cfg.Database.Type {
	case "mongodb":
		client, db, err := ConnectMongoDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Connection{
			Store: repository.NewMongoStore(db),
			close: func(ctx context.Context) error { return DisconnectMongoDB(ctx, client, logger) },
		}, nil
	case "postgresql":
		pool, err := ConnectPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Connection{
			Store: repository.NewPostgresStore(pool),
			close: func(context.Context) error {
				pool.Close()
				logger.Info("Disconnected from PostgreSQL")
				return nil
			},
		}, nil
	case "memory":
		store := repository.NewMemoryStore()
		SeedDemoData(store)
		logger.Warn("Using in-memory store with demo data; nothing is persisted")
		return &Connection{Store: store}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}

// Disconnect closes database connection
func (c *Connection) Disconnect(ctx context.Context) error {
	if c == nil || c.close == nil {
		return nil
	}
	return c.close(ctx)
}

// HealthCheck performs a database health check
func (c *Connection) HealthCheck(ctx context.Context) error {
	return c.Store.Ping(ctx)
}
