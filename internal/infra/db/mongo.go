package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/finance-tracker/summary/config"
)

// MongoDatabase wraps a MongoDB client bound to one database.
type MongoDatabase struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoConnection connects to MongoDB and verifies the primary is reachable.
func NewMongoConnection(ctx context.Context, cfg *config.StoreConfig) (*MongoDatabase, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(cfg.MongoConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	slog.Info("Database connection established",
		"driver", config.DriverMongo,
		"database", cfg.MongoDatabase,
	)

	return &MongoDatabase{
		client: client,
		db:     client.Database(cfg.MongoDatabase),
	}, nil
}

// Database returns the bound MongoDB database.
func (m *MongoDatabase) Database() *mongo.Database {
	return m.db
}

// HealthCheck pings the primary.
func (m *MongoDatabase) HealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		slog.Error("Database health check failed", "driver", config.DriverMongo, "error", err)
		return false
	}
	return true
}

// Close disconnects the client.
func (m *MongoDatabase) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongo: %w", err)
	}

	slog.Info("Database connection closed", "driver", config.DriverMongo)
	return nil
}
