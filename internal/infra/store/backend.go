// Package store selects and opens the transaction log store backend.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finance-tracker/summary/config"
	"github.com/finance-tracker/summary/internal/application/usecase/dashboard"
	"github.com/finance-tracker/summary/internal/infra/db"
	"github.com/finance-tracker/summary/internal/integration/persistence"
	"github.com/finance-tracker/summary/internal/integration/persistence/firestoredb"
	"github.com/finance-tracker/summary/internal/integration/persistence/model"
	"github.com/finance-tracker/summary/internal/integration/persistence/mongodb"
)

// Backend bundles the repository and identity validator of one store with its
// connection lifecycle.
type Backend struct {
	Driver      string
	Repository  dashboard.TransactionLogRepository
	Validator   dashboard.IdentityValidator
	HealthCheck func() bool
	Close       func() error
}

// NewBackend opens the store selected by cfg.Driver.
func NewBackend(ctx context.Context, cfg *config.StoreConfig) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		database, err := db.NewPostgresConnection(cfg)
		if err != nil {
			return nil, err
		}
		return NewGormBackend(database, config.DriverPostgres, cfg.AutoMigrate)

	case config.DriverSQLite:
		database, err := db.NewSQLiteConnection(cfg)
		if err != nil {
			return nil, err
		}
		return NewGormBackend(database, config.DriverSQLite, cfg.AutoMigrate)

	case config.DriverMongo:
		database, err := db.NewMongoConnection(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("Initialized store backend", "driver", config.DriverMongo)
		return &Backend{
			Driver:      config.DriverMongo,
			Repository:  mongodb.NewTransactionLogRepository(database.Database()),
			Validator:   mongodb.ObjectIDValidator{},
			HealthCheck: database.HealthCheck,
			Close:       database.Close,
		}, nil

	case config.DriverFirestore:
		database, err := db.NewFirestoreConnection(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.Info("Initialized store backend", "driver", config.DriverFirestore)
		return &Backend{
			Driver:      config.DriverFirestore,
			Repository:  firestoredb.NewTransactionLogRepository(database.Client()),
			Validator:   firestoredb.DocumentIDValidator{},
			HealthCheck: database.HealthCheck,
			Close:       database.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// NewGormBackend builds a backend over an open GORM database, running
// auto-migration for the income and expense tables when requested.
func NewGormBackend(database *db.Database, driver string, migrate bool) (*Backend, error) {
	if migrate {
		if err := database.AutoMigrate(model.Models()...); err != nil {
			_ = database.Close()
			return nil, err
		}
	}

	slog.Info("Initialized store backend", "driver", driver, "auto_migrate", migrate)

	return &Backend{
		Driver:      driver,
		Repository:  persistence.NewTransactionLogRepository(database.DB()),
		Validator:   persistence.UUIDKeyValidator{},
		HealthCheck: database.HealthCheck,
		Close:       database.Close,
	}, nil
}
