package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/finance-tracker/summary/config"
)

// FirestoreDatabase wraps a Firestore client.
type FirestoreDatabase struct {
	client *firestore.Client
}

// NewFirestoreConnection creates a Firestore client for the configured project.
// Credentials come from the configured file when set, otherwise from the
// environment's application default credentials.
func NewFirestoreConnection(ctx context.Context, cfg *config.StoreConfig) (*FirestoreDatabase, error) {
	if cfg.FirestoreProjectID == "" {
		return nil, errors.New("firestore project id is required")
	}

	var opts []option.ClientOption
	if cfg.FirestoreCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	slog.Info("Database connection established",
		"driver", config.DriverFirestore,
		"project_id", cfg.FirestoreProjectID,
	)

	return &FirestoreDatabase{client: client}, nil
}

// Client returns the underlying Firestore client.
func (f *FirestoreDatabase) Client() *firestore.Client {
	return f.client
}

// HealthCheck lists a single collection to confirm the project is reachable.
func (f *FirestoreDatabase) HealthCheck() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := f.client.Collections(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		slog.Error("Database health check failed", "driver", config.DriverFirestore, "error", err)
		return false
	}
	return true
}

// Close closes the client.
func (f *FirestoreDatabase) Close() error {
	if err := f.client.Close(); err != nil {
		return fmt.Errorf("failed to close firestore client: %w", err)
	}

	slog.Info("Database connection closed", "driver", config.DriverFirestore)
	return nil
}
