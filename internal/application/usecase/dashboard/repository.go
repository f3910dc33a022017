// Package dashboard contains dashboard-related use cases.
package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/summary/internal/domain/entity"
)

// TransactionLogRepository defines the read operations the dashboard needs from
// the income and expense logs. Implementations must only return records owned by
// userID.
type TransactionLogRepository interface {
	// SumAmount returns the sum of amount over every record of the user in the log.
	// A user without records yields zero, never an error.
	SumAmount(ctx context.Context, log entity.LogType, userID string) (decimal.Decimal, error)

	// ListSince returns every record of the user dated at or after since, newest first.
	ListSince(ctx context.Context, log entity.LogType, userID string, since time.Time) ([]entity.Record, error)

	// ListRecent returns up to limit of the user's newest records, newest first.
	ListRecent(ctx context.Context, log entity.LogType, userID string, limit int) ([]entity.Record, error)
}

// IdentityValidator checks that a user ID is a well-formed key for the backing store.
type IdentityValidator interface {
	ValidUserID(userID string) bool
}

// IdentityValidatorFunc adapts a function to the IdentityValidator interface.
type IdentityValidatorFunc func(userID string) bool

// ValidUserID implements IdentityValidator.
func (f IdentityValidatorFunc) ValidUserID(userID string) bool {
	return f(userID)
}
