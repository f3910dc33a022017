// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/finance-tracker/summary/internal/application/usecase/dashboard"
	"github.com/finance-tracker/summary/internal/domain/entity"
)

// logTable maps a transaction log to its table and label column.
type logTable struct {
	name        string
	labelColumn string
}

var logTables = map[entity.LogType]logTable{
	entity.LogIncome:  {name: "incomes", labelColumn: "source"},
	entity.LogExpense: {name: "expenses", labelColumn: "category"},
}

// recordRow is the common projection of an income or expense row.
type recordRow struct {
	ID        uuid.UUID       `gorm:"column:id"`
	UserID    uuid.UUID       `gorm:"column:user_id"`
	Label     string          `gorm:"column:label"`
	Amount    decimal.Decimal `gorm:"column:amount"`
	Date      time.Time       `gorm:"column:date"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (r recordRow) toEntity() entity.Record {
	return entity.Record{
		ID:        r.ID.String(),
		UserID:    r.UserID.String(),
		Label:     r.Label,
		Amount:    r.Amount,
		Date:      r.Date,
		CreatedAt: r.CreatedAt,
	}
}

// transactionLogRepository implements the dashboard.TransactionLogRepository interface.
type transactionLogRepository struct {
	db *gorm.DB
}

// NewTransactionLogRepository creates a new gorm-backed transaction log repository.
func NewTransactionLogRepository(db *gorm.DB) dashboard.TransactionLogRepository {
	return &transactionLogRepository{
		db: db,
	}
}

// SumAmount returns the sum of amount over every record of the user in the log.
func (r *transactionLogRepository) SumAmount(
	ctx context.Context,
	log entity.LogType,
	userID string,
) (decimal.Decimal, error) {
	table, uid, err := resolve(log, userID)
	if err != nil {
		return decimal.Zero, err
	}

	var result struct {
		Total decimal.NullDecimal `gorm:"column:total"`
	}

	err = r.db.WithContext(ctx).
		Table(table.name).
		Select("SUM(amount) AS total").
		Where("user_id = ?", uid).
		Scan(&result).Error

	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s: %w", table.name, err)
	}

	// SUM over zero rows is NULL.
	if !result.Total.Valid {
		return decimal.Zero, nil
	}
	return result.Total.Decimal, nil
}

// ListSince returns every record of the user dated at or after since, newest first.
func (r *transactionLogRepository) ListSince(
	ctx context.Context,
	log entity.LogType,
	userID string,
	since time.Time,
) ([]entity.Record, error) {
	table, uid, err := resolve(log, userID)
	if err != nil {
		return nil, err
	}

	var rows []recordRow
	err = r.baseQuery(ctx, table, uid).
		Where(r.dateExpr()+" >= "+r.dateParam(), since.UTC()).
		Order(r.newestFirst()).
		Scan(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list %s since %s: %w", table.name, since.Format(time.RFC3339), err)
	}

	return toRecords(rows), nil
}

// ListRecent returns up to limit of the user's newest records, newest first.
func (r *transactionLogRepository) ListRecent(
	ctx context.Context,
	log entity.LogType,
	userID string,
	limit int,
) ([]entity.Record, error) {
	table, uid, err := resolve(log, userID)
	if err != nil {
		return nil, err
	}

	var rows []recordRow
	err = r.baseQuery(ctx, table, uid).
		Order(r.newestFirst()).
		Limit(limit).
		Scan(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list recent %s: %w", table.name, err)
	}

	return toRecords(rows), nil
}

func (r *transactionLogRepository) baseQuery(ctx context.Context, table logTable, uid uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Table(table.name).
		Select(fmt.Sprintf("id, user_id, %s AS label, amount, date, created_at", table.labelColumn)).
		Where("user_id = ?", uid)
}

// SQLite keeps datetimes as text carrying the offset they were written with,
// so comparisons and ordering go through julianday to work on instants.
func (r *transactionLogRepository) isSQLite() bool {
	return r.db.Dialector.Name() == "sqlite"
}

func (r *transactionLogRepository) dateExpr() string {
	if r.isSQLite() {
		return "julianday(date)"
	}
	return "date"
}

func (r *transactionLogRepository) dateParam() string {
	if r.isSQLite() {
		return "julianday(?)"
	}
	return "?"
}

func (r *transactionLogRepository) newestFirst() string {
	if r.isSQLite() {
		return "julianday(date) DESC, date DESC"
	}
	return "date DESC"
}

func resolve(log entity.LogType, userID string) (logTable, uuid.UUID, error) {
	table, ok := logTables[log]
	if !ok {
		return logTable{}, uuid.Nil, fmt.Errorf("unknown transaction log %q", log)
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return logTable{}, uuid.Nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	return table, uid, nil
}

func toRecords(rows []recordRow) []entity.Record {
	records := make([]entity.Record, len(rows))
	for i, row := range rows {
		records[i] = row.toEntity()
	}
	return records
}

// UUIDKeyValidator validates user IDs against the relational store's UUID keys.
type UUIDKeyValidator struct{}

// ValidUserID reports whether userID parses as a UUID.
func (UUIDKeyValidator) ValidUserID(userID string) bool {
	if userID == "" {
		return false
	}
	_, err := uuid.Parse(userID)
	return err == nil
}
