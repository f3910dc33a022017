// Package firestoredb implements the transaction log repository on Cloud Firestore.
package firestoredb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/summary/internal/application/usecase/dashboard"
	"github.com/finance-tracker/summary/internal/domain/entity"
)

// Collection names of the two transaction logs.
const (
	IncomeCollection  = "incomes"
	ExpenseCollection = "expenses"
)

const (
	fieldUserID = "UserId"
	fieldAmount = "Amount"
	fieldDate   = "Date"
	sumAlias    = "total"

	maxDocumentIDBytes = 1500
)

var collections = map[entity.LogType]string{
	entity.LogIncome:  IncomeCollection,
	entity.LogExpense: ExpenseCollection,
}

// RecordDocument is the stored shape of an income or expense record.
// Field names follow Go struct naming, as the rest of the Firestore data does.
type RecordDocument struct {
	UserId    string    `firestore:"UserId"`
	Source    string    `firestore:"Source,omitempty"`
	Category  string    `firestore:"Category,omitempty"`
	Amount    float64   `firestore:"Amount"`
	Date      time.Time `firestore:"Date"`
	CreatedAt time.Time `firestore:"CreatedAt"`
}

// ToEntity converts the document to a domain Record.
func (d RecordDocument) ToEntity(id string, log entity.LogType) entity.Record {
	label := d.Source
	if log == entity.LogExpense {
		label = d.Category
	}

	return entity.Record{
		ID:        id,
		UserID:    d.UserId,
		Label:     label,
		Amount:    decimal.NewFromFloat(d.Amount),
		Date:      d.Date.UTC(),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type transactionLogRepository struct {
	client *firestore.Client
}

// NewTransactionLogRepository creates a Firestore-backed transaction log repository.
func NewTransactionLogRepository(client *firestore.Client) dashboard.TransactionLogRepository {
	return &transactionLogRepository{client: client}
}

// SumAmount runs a server-side sum aggregation over the user's records.
func (r *transactionLogRepository) SumAmount(
	ctx context.Context,
	log entity.LogType,
	userID string,
) (decimal.Decimal, error) {
	name, err := collectionFor(log)
	if err != nil {
		return decimal.Zero, err
	}

	query := r.client.Collection(name).
		Where(fieldUserID, "==", userID)
	result, err := query.
		NewAggregationQuery().
		WithSum(fieldAmount, sumAlias).
		Get(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s: %w", name, err)
	}

	return sumValue(result[sumAlias])
}

// ListSince returns the user's records dated at or after since, newest first.
func (r *transactionLogRepository) ListSince(
	ctx context.Context,
	log entity.LogType,
	userID string,
	since time.Time,
) ([]entity.Record, error) {
	name, err := collectionFor(log)
	if err != nil {
		return nil, err
	}

	query := r.client.Collection(name).
		Where(fieldUserID, "==", userID).
		Where(fieldDate, ">=", since).
		OrderBy(fieldDate, firestore.Desc)

	return r.list(ctx, log, name, query)
}

// ListRecent returns up to limit of the user's newest records.
func (r *transactionLogRepository) ListRecent(
	ctx context.Context,
	log entity.LogType,
	userID string,
	limit int,
) ([]entity.Record, error) {
	name, err := collectionFor(log)
	if err != nil {
		return nil, err
	}

	query := r.client.Collection(name).
		Where(fieldUserID, "==", userID).
		OrderBy(fieldDate, firestore.Desc).
		Limit(limit)

	return r.list(ctx, log, name, query)
}

func (r *transactionLogRepository) list(
	ctx context.Context,
	log entity.LogType,
	name string,
	query firestore.Query,
) ([]entity.Record, error) {
	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", name, err)
	}

	records := make([]entity.Record, 0, len(docs))
	for _, doc := range docs {
		var data RecordDocument
		if err := doc.DataTo(&data); err != nil {
			return nil, fmt.Errorf("failed to parse %s document %s: %w", name, doc.Ref.ID, err)
		}
		records = append(records, data.ToEntity(doc.Ref.ID, log))
	}
	return records, nil
}

func collectionFor(log entity.LogType) (string, error) {
	name, ok := collections[log]
	if !ok {
		return "", fmt.Errorf("unknown transaction log %q", log)
	}
	return name, nil
}

// sumValue converts an aggregation result into a decimal. A missing or null
// result, which Firestore returns when nothing matched, is zero.
func sumValue(raw any) (decimal.Decimal, error) {
	if raw == nil {
		return decimal.Zero, nil
	}

	value, ok := raw.(*firestorepb.Value)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected aggregation result type %T", raw)
	}

	switch v := value.GetValueType().(type) {
	case *firestorepb.Value_IntegerValue:
		return decimal.NewFromInt(v.IntegerValue), nil
	case *firestorepb.Value_DoubleValue:
		return decimal.NewFromFloat(v.DoubleValue), nil
	case *firestorepb.Value_NullValue, nil:
		return decimal.Zero, nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected aggregation value %T", v)
	}
}

// DocumentIDValidator validates user IDs against Firestore document ID rules.
type DocumentIDValidator struct{}

// ValidUserID reports whether userID can name a Firestore document.
func (DocumentIDValidator) ValidUserID(userID string) bool {
	if userID == "" || len(userID) > maxDocumentIDBytes {
		return false
	}
	if strings.Contains(userID, "/") {
		return false
	}
	if userID == "." || userID == ".." {
		return false
	}
	if len(userID) >= 4 && strings.HasPrefix(userID, "__") && strings.HasSuffix(userID, "__") {
		return false
	}
	return true
}
