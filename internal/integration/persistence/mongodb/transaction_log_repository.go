// Package mongodb implements the transaction log repository on MongoDB.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/finance-tracker/summary/internal/application/usecase/dashboard"
	"github.com/finance-tracker/summary/internal/domain/entity"
)

// Collection names of the two transaction logs.
const (
	IncomeCollection  = "incomes"
	ExpenseCollection = "expenses"
)

var collections = map[entity.LogType]string{
	entity.LogIncome:  IncomeCollection,
	entity.LogExpense: ExpenseCollection,
}

// RecordDocument is the stored shape of an income or expense record.
// Income documents carry source, expense documents carry category.
type RecordDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	Source    string             `bson:"source,omitempty"`
	Category  string             `bson:"category,omitempty"`
	Amount    Amount             `bson:"amount"`
	Date      time.Time          `bson:"date"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// ToEntity converts the document to a domain Record, picking the label for the log.
func (d RecordDocument) ToEntity(log entity.LogType) entity.Record {
	label := d.Source
	if log == entity.LogExpense {
		label = d.Category
	}

	return entity.Record{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Label:     label,
		Amount:    d.Amount.Decimal(),
		Date:      d.Date.UTC(),
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type transactionLogRepository struct {
	db *mongo.Database
}

// NewTransactionLogRepository creates a MongoDB-backed transaction log repository.
func NewTransactionLogRepository(db *mongo.Database) dashboard.TransactionLogRepository {
	return &transactionLogRepository{db: db}
}

// SumAmount runs a $match/$group aggregation over the user's records.
func (r *transactionLogRepository) SumAmount(
	ctx context.Context,
	log entity.LogType,
	userID string,
) (decimal.Decimal, error) {
	coll, oid, err := r.resolve(log, userID)
	if err != nil {
		return decimal.Zero, err
	}

	cursor, err := coll.Aggregate(ctx, sumPipeline(oid))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s: %w", coll.Name(), err)
	}

	var results []struct {
		Total Amount `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode %s sum: %w", coll.Name(), err)
	}

	// $group over zero documents yields no result document.
	if len(results) == 0 {
		return decimal.Zero, nil
	}
	return results[0].Total.Decimal(), nil
}

// ListSince returns the user's records dated at or after since, newest first.
func (r *transactionLogRepository) ListSince(
	ctx context.Context,
	log entity.LogType,
	userID string,
	since time.Time,
) ([]entity.Record, error) {
	coll, oid, err := r.resolve(log, userID)
	if err != nil {
		return nil, err
	}

	filter := bson.D{
		{Key: "userId", Value: oid},
		{Key: "date", Value: bson.D{{Key: "$gte", Value: since}}},
	}

	return r.find(ctx, log, coll, filter, newestFirst())
}

// ListRecent returns up to limit of the user's newest records.
func (r *transactionLogRepository) ListRecent(
	ctx context.Context,
	log entity.LogType,
	userID string,
	limit int,
) ([]entity.Record, error) {
	coll, oid, err := r.resolve(log, userID)
	if err != nil {
		return nil, err
	}

	filter := bson.D{{Key: "userId", Value: oid}}

	return r.find(ctx, log, coll, filter, newestFirst().SetLimit(int64(limit)))
}

func (r *transactionLogRepository) find(
	ctx context.Context,
	log entity.LogType,
	coll *mongo.Collection,
	filter bson.D,
	opts *options.FindOptions,
) ([]entity.Record, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", coll.Name(), err)
	}

	var docs []RecordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}

	records := make([]entity.Record, len(docs))
	for i, doc := range docs {
		records[i] = doc.ToEntity(log)
	}
	return records, nil
}

func (r *transactionLogRepository) resolve(log entity.LogType, userID string) (*mongo.Collection, primitive.ObjectID, error) {
	name, ok := collections[log]
	if !ok {
		return nil, primitive.NilObjectID, fmt.Errorf("unknown transaction log %q", log)
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, primitive.NilObjectID, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	return r.db.Collection(name), oid, nil
}

func sumPipeline(userID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "userId", Value: userID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
	}
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
}

// ObjectIDValidator validates user IDs against MongoDB ObjectID keys.
type ObjectIDValidator struct{}

// ValidUserID reports whether userID is a 24-character hex ObjectID.
func (ObjectIDValidator) ValidUserID(userID string) bool {
	return primitive.IsValidObjectID(userID)
}
