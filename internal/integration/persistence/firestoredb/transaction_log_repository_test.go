package firestoredb

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/finance-tracker/summary/internal/domain/entity"
)

func TestDocumentIDValidator(t *testing.T) {
	v := DocumentIDValidator{}

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"firebase uid", "kX9vQ2mN8pR4sT6uW1yZ3aB5cD7e", true},
		{"object id", "507f1f77bcf86cd799439011", true},
		{"empty", "", false},
		{"contains slash", "users/abc", false},
		{"single dot", ".", false},
		{"double dot", "..", false},
		{"reserved", "__reserved__", false},
		{"double underscore prefix only", "__abc", true},
		{"max length", strings.Repeat("a", 1500), true},
		{"too long", strings.Repeat("a", 1501), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.ValidUserID(tt.id); got != tt.want {
				t.Errorf("ValidUserID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestSumValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    string
		wantErr bool
	}{
		{"no matches", nil, "0", false},
		{"null value", &firestorepb.Value{ValueType: &firestorepb.Value_NullValue{NullValue: structpb.NullValue_NULL_VALUE}}, "0", false},
		{"integer sum", &firestorepb.Value{ValueType: &firestorepb.Value_IntegerValue{IntegerValue: 350}}, "350", false},
		{"double sum", &firestorepb.Value{ValueType: &firestorepb.Value_DoubleValue{DoubleValue: 120.5}}, "120.5", false},
		{"unexpected type", "350", "0", true},
		{"unexpected value", &firestorepb.Value{ValueType: &firestorepb.Value_StringValue{StringValue: "x"}}, "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sumValue(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRecordDocument_ToEntity(t *testing.T) {
	date := time.Date(2025, time.May, 20, 18, 30, 0, 0, time.UTC)
	doc := RecordDocument{
		UserId:   "user-1",
		Source:   "Freelance",
		Category: "Travel",
		Amount:   -12.5,
		Date:     date,
	}

	income := doc.ToEntity("doc-1", entity.LogIncome)
	if income.ID != "doc-1" || income.UserID != "user-1" || income.Label != "Freelance" {
		t.Errorf("unexpected income record: %+v", income)
	}
	if !income.Amount.Equal(decimal.RequireFromString("-12.5")) {
		t.Errorf("expected -12.5, got %s", income.Amount)
	}

	if expense := doc.ToEntity("doc-1", entity.LogExpense); expense.Label != "Travel" {
		t.Errorf("expected Travel, got %s", expense.Label)
	}
}

func TestCollectionFor(t *testing.T) {
	if name, err := collectionFor(entity.LogIncome); err != nil || name != IncomeCollection {
		t.Errorf("expected %s, got %s (%v)", IncomeCollection, name, err)
	}
	if name, err := collectionFor(entity.LogExpense); err != nil || name != ExpenseCollection {
		t.Errorf("expected %s, got %s (%v)", ExpenseCollection, name, err)
	}
	if _, err := collectionFor(entity.LogType("transfer")); err == nil {
		t.Error("expected error for unknown log")
	}
}

// newEmulatorClient connects to the Firestore emulator; the query tests are
// skipped when it is not running.
func newEmulatorClient(t *testing.T) *firestore.Client {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := firestore.NewClient(context.Background(), "summary-test")
	if err != nil {
		t.Fatalf("failed to connect to emulator: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func seedDocument(t *testing.T, client *firestore.Client, collection string, doc RecordDocument) {
	t.Helper()
	if _, _, err := client.Collection(collection).Add(context.Background(), doc); err != nil {
		t.Fatalf("failed to seed %s: %v", collection, err)
	}
}

func TestTransactionLogRepository_SumAmount(t *testing.T) {
	client := newEmulatorClient(t)
	repo := NewTransactionLogRepository(client)
	ctx := context.Background()

	userID := uuid.NewString()
	date := time.Now().UTC().Truncate(time.Second)
	seedDocument(t, client, IncomeCollection, RecordDocument{UserId: userID, Source: "Salary", Amount: 100.5, Date: date, CreatedAt: date})
	seedDocument(t, client, IncomeCollection, RecordDocument{UserId: userID, Source: "Bonus", Amount: 250, Date: date, CreatedAt: date})
	seedDocument(t, client, IncomeCollection, RecordDocument{UserId: uuid.NewString(), Source: "Other", Amount: 999, Date: date, CreatedAt: date})

	t.Run("sums only the user's records", func(t *testing.T) {
		total, err := repo.SumAmount(ctx, entity.LogIncome, userID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !total.Equal(decimal.RequireFromString("350.5")) {
			t.Errorf("expected 350.5, got %s", total)
		}
	})

	t.Run("user without records yields zero", func(t *testing.T) {
		total, err := repo.SumAmount(ctx, entity.LogExpense, userID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !total.IsZero() {
			t.Errorf("expected 0, got %s", total)
		}
	})
}

func TestTransactionLogRepository_ListSince(t *testing.T) {
	client := newEmulatorClient(t)
	repo := NewTransactionLogRepository(client)
	ctx := context.Background()

	userID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)
	seedDocument(t, client, ExpenseCollection, RecordDocument{UserId: userID, Category: "Food", Amount: 10, Date: now.AddDate(0, 0, -2), CreatedAt: now})
	seedDocument(t, client, ExpenseCollection, RecordDocument{UserId: userID, Category: "Rent", Amount: 20, Date: now.AddDate(0, 0, -1), CreatedAt: now})
	seedDocument(t, client, ExpenseCollection, RecordDocument{UserId: userID, Category: "Travel", Amount: 30, Date: now.AddDate(0, 0, -45), CreatedAt: now})

	records, err := repo.ListSince(ctx, entity.LogExpense, userID, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Label != "Rent" || records[1].Label != "Food" {
		t.Errorf("expected newest first (Rent, Food), got (%s, %s)", records[0].Label, records[1].Label)
	}
}

func TestTransactionLogRepository_ListRecent(t *testing.T) {
	client := newEmulatorClient(t)
	repo := NewTransactionLogRepository(client)
	ctx := context.Background()

	userID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 7; i++ {
		seedDocument(t, client, IncomeCollection, RecordDocument{UserId: userID, Source: "Income", Amount: 1, Date: now.AddDate(0, 0, -i), CreatedAt: now})
	}

	records, err := repo.ListRecent(ctx, entity.LogIncome, userID, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Date.After(records[i-1].Date) {
			t.Errorf("records not sorted newest first at %d", i)
		}
	}
	if !records[0].Date.Equal(now) {
		t.Errorf("expected newest record dated %s, got %s", now, records[0].Date)
	}
}
