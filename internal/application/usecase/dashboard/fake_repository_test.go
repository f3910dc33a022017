package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/summary/internal/domain/entity"
)

// fakeRepository is an in-memory TransactionLogRepository used by the use case tests.
type fakeRepository struct {
	mu      sync.Mutex
	records map[entity.LogType][]entity.Record
	// failures maps "<log>.<operation>" to the error that operation returns.
	failures map[string]error
	calls    int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		records:  make(map[entity.LogType][]entity.Record),
		failures: make(map[string]error),
	}
}

func (f *fakeRepository) add(log entity.LogType, userID string, amount string, label string, date time.Time) entity.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := entity.Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Label:     label,
		Amount:    decimal.RequireFromString(amount),
		Date:      date,
		CreatedAt: date,
	}
	f.records[log] = append(f.records[log], r)
	return r
}

func (f *fakeRepository) failOn(log entity.LogType, op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[string(log)+"."+op] = err
}

func (f *fakeRepository) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRepository) begin(log entity.LogType, op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.failures[string(log)+"."+op]
}

// owned returns the user's records of log sorted newest first.
func (f *fakeRepository) owned(log entity.LogType, userID string) []entity.Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]entity.Record, 0)
	for _, r := range f.records[log] {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (f *fakeRepository) SumAmount(ctx context.Context, log entity.LogType, userID string) (decimal.Decimal, error) {
	if err := f.begin(log, "sum"); err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range f.owned(log, userID) {
		total = total.Add(r.Amount)
	}
	return total, nil
}

func (f *fakeRepository) ListSince(ctx context.Context, log entity.LogType, userID string, since time.Time) ([]entity.Record, error) {
	if err := f.begin(log, "since"); err != nil {
		return nil, err
	}
	out := make([]entity.Record, 0)
	for _, r := range f.owned(log, userID) {
		if !r.Date.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListRecent(ctx context.Context, log entity.LogType, userID string, limit int) ([]entity.Record, error) {
	if err := f.begin(log, "recent"); err != nil {
		return nil, err
	}
	out := f.owned(log, userID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func uuidValidator() IdentityValidator {
	return IdentityValidatorFunc(func(userID string) bool {
		_, err := uuid.Parse(userID)
		return err == nil
	})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
