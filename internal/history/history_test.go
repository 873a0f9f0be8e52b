package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/mortgage-calculator/internal/calculator"
	"github.com/iwvelando/mortgage-calculator/pkg/affordability"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCalculation(t *testing.T) calculator.Calculation {
	t.Helper()
	in := calculator.DefaultInputs()
	calc, err := calculator.Calculate(nil, "Apartment", in)
	require.NoError(t, err)
	calc.Duration = 1500 * time.Millisecond
	return calc
}

func TestNewRecord(t *testing.T) {
	calc := testCalculation(t)

	record := NewRecord(calc)
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	assert.Equal(t, "Apartment", record.Name)
	assert.Equal(t, calc.Inputs, record.Inputs)
	assert.InDelta(t, calc.Affordability.Loan, record.Loan, 0.005)
	assert.InDelta(t, calc.Affordability.TotalCost, record.TotalCost, 0.005)
	assert.InDelta(t, calc.Affordability.LoanToValueRatio*100, record.LoanToValuePercent, 0.005)
	assert.Equal(t, record.Loan, mathutil.Round(record.Loan), "loan should be stored in whole cents")
	assert.Equal(t, affordability.SegmentMidMarket, record.Segment)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Equal(t, int64(1500), record.DurationMs)
	assert.Empty(t, record.ErrorMessage)

	assert.NotEqual(t, record.ID, NewRecord(calc).ID)
}

func TestNewErrorRecord(t *testing.T) {
	in := calculator.DefaultInputs()
	in.Price = 900000

	record := NewErrorRecord("Broken", in, errors.New("boom"), 3*time.Millisecond)
	assert.Equal(t, StatusError, record.Status)
	assert.Equal(t, "boom", record.ErrorMessage)
	assert.Equal(t, affordability.SegmentLuxury, record.Segment)
	assert.Equal(t, int64(3), record.DurationMs)
	assert.Zero(t, record.Loan)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	defer func() { assert.NoError(t, store.Close()) }()

	records, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(ctx, Record{ID: uuid.New(), Name: fmt.Sprintf("r%d", i)}))
	}

	records, err = store.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "r4", records[0].Name)
	assert.Equal(t, "r2", records[2].Name)

	records, err = store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 5)

	records[0].Name = "mutated"
	again, err := store.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "r4", again[0].Name)
}

func TestMemoryStoreBounded(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Save(ctx, Record{Name: fmt.Sprintf("r%d", i)}))
	}

	records, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "r3", records[0].Name)
	assert.Equal(t, "r2", records[1].Name)
}

func TestMemoryStoreConcurrentSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Save(ctx, Record{ID: uuid.New()})
		}()
	}
	wg.Wait()

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 50)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("MORTGAGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MORTGAGE_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, zap.NewNop(), dsn)
	require.NoError(t, err)
	defer func() { assert.NoError(t, store.Close()) }()

	completed := NewRecord(testCalculation(t))
	failed := NewErrorRecord("Broken", calculator.DefaultInputs(), errors.New("invalid input"), time.Millisecond)
	failed.CreatedAt = completed.CreatedAt.Add(time.Second)

	require.NoError(t, store.Save(ctx, completed))
	require.NoError(t, store.Save(ctx, failed))

	records, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, failed.ID, records[0].ID)
	assert.Equal(t, StatusError, records[0].Status)
	assert.Equal(t, "invalid input", records[0].ErrorMessage)

	got := records[1]
	assert.Equal(t, completed.ID, got.ID)
	assert.Equal(t, completed.Inputs, got.Inputs)
	assert.InDelta(t, completed.Loan, got.Loan, 1e-6)
	assert.Equal(t, completed.Segment, got.Segment)
	assert.Empty(t, got.ErrorMessage)

	// A tiny price with ordinary fixed costs has a loan-to-value far above
	// any percentage a fixed precision column could hold.
	in := calculator.DefaultInputs()
	in.Price = 1
	in.Savings = 0
	calc, err := calculator.Calculate(nil, "Tiny price", in)
	require.NoError(t, err)
	extreme := NewRecord(calc)
	extreme.CreatedAt = failed.CreatedAt.Add(time.Second)
	require.Greater(t, extreme.LoanToValuePercent, 99999.99)

	require.NoError(t, store.Save(ctx, extreme))
	records, err = store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, extreme.ID, records[0].ID)
	assert.InDelta(t, extreme.LoanToValuePercent, records[0].LoanToValuePercent, 0.005)
}

func TestSchemaAmountColumnsHaveNoPrecisionLimit(t *testing.T) {
	assert.NotContains(t, schema, "NUMERIC(")
	for _, column := range []string{"loan_amount", "total_cost", "loan_to_value_percentage", "transfer_tax_amount"} {
		assert.Contains(t, schema, "ALTER COLUMN "+column+" TYPE NUMERIC")
	}
}

func TestNewPostgresStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewPostgresStore(ctx, nil, "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
	assert.Error(t, err)
}
