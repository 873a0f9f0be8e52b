// Package history records completed and failed calculations.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/mortgage-calculator/internal/calculator"
	"github.com/iwvelando/mortgage-calculator/pkg/affordability"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
)

// Status is the outcome of a recorded calculation.
type Status string

// Calculation outcomes.
const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Record is one stored calculation with its headline results.
type Record struct {
	ID                 uuid.UUID             `json:"id"`
	CreatedAt          time.Time             `json:"createdAt"`
	Name               string                `json:"name"`
	Inputs             calculator.Inputs     `json:"inputs"`
	Loan               float64               `json:"loan"`
	TotalCost          float64               `json:"totalCost"`
	LoanToValuePercent float64               `json:"loanToValuePercent"`
	TransferTaxAmount  float64               `json:"transferTaxAmount"`
	TransferTaxExempt  bool                  `json:"transferTaxExempt"`
	Segment            affordability.Segment `json:"segment"`
	Status             Status                `json:"status"`
	DurationMs         int64                 `json:"durationMs"`
	ErrorMessage       string                `json:"errorMessage,omitempty"`
}

// Store persists records. List returns the newest records first; a
// non-positive limit returns everything.
type Store interface {
	Save(ctx context.Context, record Record) error
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// NewRecord builds a completed record from a calculation. Amounts are
// rounded to cents and the loan-to-value to two decimals.
func NewRecord(calc calculator.Calculation) Record {
	a := calc.Affordability
	return Record{
		ID:                 uuid.New(),
		CreatedAt:          time.Now().UTC(),
		Name:               calc.Name,
		Inputs:             calc.Inputs,
		Loan:               mathutil.Round(a.Loan),
		TotalCost:          mathutil.Round(a.TotalCost),
		LoanToValuePercent: mathutil.Round(a.LoanToValueRatio * constants.PercentageMultiplier),
		TransferTaxAmount:  mathutil.Round(a.TransferTaxAmount),
		TransferTaxExempt:  a.TransferTaxExempt,
		Segment:            calc.Segment,
		Status:             StatusCompleted,
		DurationMs:         calc.Duration.Milliseconds(),
	}
}

// NewErrorRecord builds a record for a calculation that failed.
func NewErrorRecord(name string, inputs calculator.Inputs, err error, duration time.Duration) Record {
	record := Record{
		ID:         uuid.New(),
		CreatedAt:  time.Now().UTC(),
		Name:       name,
		Inputs:     inputs,
		Segment:    affordability.SegmentForPrice(inputs.Price),
		Status:     StatusError,
		DurationMs: duration.Milliseconds(),
	}
	if err != nil {
		record.ErrorMessage = err.Error()
	}
	return record
}

// MemoryStore keeps records in process, newest first.
type MemoryStore struct {
	mu         sync.RWMutex
	records    []Record
	maxRecords int
}

// NewMemoryStore creates a MemoryStore that keeps at most maxRecords
// records. A non-positive maxRecords means no bound.
func NewMemoryStore(maxRecords int) *MemoryStore {
	return &MemoryStore{maxRecords: maxRecords}
}

// Save prepends the record, dropping the oldest when full.
func (m *MemoryStore) Save(_ context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append([]Record{record}, m.records...)
	if m.maxRecords > 0 && len(m.records) > m.maxRecords {
		m.records = m.records[:m.maxRecords]
	}
	return nil
}

// List returns up to limit records, newest first.
func (m *MemoryStore) List(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, n)
	copy(out, m.records[:n])
	return out, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
