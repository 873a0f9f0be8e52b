package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/mortgage-calculator/pkg/affordability"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS mortgage_calculations (
	id                       UUID PRIMARY KEY,
	created_at               TIMESTAMPTZ NOT NULL,
	name                     TEXT NOT NULL,
	inputs                   JSONB NOT NULL,
	loan_amount              NUMERIC NOT NULL,
	total_cost               NUMERIC NOT NULL,
	loan_to_value_percentage NUMERIC NOT NULL,
	transfer_tax_amount      NUMERIC NOT NULL,
	transfer_tax_exempt      BOOLEAN NOT NULL,
	user_segment             TEXT NOT NULL,
	calculation_status       TEXT NOT NULL,
	calculation_duration_ms  BIGINT NOT NULL,
	error_message            TEXT
);
CREATE INDEX IF NOT EXISTS mortgage_calculations_created_at_idx
	ON mortgage_calculations (created_at DESC);
ALTER TABLE mortgage_calculations
	ALTER COLUMN loan_amount TYPE NUMERIC,
	ALTER COLUMN total_cost TYPE NUMERIC,
	ALTER COLUMN loan_to_value_percentage TYPE NUMERIC,
	ALTER COLUMN transfer_tax_amount TYPE NUMERIC;
`

const insertRecord = `
INSERT INTO mortgage_calculations (
	id, created_at, name, inputs, loan_amount, total_cost,
	loan_to_value_percentage, transfer_tax_amount, transfer_tax_exempt,
	user_segment, calculation_status, calculation_duration_ms, error_message
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''))`

const selectRecords = `
SELECT id, created_at, name, inputs, loan_amount, total_cost,
	loan_to_value_percentage, transfer_tax_amount, transfer_tax_exempt,
	user_segment, calculation_status, calculation_duration_ms, error_message
FROM mortgage_calculations
ORDER BY created_at DESC
LIMIT $1`

// PostgresStore persists records in the mortgage_calculations table.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore opens the database, verifies the connection and ensures
// the schema exists.
func NewPostgresStore(ctx context.Context, logger *zap.Logger, dsn string) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db, logger: logger}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the history table and index when missing and widens
// amount columns of tables created with a fixed precision. Amounts are
// already rounded to cents by NewRecord, so the columns carry no scale.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Save inserts a record.
func (p *PostgresStore) Save(ctx context.Context, record Record) error {
	inputs, err := json.Marshal(record.Inputs)
	if err != nil {
		return fmt.Errorf("failed to encode inputs: %w", err)
	}

	_, err = p.db.ExecContext(ctx, insertRecord,
		record.ID.String(),
		record.CreatedAt,
		record.Name,
		string(inputs),
		record.Loan,
		record.TotalCost,
		record.LoanToValuePercent,
		record.TransferTaxAmount,
		record.TransferTaxExempt,
		string(record.Segment),
		string(record.Status),
		record.DurationMs,
		record.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save calculation %s: %w", record.ID, err)
	}

	p.logger.Debug(fmt.Sprintf("saved calculation %s", record.Name),
		zap.String("op", "history.PostgresStore.Save"),
		zap.String("id", record.ID.String()),
	)
	return nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns everything.
func (p *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := p.db.QueryContext(ctx, selectRecords, limitArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			record       Record
			id           string
			inputs       []byte
			segment      string
			status       string
			errorMessage sql.NullString
		)
		if err := rows.Scan(
			&id,
			&record.CreatedAt,
			&record.Name,
			&inputs,
			&record.Loan,
			&record.TotalCost,
			&record.LoanToValuePercent,
			&record.TransferTaxAmount,
			&record.TransferTaxExempt,
			&segment,
			&status,
			&record.DurationMs,
			&errorMessage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if record.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid record id %q: %w", id, err)
		}
		if err := json.Unmarshal(inputs, &record.Inputs); err != nil {
			return nil, fmt.Errorf("failed to decode inputs of %s: %w", id, err)
		}
		record.Segment = affordability.Segment(segment)
		record.Status = Status(status)
		record.ErrorMessage = errorMessage.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
