/*
ledger.go - High-level operations over the sale row store

PURPOSE:
  The Ledger is the one place that writes sale rows and the one place
  that turns raw rows back into numbers. Counts are always recomputed
  from the current sheet contents - there is no cached total anywhere
  that can drift when a manager edits the sheet by hand.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: this system never updates or deletes a row
  2. VALIDATED: every record is checked before it is written
  3. DERIVED: every count is computed by re-reading the sheet

SEE ALSO:
  - store.go:     Low-level persistence interface
  - aggregate.go: Count computation
*/
package ledger

import (
	"context"
	"fmt"
)

// =============================================================================
// LEDGER - Validated writes and derived reads
// =============================================================================

// Ledger wraps a Store with record validation and count derivation.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Record validates and appends a single sale.
func (l *Ledger) Record(ctx context.Context, rec SaleRecord) error {
	return l.RecordBatch(ctx, []SaleRecord{rec})
}

// RecordBatch validates and appends a batch of sales atomically. A single
// invalid record rejects the whole batch before anything is written.
func (l *Ledger) RecordBatch(ctx context.Context, recs []SaleRecord) error {
	if len(recs) == 0 {
		return nil
	}
	for i := range recs {
		if recs[i].Manager == "" {
			recs[i].Manager = ManagerUnassigned
		}
		if err := validateRecord(recs[i]); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return l.store.Append(ctx, recs)
}

// Records reads the full sheet and returns every parseable sale in sheet
// order. The header row and malformed rows are skipped, never fatal: a
// half-edited row in the sheet must not take counting offline.
func (l *Ledger) Records(ctx context.Context) ([]SaleRecord, error) {
	rows, err := l.store.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	rows = DropHeader(rows)

	recs := make([]SaleRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := ParseRecord(row)
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Counts reads the full sheet and computes totals for the query. Always a
// fresh read; manual sheet edits are reflected immediately.
func (l *Ledger) Counts(ctx context.Context, q CountQuery) (*Counts, error) {
	recs, err := l.Records(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeCounts(recs, q), nil
}

func validateRecord(rec SaleRecord) error {
	if rec.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "missing"}
	}
	if rec.RepName == "" {
		return &ValidationError{Field: "rep", Reason: "missing name"}
	}
	if rec.Customer == "" {
		return &ValidationError{Field: "customer", Reason: "empty"}
	}
	if len(rec.Customer) > MaxCustomerLen {
		return &ValidationError{Field: "customer", Reason: fmt.Sprintf("longer than %d characters", MaxCustomerLen)}
	}
	if !ValidProvider(rec.ISP) {
		return &ValidationError{Field: "isp", Reason: fmt.Sprintf("%q is not a known provider", rec.ISP)}
	}
	if rec.Plan != "" && !ValidPlan(rec.Plan) {
		return &ValidationError{Field: "plan", Reason: fmt.Sprintf("%q is not a known plan", rec.Plan)}
	}
	return nil
}
