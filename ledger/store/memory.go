// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/bisonhq/salesbison/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps rows in a slice, in append order, exactly as a sheet would.
// Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	rows []ledger.Row
}

func NewMemory() *Memory {
	return &Memory{}
}

// Append adds all records as consecutive rows. Atomic: the conversion
// happens before the slice grows, so a caller never observes a partial
// batch.
func (m *Memory) Append(_ context.Context, records []ledger.SaleRecord) error {
	rows := make([]ledger.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.ToRow())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
	return nil
}

// ReadAll returns a deep copy of every row in append order.
func (m *Memory) ReadAll(_ context.Context) ([]ledger.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ledger.Row, len(m.rows))
	for i, row := range m.rows {
		out[i] = append(ledger.Row{}, row...)
	}
	return out, nil
}

// SeedRows injects raw rows verbatim, bypassing record validation. Tests
// use it to set up header rows, legacy five-column rows, and malformed
// rows that real sheets accumulate.
func (m *Memory) SeedRows(rows ...ledger.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.rows = append(m.rows, append(ledger.Row{}, row...))
	}
}

// Len returns the current row count, header included if one was seeded.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}
