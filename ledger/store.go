/*
store.go - Persistence interface for sale rows

PURPOSE:
  Defines the interface between the domain logic and the spreadsheet.
  The Store handles persistence while keeping this system append-only.
  Different implementations can use Google Sheets or in-memory storage.

APPEND-ONLY CONTRACT:
  From this system's point of view the sheet only grows:
  - Append(): Atomic multi-row write
  - NO Update() or Delete() methods exist
  Managers correct mistakes by editing the sheet directly; the next read
  simply sees the edited rows.

ATOMIC BATCHES:
  Append() ensures all-or-nothing semantics. When a dealer drop of 50
  sales is recorded, either all 50 rows land or none do. This prevents
  partial state after a transport failure.

READS:
  ReadAll() returns the raw rows of the configured range, header row
  included if the sheet has one. Callers decode and filter; the store
  never interprets cell contents.

IMPLEMENTATIONS:
  - store/sheets/sheets.go:  Production Google Sheets client
  - ledger/store/memory.go:  In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level interface using Store
  - record.go: Row encoding and parsing
*/
package ledger

import "context"

// =============================================================================
// STORE - Interface for sale row persistence (append-only)
// =============================================================================

// Store handles persistence of sale rows.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete. Ever.
// Corrections are made by editing the sheet out of band.
type Store interface {
	// Append persists records as consecutive rows, atomically.
	// Either all rows are written or none are.
	// This is the ONLY write operation.
	Append(ctx context.Context, records []SaleRecord) error

	// ReadAll returns every raw row in the sales range, in sheet order,
	// including the header row when the sheet has one.
	ReadAll(ctx context.Context) ([]Row, error)
}
