/*
Package ledger is the core of the sales tracker: the row schema for the
spreadsheet-backed sales ledger, the timestamp codec, and the aggregation
engine that derives counts from raw rows.

PURPOSE:
  The spreadsheet is the single source of truth. Rows are append-only from
  this system's point of view; managers edit or delete rows directly in the
  sheet, out of band. Nothing here caches derived numbers - every count is
  recomputed from the current sheet contents so manual edits are always
  reflected.

KEY CONCEPTS IN THIS FILE (record.go):
  - Row:        one raw spreadsheet row, as cells
  - SaleRecord: one parsed sale (modern 7-column or legacy 5-column schema)
  - Provider/plan sets: the fixed choices offered by the capture flow
  - Header detection for the first sheet row

SEE ALSO:
  - timestamp.go: the fixed ET timestamp encoding
  - aggregate.go: windowed counts computed from rows
  - store.go:     persistence interface
*/
package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// ROW - Raw spreadsheet cells
// =============================================================================

// Row is one raw row from the sales range. Trailing empty cells may be
// absent: the Sheets API trims them, so a modern row with an empty plan
// column can come back six cells wide.
type Row []string

// Cell returns the trimmed cell at index i, or "" when the row is too short.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// =============================================================================
// SALE RECORD - One parsed ledger row
// =============================================================================

// SaleRecord is a single sale. Once appended it is immutable from this
// system's perspective; corrections happen directly in the sheet.
//
// Modern schema: Timestamp | RepId | RepName | Manager | Customer | ISP | Plan
// Legacy schema: Timestamp | RepName | Customer | ISP | Plan
// Legacy rows have RepID == 0 and Manager == "".
type SaleRecord struct {
	Timestamp time.Time
	RepID     int64 // Discord user ID; 0 on legacy rows
	RepName   string
	Manager   string
	Customer  string
	ISP       string
	Plan      string // empty on dealer bulk rows
}

// ToRow serializes in the modern 7-column schema.
func (s SaleRecord) ToRow() Row {
	repID := ""
	if s.RepID != 0 {
		repID = strconv.FormatInt(s.RepID, 10)
	}
	return Row{
		EncodeTimestamp(s.Timestamp),
		repID,
		s.RepName,
		s.Manager,
		s.Customer,
		s.ISP,
		s.Plan,
	}
}

// minRowWidth is the narrowest row worth parsing: a timestamp plus a rep
// name. Anything narrower is noise and is skipped by the aggregation.
const minRowWidth = 2

// ParseRecord parses a raw row in either schema. Rows narrower than the
// minimum width or with an undecodable timestamp return an error; callers
// aggregating the ledger skip such rows rather than failing.
func ParseRecord(row Row) (SaleRecord, error) {
	if len(row) < minRowWidth {
		return SaleRecord{}, fmt.Errorf("ledger: row has %d cells, need at least %d", len(row), minRowWidth)
	}

	ts, err := DecodeTimestamp(row.Cell(0))
	if err != nil {
		return SaleRecord{}, err
	}

	// Schema detection: modern rows carry the numeric rep ID in the second
	// cell. Six or more cells is always modern; for shorter rows a
	// digits-only second cell is the tell (legacy rows have a display name
	// there).
	modern := len(row) >= 6 || isDigits(row.Cell(1))

	if modern {
		repID, _ := strconv.ParseInt(row.Cell(1), 10, 64)
		return SaleRecord{
			Timestamp: ts,
			RepID:     repID,
			RepName:   row.Cell(2),
			Manager:   row.Cell(3),
			Customer:  row.Cell(4),
			ISP:       row.Cell(5),
			Plan:      row.Cell(6),
		}, nil
	}

	return SaleRecord{
		Timestamp: ts,
		RepName:   row.Cell(1),
		Customer:  row.Cell(2),
		ISP:       row.Cell(3),
		Plan:      row.Cell(4),
	}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// =============================================================================
// FIXED CHOICE SETS
// =============================================================================

// Providers is the fixed ISP choice set offered by the capture flow, in
// display order.
var Providers = []string{
	"Wire3",
	"Omni",
	"Brightspeed",
	"Kinetic",
	"Astound",
	"Quantum",
	"Bluepeak",
}

// Plans is the fixed plan choice set, in display order.
var Plans = []string{"500mbps", "1G", "1G+"}

// ValidProvider reports whether name is one of the fixed providers.
func ValidProvider(name string) bool { return contains(Providers, name) }

// ValidPlan reports whether name is one of the fixed plans.
func ValidPlan(name string) bool { return contains(Plans, name) }

func contains(set []string, name string) bool {
	for _, s := range set {
		if s == name {
			return true
		}
	}
	return false
}

// MaxCustomerLen caps the customer free-text field.
const MaxCustomerLen = 80

// DealerCustomer is the synthetic customer written on dealer bulk rows.
// Leaderboard aggregation excludes rows whose customer matches it
// case-insensitively; manager and admin totals keep them.
const DealerCustomer = "Dealer Sale"

// ManagerUnassigned is the manager group for rows with no manager
// (legacy rows, or roster gaps that were later corrected in the sheet).
const ManagerUnassigned = "Unassigned"

// IsDealerRow reports whether the record was written by the bulk flow.
func IsDealerRow(s SaleRecord) bool {
	return strings.EqualFold(strings.TrimSpace(s.Customer), DealerCustomer)
}

// =============================================================================
// HEADER DETECTION
// =============================================================================

// headerLabels are the exact column titles an administrator would type in
// the first sheet row, lowercased.
var headerLabels = map[string]bool{
	"timestamp": true,
	"rep id":    true,
	"repid":     true,
	"rep name":  true,
	"repname":   true,
	"manager":   true,
	"customer":  true,
	"isp":       true,
	"plan":      true,
}

// IsHeaderRow reports whether row is the sheet's header row. Only call it
// for row index 0: matching is full-cell equality against the known column
// titles, so a data row whose customer merely contains "timestamp" or "rep"
// is never misclassified, but a genuine header anywhere past index 0 is
// data by definition.
func IsHeaderRow(row Row) bool {
	if len(row) == 0 {
		return false
	}
	if headerLabels[strings.ToLower(row.Cell(0))] {
		return true
	}
	// A header with a blank or unconventional first title still counts when
	// most of the remaining cells are known column titles.
	matched := 0
	for i := range row {
		if headerLabels[strings.ToLower(row.Cell(i))] {
			matched++
		}
	}
	return matched >= 2
}

// DropHeader removes the header row, if present, from a freshly read range.
func DropHeader(rows []Row) []Row {
	if len(rows) > 0 && IsHeaderRow(rows[0]) {
		return rows[1:]
	}
	return rows
}
