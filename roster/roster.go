/*
Package roster resolves rep identities to names and managers.

PURPOSE:
  Administrators maintain a roster range in the same spreadsheet as the
  sales ledger: one row per rep with their chat platform ID, display
  name, manager, and an active flag. This package parses that range and
  serves lookups through a TTL cache so every capture does not cost a
  spreadsheet read.

GATING ROLE:
  A rep who is absent from the roster, or marked inactive, cannot commit
  new sales. Resolution failures block the capture with a corrective
  message; they never alter rows already in the ledger.

SEE ALSO:
  - cache.go: the TTL cache over these entries
*/
package roster

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bisonhq/salesbison/ledger"
)

// =============================================================================
// ENTRY - One roster row
// =============================================================================

// Entry is one rep in the roster range.
// Schema: RepId | RepName | Manager | Active
type Entry struct {
	RepID   int64
	RepName string
	Manager string
	Active  bool
}

// ParseEntry parses one roster row. The RepId cell must be numeric; the
// header row and any junk rows fail this naturally and are skipped by
// ParseRoster.
func ParseEntry(row ledger.Row) (Entry, error) {
	repID, err := strconv.ParseInt(row.Cell(0), 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("roster: bad rep id %q", row.Cell(0))
	}
	return Entry{
		RepID:   repID,
		RepName: row.Cell(1),
		Manager: row.Cell(2),
		Active:  parseActive(row.Cell(3)),
	}, nil
}

// parseActive treats only explicit negatives as false. An absent column,
// an empty cell, or any unrecognized value all mean active: the roster
// predates the Active column and old rows must keep working.
func parseActive(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "false", "0", "no", "n":
		return false
	default:
		return true
	}
}

// ParseRoster indexes a raw roster range by rep ID. Unparseable rows are
// skipped. When administrators accidentally duplicate an ID the last row
// wins, matching how they read the sheet top to bottom.
func ParseRoster(rows []ledger.Row) map[int64]Entry {
	entries := make(map[int64]Entry, len(rows))
	for _, row := range rows {
		e, err := ParseEntry(row)
		if err != nil {
			continue
		}
		entries[e.RepID] = e
	}
	return entries
}
