/*
ledger/timestamp.go

PURPOSE:
  The fixed timestamp encoding used in column A of the sales range. Every
  row is written and read in US Eastern time with a literal "ET" suffix:

      2025-07-04 13:05:09 ET

  The suffix is a constant label, not the live zone abbreviation, so rows
  written in January and July sort and parse identically.
*/
package ledger

import (
	"fmt"
	"strings"
	"time"
)

// tsLayout covers the first 19 characters of an encoded timestamp.
const tsLayout = "2006-01-02 15:04:05"

// tsSuffix is the fixed zone label appended on encode and required on
// decode.
const tsSuffix = "ET"

var etZone *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Minimal images without a tz database still get a usable, if
		// DST-blind, zone. The binary links time/tzdata so this is a
		// backstop, not the expected path.
		loc = time.FixedZone(tsSuffix, -5*60*60)
	}
	etZone = loc
}

// Zone returns the ledger's wall-clock zone (US Eastern).
func Zone() *time.Location { return etZone }

// EncodeTimestamp renders t in the ledger encoding, converting to Eastern
// time first.
func EncodeTimestamp(t time.Time) string {
	return t.In(etZone).Format(tsLayout) + " " + tsSuffix
}

// DecodeTimestamp parses an encoded timestamp. Exactly the encoded form
// is accepted: the "ET" label is mandatory, and any other trailing text,
// a live zone abbreviation included, rejects the row rather than
// misfiling it under the wrong wall clock. The result is located in the
// ledger zone.
func DecodeTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(tsLayout) {
		return time.Time{}, fmt.Errorf("ledger: timestamp %q too short", s)
	}
	t, err := time.ParseInLocation(tsLayout, s[:len(tsLayout)], etZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("ledger: bad timestamp %q: %w", s, err)
	}
	if rest := strings.TrimSpace(s[len(tsLayout):]); rest != tsSuffix {
		return time.Time{}, fmt.Errorf("ledger: timestamp %q has unexpected suffix %q", s, rest)
	}
	return t, nil
}
