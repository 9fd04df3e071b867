/*
aggregate.go - Windowed counts derived from sale rows

PURPOSE:
  Turns parsed sale records into the numbers the commands show: total
  sales in a time window, grouped per rep or per manager. Nothing here
  is cached; callers re-read the sheet and recompute every time.

WINDOW SEMANTICS:
  Windows are calendar buckets in Eastern time, compared by date
  components against "now":
    daily   - same year, month, and day
    monthly - same year and month
    ytd     - same year
    all     - every row
  Component comparison sidesteps DST boundary arithmetic entirely.

GROUPING:
  GroupByRep keys rows by rep identity: the numeric rep ID when the row
  has one, otherwise the rep display name (legacy rows). The display
  label tracks the most recent name seen for an ID, so renames don't
  split a rep's total.
  GroupByManager keys rows by manager name, with blank managers pooled
  under "Unassigned".

ORDERING:
  Groups remember first-seen sheet order. Rankings sort by count
  descending with a stable sort, so ties keep sheet order and repeated
  leaderboard calls over unchanged data render identically.

SEE ALSO:
  - record.go: row parsing, dealer row detection
  - ledger.go: the read path that feeds this
*/
package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// WINDOW - Calendar bucket selection
// =============================================================================

type Window string

const (
	WindowDaily   Window = "daily"
	WindowMonthly Window = "monthly"
	WindowYTD     Window = "ytd"
	WindowAll     Window = "all"
)

// ParseWindow maps user-supplied window names onto a Window.
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "today", "day":
		return WindowDaily, nil
	case "monthly", "month":
		return WindowMonthly, nil
	case "ytd", "year":
		return WindowYTD, nil
	case "all", "alltime", "all-time", "":
		return WindowAll, nil
	default:
		return "", &ValidationError{Field: "window", Reason: fmt.Sprintf("unknown window %q", s)}
	}
}

// Label returns the human title used in replies.
func (w Window) Label() string {
	switch w {
	case WindowDaily:
		return "Today"
	case WindowMonthly:
		return "This Month"
	case WindowYTD:
		return "Year to Date"
	default:
		return "All Time"
	}
}

// Contains reports whether ts falls in the window anchored at now. Both
// times are compared by their Eastern-time calendar components.
func (w Window) Contains(ts, now time.Time) bool {
	t := ts.In(etZone)
	n := now.In(etZone)
	switch w {
	case WindowDaily:
		return t.Year() == n.Year() && t.Month() == n.Month() && t.Day() == n.Day()
	case WindowMonthly:
		return t.Year() == n.Year() && t.Month() == n.Month()
	case WindowYTD:
		return t.Year() == n.Year()
	default:
		return true
	}
}

// =============================================================================
// GROUPING
// =============================================================================

type GroupBy int

const (
	// GroupByRep buckets rows by rep identity (ID when present, else name).
	GroupByRep GroupBy = iota
	// GroupByManager buckets rows by manager name.
	GroupByManager
)

// RepKey is the grouping key for a rep identity. Rows with an ID and
// legacy rows for the same person get distinct keys; RepTotal sums both.
func RepKey(repID int64, repName string) string {
	if repID != 0 {
		return "id:" + strconv.FormatInt(repID, 10)
	}
	return "name:" + repName
}

// ExcludeFunc filters records out of a count. The leaderboard passes
// IsDealerRow so dealer drops never inflate individual rankings.
type ExcludeFunc func(SaleRecord) bool

// CountQuery describes one aggregation pass.
type CountQuery struct {
	Now     time.Time
	Window  Window
	GroupBy GroupBy
	Exclude ExcludeFunc // nil means count everything
}

// =============================================================================
// COUNTS - Aggregation result
// =============================================================================

// GroupCount is one group's total.
type GroupCount struct {
	Key   string
	Label string
	Count int
}

// Counts is the result of one aggregation pass. Total includes every
// counted row; groups partition it.
type Counts struct {
	Total int

	order []string
	byKey map[string]*GroupCount
}

func newCounts() *Counts {
	return &Counts{byKey: make(map[string]*GroupCount)}
}

func (c *Counts) add(key, label string) {
	g, ok := c.byKey[key]
	if !ok {
		g = &GroupCount{Key: key}
		c.byKey[key] = g
		c.order = append(c.order, key)
	}
	if label != "" {
		g.Label = label
	}
	g.Count++
	c.Total++
}

// Groups returns every group in first-seen sheet order.
func (c *Counts) Groups() []GroupCount {
	out := make([]GroupCount, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.byKey[key])
	}
	return out
}

// Top returns up to n groups ranked by count descending. The sort is
// stable, so equal counts keep first-seen sheet order.
func (c *Counts) Top(n int) []GroupCount {
	ranked := c.Groups()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Get returns the count for an exact group key.
func (c *Counts) Get(key string) int {
	if g, ok := c.byKey[key]; ok {
		return g.Count
	}
	return 0
}

// RepTotal returns a rep's count across both identity keys: rows keyed by
// their ID plus any legacy rows keyed by their display name.
func (c *Counts) RepTotal(repID int64, repName string) int {
	total := 0
	if repID != 0 {
		total += c.Get("id:" + strconv.FormatInt(repID, 10))
	}
	if repName != "" {
		total += c.Get("name:" + repName)
	}
	return total
}

// =============================================================================
// COMPUTE
// =============================================================================

// ComputeCounts runs one aggregation pass over parsed records. Records
// outside the window or matched by the exclusion predicate are skipped.
func ComputeCounts(recs []SaleRecord, q CountQuery) *Counts {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}

	counts := newCounts()
	for _, rec := range recs {
		if !q.Window.Contains(rec.Timestamp, now) {
			continue
		}
		if q.Exclude != nil && q.Exclude(rec) {
			continue
		}
		switch q.GroupBy {
		case GroupByManager:
			mgr := rec.Manager
			if mgr == "" {
				mgr = ManagerUnassigned
			}
			counts.add(mgr, mgr)
		default:
			counts.add(RepKey(rec.RepID, rec.RepName), rec.RepName)
		}
	}
	return counts
}

// =============================================================================
// DERIVED QUERIES - The fixed window sets commands show
// =============================================================================

// PeriodCounts are one rep's personal counts across the standard windows.
type PeriodCounts struct {
	Daily   int
	Monthly int
	YTD     int
}

// RepCounts computes one rep's personal counts for today, this month, and
// the year to date. Dealer rows never count toward a person; legacy rows
// keyed by display name fold into the same totals.
func RepCounts(recs []SaleRecord, now time.Time, repID int64, repName string) PeriodCounts {
	count := func(w Window) int {
		c := ComputeCounts(recs, CountQuery{Now: now, Window: w, GroupBy: GroupByRep, Exclude: IsDealerRow})
		return c.RepTotal(repID, repName)
	}
	return PeriodCounts{
		Daily:   count(WindowDaily),
		Monthly: count(WindowMonthly),
		YTD:     count(WindowYTD),
	}
}

// GlobalCounts are team-wide totals across the standard windows.
type GlobalCounts struct {
	Daily   int
	Monthly int
	YTD     int
	AllTime int
}

// GlobalTotals computes team-wide totals. Dealer rows count here: the
// question is how much was sold, not who sold it.
func GlobalTotals(recs []SaleRecord, now time.Time) GlobalCounts {
	count := func(w Window) int {
		return ComputeCounts(recs, CountQuery{Now: now, Window: w}).Total
	}
	return GlobalCounts{
		Daily:   count(WindowDaily),
		Monthly: count(WindowMonthly),
		YTD:     count(WindowYTD),
		AllTime: count(WindowAll),
	}
}
