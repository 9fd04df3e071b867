/*
dto.go - JSON shapes for the ops API

PURPOSE:
  Response types for the read-only ops surface. These decouple the
  internal aggregation types from the external contract so the ledger
  package can evolve without breaking dashboard consumers.
*/
package api

// HealthResponse reports liveness plus backend reachability.
type HealthResponse struct {
	Status string `json:"status"`
	Sheet  string `json:"sheet"` // "ok", "unreachable", or "unchecked"
}

// RankDTO is one leaderboard position.
type RankDTO struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LeaderboardResponse is the ranked counts for one window and grouping.
type LeaderboardResponse struct {
	Window string    `json:"window"`
	Group  string    `json:"group"`
	Total  int       `json:"total"`
	Ranks  []RankDTO `json:"ranks"`
}

// TotalsResponse is the org-wide rollup across every window.
type TotalsResponse struct {
	Daily   int `json:"daily"`
	Monthly int `json:"monthly"`
	YTD     int `json:"ytd"`
	AllTime int `json:"all_time"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
