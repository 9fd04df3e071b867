/*
handlers.go - Ops HTTP handlers

PURPOSE:
  Exposes the same counts the bot renders, as JSON. Handlers parse the
  query, call the ledger's aggregation, and serialize. Every request
  re-reads the sheet, exactly like the Discord commands, so numbers
  here never lag a manual sheet edit.

GROUPING POLICY:
  group=rep      per-rep ranking, dealer bulk rows excluded
  group=manager  per-manager ranking, all rows included
  These mirror the /leaderboard and /managerboard commands.

ERROR HANDLING:
  - 400: unknown window or group value
  - 503: spreadsheet unreachable
  - 500: anything else

SEE ALSO:
  - dto.go: response shapes
  - server.go: routes and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bisonhq/salesbison/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger checks backend reachability without reading data. The sheets
// client implements it; the in-memory store used by dry runs does not,
// and a nil Pinger reports "unchecked".
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *ledger.Ledger
	Pinger Pinger
	Logger *slog.Logger

	// Now is injectable for tests; zero means time.Now.
	Now func() time.Time
}

// NewHandler creates a handler around the ledger.
func NewHandler(l *ledger.Ledger, pinger Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Ledger: l, Pinger: pinger, Logger: logger}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Healthz reports liveness. The sheet flag is advisory: the process is
// healthy even when the sheet is down, because the bot degrades to
// corrective messages rather than crashing.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Sheet: "unchecked"}
	if h.Pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.Pinger.Ping(ctx); err != nil {
			h.Logger.Warn("health ping failed", "error", err)
			resp.Sheet = "unreachable"
		} else {
			resp.Sheet = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Leaderboard returns ranked counts for one window and grouping.
// GET /api/leaderboard?window=daily&group=rep
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	window, err := ledger.ParseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown window", err)
		return
	}

	q := ledger.CountQuery{
		Now:     h.now(),
		Window:  window,
		GroupBy: ledger.GroupByRep,
		Exclude: ledger.IsDealerRow,
	}
	group := r.URL.Query().Get("group")
	switch group {
	case "", "rep":
		group = "rep"
	case "manager":
		q.GroupBy = ledger.GroupByManager
		q.Exclude = nil
	default:
		writeError(w, http.StatusBadRequest, "Unknown group, want rep or manager", nil)
		return
	}

	counts, err := h.Ledger.Counts(r.Context(), q)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	ranked := counts.Top(-1)
	resp := LeaderboardResponse{
		Window: string(window),
		Group:  group,
		Total:  counts.Total,
		Ranks:  make([]RankDTO, len(ranked)),
	}
	for i, g := range ranked {
		resp.Ranks[i] = RankDTO{Rank: i + 1, Name: g.Label, Count: g.Count}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Totals returns the org-wide rollup, dealer rows included.
// GET /api/totals
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Ledger.Records(r.Context())
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	g := ledger.GlobalTotals(recs, h.now())
	writeJSON(w, http.StatusOK, TotalsResponse{
		Daily:   g.Daily,
		Monthly: g.Monthly,
		YTD:     g.YTD,
		AllTime: g.AllTime,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) writeLedgerError(w http.ResponseWriter, err error) {
	if ledger.IsRetryable(err) {
		writeError(w, http.StatusServiceUnavailable, "Spreadsheet unreachable", err)
		return
	}
	h.Logger.Error("ops request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal error", nil)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
