/*
engine.go - Capture flow transitions and commits

PURPOSE:
  The Engine drives sessions through their states and owns the terminal
  step: resolving the rep through the roster, appending ledger rows, and
  re-reading the sheet for the fresh count shown in the confirmation.

COMMIT RULES:
  - A sale commits only for reps the roster knows and lists as active.
    Anyone else gets a corrective message and nothing is written.
  - A failed append keeps the session alive at its current step so the
    user can retry; the attempted sale is never silently dropped.
  - After a successful append the session is gone. Replayed UI events
    from the finished flow get a no-session rejection.

SEE ALSO:
  - session.go: the session table the engine advances
  - bulk.go:    the dealer bulk variant
*/
package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bisonhq/salesbison/ledger"
	"github.com/bisonhq/salesbison/roster"
)

// =============================================================================
// ENGINE
// =============================================================================

// EngineConfig wires the engine's collaborators. Ledger and Roster are
// required; the rest default.
type EngineConfig struct {
	Ledger   *ledger.Ledger
	Roster   *roster.Cache
	Sessions *Registry        // defaults to a fresh registry
	Now      func() time.Time // defaults to time.Now
	Logger   *slog.Logger     // defaults to slog.Default()
}

type Engine struct {
	ledger   *ledger.Ledger
	roster   *roster.Cache
	sessions *Registry
	now      func() time.Time
	log      *slog.Logger
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Sessions == nil {
		cfg.Sessions = NewRegistry(RegistryConfig{Now: cfg.Now})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		ledger:   cfg.Ledger,
		roster:   cfg.Roster,
		sessions: cfg.Sessions,
		now:      cfg.Now,
		log:      cfg.Logger,
	}
}

// Sessions exposes the underlying registry for the janitor and for reset.
func (e *Engine) Sessions() *Registry { return e.sessions }

// =============================================================================
// SALE FLOW
// =============================================================================

// StartSale opens a sale session for the invoking user.
func (e *Engine) StartSale(userID int64, userName, channelID string) Session {
	s := e.sessions.StartSale(userID, userName, channelID)
	e.log.Debug("sale session started", "session", s.ID, "user", userID)
	return s
}

// SubmitCustomer consumes the customer-name step.
func (e *Engine) SubmitCustomer(sessionID string, userID int64, text string) (Session, error) {
	customer := strings.TrimSpace(text)
	if customer == "" {
		return Session{}, &ledger.ValidationError{Field: "customer", Reason: "name cannot be empty"}
	}
	if len(customer) > ledger.MaxCustomerLen {
		return Session{}, &ledger.ValidationError{
			Field:  "customer",
			Reason: fmt.Sprintf("name longer than %d characters", ledger.MaxCustomerLen),
		}
	}

	return e.sessions.Advance(sessionID, userID, func(s *Session) error {
		if err := requireStep(s, KindSale, StateAwaitingCustomer); err != nil {
			return err
		}
		s.Customer = customer
		s.State = StateAwaitingProvider
		return nil
	})
}

// ChooseProvider consumes the ISP step of a sale session.
func (e *Engine) ChooseProvider(sessionID string, userID int64, isp string) (Session, error) {
	if !ledger.ValidProvider(isp) {
		return Session{}, &ledger.ValidationError{Field: "isp", Reason: fmt.Sprintf("%q is not a known provider", isp)}
	}

	return e.sessions.Advance(sessionID, userID, func(s *Session) error {
		if err := requireStep(s, KindSale, StateAwaitingProvider); err != nil {
			return err
		}
		s.ISP = isp
		s.State = StateAwaitingPlan
		return nil
	})
}

// SaleResult is what the confirmation message shows after a commit.
type SaleResult struct {
	Record ledger.SaleRecord

	// DailyCount is the rep's sales today, re-read from the sheet after
	// the append so manual edits are reflected. CountKnown is false when
	// that re-read failed; the sale itself still landed.
	DailyCount int
	CountKnown bool
}

// CommitSale consumes the plan step and writes the sale. On a store
// failure the session stays at AwaitingPlan so the user can retry the
// step; on success the session is discarded.
func (e *Engine) CommitSale(ctx context.Context, sessionID string, userID int64, plan string) (SaleResult, error) {
	if !ledger.ValidPlan(plan) {
		return SaleResult{}, &ledger.ValidationError{Field: "plan", Reason: fmt.Sprintf("%q is not a known plan", plan)}
	}

	// Flip to Committed before any I/O: a double-click on the plan menu
	// then reads as a dead step instead of appending twice. Failures
	// restore AwaitingPlan so the user can retry.
	s, err := e.sessions.Advance(sessionID, userID, func(s *Session) error {
		if err := requireStep(s, KindSale, StateAwaitingPlan); err != nil {
			return err
		}
		s.State = StateCommitted
		return nil
	})
	if err != nil {
		return SaleResult{}, err
	}
	restore := func() {
		_, _ = e.sessions.Advance(sessionID, userID, func(s *Session) error {
			s.State = StateAwaitingPlan
			return nil
		})
	}

	entry, err := e.resolveRep(ctx, s.UserID)
	if err != nil {
		restore()
		return SaleResult{}, err
	}

	repName := entry.RepName
	if repName == "" {
		repName = s.UserName
	}
	rec := ledger.SaleRecord{
		Timestamp: e.now(),
		RepID:     s.UserID,
		RepName:   repName,
		Manager:   entry.Manager,
		Customer:  s.Customer,
		ISP:       s.ISP,
		Plan:      plan,
	}

	if err := e.ledger.Record(ctx, rec); err != nil {
		restore()
		e.log.Warn("sale append failed, session kept for retry",
			"session", s.ID, "user", s.UserID, "error", err)
		return SaleResult{}, err
	}
	e.sessions.Remove(s.ID)
	e.log.Info("sale committed",
		"rep", rec.RepName, "isp", rec.ISP, "plan", rec.Plan, "manager", rec.Manager)

	result := SaleResult{Record: rec}
	result.DailyCount, result.CountKnown = e.dailyCount(ctx, rec.RepID, rec.RepName)
	return result, nil
}

// dailyCount re-reads the sheet for the rep's sales today, dealer rows
// excluded. A failure here is reported as unknown, not as a failed sale.
func (e *Engine) dailyCount(ctx context.Context, repID int64, repName string) (int, bool) {
	counts, err := e.ledger.Counts(ctx, ledger.CountQuery{
		Now:     e.now(),
		Window:  ledger.WindowDaily,
		GroupBy: ledger.GroupByRep,
		Exclude: ledger.IsDealerRow,
	})
	if err != nil {
		e.log.Warn("daily recount failed after commit", "rep", repName, "error", err)
		return 0, false
	}
	return counts.RepTotal(repID, repName), true
}

// resolveRep gates the commit on the roster: the rep must exist and be
// active. The roster never blocks on a lookup miss for reads; only
// writes are gated.
func (e *Engine) resolveRep(ctx context.Context, repID int64) (roster.Entry, error) {
	entry, found, err := e.roster.Resolve(ctx, repID)
	if err != nil {
		return roster.Entry{}, err
	}
	if !found {
		return roster.Entry{}, fmt.Errorf("rep %d not in roster: %w", repID, ledger.ErrIdentityUnresolved)
	}
	if !entry.Active {
		return roster.Entry{}, fmt.Errorf("rep %d marked inactive: %w", repID, ledger.ErrIdentityUnresolved)
	}
	return entry, nil
}

// requireStep checks that an input event matches the session's kind and
// state. Stale UI events from an already-advanced step read as dead.
func requireStep(s *Session, kind Kind, state State) error {
	if s.Kind != kind || s.State != state {
		return fmt.Errorf("step %s no longer active: %w", state, ledger.ErrNoSession)
	}
	return nil
}

// =============================================================================
// RESET
// =============================================================================

// Reset drops every live session and forces a roster re-read. The ledger
// itself is never touched. Returns the number of dropped sessions and
// the roster refresh error, if any.
func (e *Engine) Reset(ctx context.Context) (int, error) {
	dropped := e.sessions.Reset()
	err := e.roster.ForceRefresh(ctx)
	e.log.Info("state reset", "sessions_dropped", dropped, "roster_refreshed", err == nil)
	return dropped, err
}
