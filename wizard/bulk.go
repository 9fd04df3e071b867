/*
bulk.go - Dealer bulk capture

PURPOSE:
  Dealer channels log sales in batches: a count, then a provider, then
  one append of N identical rows. The rows carry the dealer marker in
  the customer column so leaderboards skip them, and the channel's
  dealer-group label in the manager column so manager totals credit the
  right group.

Bulk rows are not roster-gated: the channel restriction is the gate, and
the manager column comes from configuration rather than the roster.
*/
package wizard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bisonhq/salesbison/ledger"
)

// MaxBulkCount caps a single dealer drop.
const MaxBulkCount = 200

// StartBulk opens a bulk session for one dealer context.
func (e *Engine) StartBulk(userID int64, userName, channelID, dealerLabel string) Session {
	s := e.sessions.StartBulk(userID, userName, channelID, dealerLabel)
	e.log.Debug("bulk session started", "session", s.ID, "user", userID, "label", dealerLabel)
	return s
}

// SubmitCount consumes the quantity step. Each rejection names its own
// failure so the user knows what to fix.
func (e *Engine) SubmitCount(sessionID string, userID int64, raw string) (Session, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Session{}, &ledger.ValidationError{Field: "count", Reason: fmt.Sprintf("%q is not a whole number", strings.TrimSpace(raw))}
	}
	if n <= 0 {
		return Session{}, &ledger.ValidationError{Field: "count", Reason: "must be at least 1"}
	}
	if n > MaxBulkCount {
		return Session{}, &ledger.ValidationError{Field: "count", Reason: fmt.Sprintf("cannot exceed %d per batch", MaxBulkCount)}
	}

	return e.sessions.Advance(sessionID, userID, func(s *Session) error {
		if err := requireStep(s, KindBulk, StateAwaitingCount); err != nil {
			return err
		}
		s.Count = n
		s.State = StateAwaitingProvider
		return nil
	})
}

// BulkResult is what the confirmation message shows after a bulk commit.
type BulkResult struct {
	Count       int
	ISP         string
	DealerLabel string
	Timestamp   time.Time
}

// CommitBulk consumes the provider step and appends the whole batch in
// one call: N identical rows, one timestamp, all or nothing.
func (e *Engine) CommitBulk(ctx context.Context, sessionID string, userID int64, isp string) (BulkResult, error) {
	if !ledger.ValidProvider(isp) {
		return BulkResult{}, &ledger.ValidationError{Field: "isp", Reason: fmt.Sprintf("%q is not a known provider", isp)}
	}

	s, err := e.sessions.Advance(sessionID, userID, func(s *Session) error {
		if err := requireStep(s, KindBulk, StateAwaitingProvider); err != nil {
			return err
		}
		s.State = StateCommitted
		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}
	restore := func() {
		_, _ = e.sessions.Advance(sessionID, userID, func(s *Session) error {
			s.State = StateAwaitingProvider
			return nil
		})
	}

	now := e.now()
	recs := make([]ledger.SaleRecord, s.Count)
	for i := range recs {
		recs[i] = ledger.SaleRecord{
			Timestamp: now,
			RepID:     s.UserID,
			RepName:   s.UserName,
			Manager:   s.DealerLabel,
			Customer:  ledger.DealerCustomer,
			ISP:       isp,
		}
	}

	if err := e.ledger.RecordBatch(ctx, recs); err != nil {
		restore()
		e.log.Warn("bulk append failed, session kept for retry",
			"session", s.ID, "user", s.UserID, "count", s.Count, "error", err)
		return BulkResult{}, err
	}
	e.sessions.Remove(s.ID)
	e.log.Info("bulk committed", "count", s.Count, "isp", isp, "label", s.DealerLabel)

	return BulkResult{Count: s.Count, ISP: isp, DealerLabel: s.DealerLabel, Timestamp: now}, nil
}
