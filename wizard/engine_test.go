package wizard_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisonhq/salesbison/ledger"
	"github.com/bisonhq/salesbison/ledger/store"
	"github.com/bisonhq/salesbison/roster"
	"github.com/bisonhq/salesbison/wizard"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, time.March, 10, 9, 0, 0, 0, ledger.Zone())}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

type rosterRows struct {
	mu   sync.Mutex
	rows []ledger.Row
}

func (r *rosterRows) ReadAll(_ context.Context) ([]ledger.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ledger.Row, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

func (r *rosterRows) set(rows ...ledger.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = rows
}

// flakyStore fails a set number of appends before behaving again.
type flakyStore struct {
	*store.Memory
	mu          sync.Mutex
	failAppends int
}

func (f *flakyStore) Append(ctx context.Context, recs []ledger.SaleRecord) error {
	f.mu.Lock()
	if f.failAppends > 0 {
		f.failAppends--
		f.mu.Unlock()
		return &ledger.StoreError{Op: "append", Err: errors.New("quota exceeded")}
	}
	f.mu.Unlock()
	return f.Memory.Append(ctx, recs)
}

type testRig struct {
	engine *wizard.Engine
	mem    *store.Memory
	flaky  *flakyStore
	src    *rosterRows
	cache  *roster.Cache
	clock  *fakeClock
}

func newTestRig() *testRig {
	mem := store.NewMemory()
	flaky := &flakyStore{Memory: mem}
	src := &rosterRows{}
	src.set(
		ledger.Row{"42", "Dana", "Marcus", ""},
		ledger.Row{"43", "Izzy", "Marcus", "false"},
	)
	clock := newFakeClock()
	cache := roster.NewCache(roster.CacheConfig{Source: src, Now: clock.Now})

	engine := wizard.NewEngine(wizard.EngineConfig{
		Ledger: ledger.New(flaky),
		Roster: cache,
		Now:    clock.Now,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &testRig{engine: engine, mem: mem, flaky: flaky, src: src, cache: cache, clock: clock}
}

// =============================================================================
// SALE FLOW
// =============================================================================

func TestSaleFlow_HappyPath(t *testing.T) {
	// GIVEN: An active rep in the sales channel
	// WHEN: Walking customer -> provider -> plan
	// THEN: Exactly one row lands with those three fields, a fresh
	//       timestamp, the roster name and manager, and a daily count of 1

	rig := newTestRig()
	ctx := context.Background()

	s := rig.engine.StartSale(42, "dana_discord", "chan-sales")
	assert.Equal(t, wizard.StateAwaitingCustomer, s.State)

	s, err := rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, wizard.StateAwaitingProvider, s.State)

	s, err = rig.engine.ChooseProvider(s.ID, 42, "Astound")
	require.NoError(t, err)
	assert.Equal(t, wizard.StateAwaitingPlan, s.State)

	res, err := rig.engine.CommitSale(ctx, s.ID, 42, "1G")
	require.NoError(t, err)

	assert.Equal(t, 1, rig.mem.Len())
	assert.Equal(t, "Jane Doe", res.Record.Customer)
	assert.Equal(t, "Astound", res.Record.ISP)
	assert.Equal(t, "1G", res.Record.Plan)
	assert.Equal(t, int64(42), res.Record.RepID)
	assert.Equal(t, "Dana", res.Record.RepName, "roster name wins over the chat display name")
	assert.Equal(t, "Marcus", res.Record.Manager)
	assert.True(t, res.Record.Timestamp.Equal(rig.clock.Now()))

	require.True(t, res.CountKnown)
	assert.Equal(t, 1, res.DailyCount)
}

func TestSaleFlow_CannotAdvanceAfterCommit(t *testing.T) {
	// GIVEN: A committed sale
	// WHEN: Replaying the plan step
	// THEN: No session; no second row

	rig := newTestRig()
	ctx := context.Background()

	s := rig.engine.StartSale(42, "dana", "chan-sales")
	_, err := rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	require.NoError(t, err)
	_, err = rig.engine.ChooseProvider(s.ID, 42, "Astound")
	require.NoError(t, err)
	_, err = rig.engine.CommitSale(ctx, s.ID, 42, "1G")
	require.NoError(t, err)

	_, err = rig.engine.CommitSale(ctx, s.ID, 42, "1G")
	assert.ErrorIs(t, err, ledger.ErrNoSession)
	assert.Equal(t, 1, rig.mem.Len())
}

func TestSaleFlow_IdleTimeout(t *testing.T) {
	// GIVEN: A session idle past the timeout
	// WHEN: Submitting the next step
	// THEN: Session-expired first, then no-session once it is gone

	rig := newTestRig()

	s := rig.engine.StartSale(42, "dana", "chan-sales")
	rig.clock.Advance(wizard.DefaultIdleTimeout + time.Second)

	_, err := rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	assert.ErrorIs(t, err, ledger.ErrSessionExpired)

	_, err = rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	assert.ErrorIs(t, err, ledger.ErrNoSession)
	assert.Equal(t, 0, rig.mem.Len())
}

func TestSaleFlow_TouchExtendsDeadline(t *testing.T) {
	// GIVEN: A user who takes 100s per step, under the 120s idle bound
	// WHEN: Walking the whole flow
	// THEN: Every step succeeds; the deadline is per-step idle, not total

	rig := newTestRig()
	ctx := context.Background()

	s := rig.engine.StartSale(42, "dana", "chan-sales")

	rig.clock.Advance(100 * time.Second)
	_, err := rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	require.NoError(t, err)

	rig.clock.Advance(100 * time.Second)
	_, err = rig.engine.ChooseProvider(s.ID, 42, "Astound")
	require.NoError(t, err)

	rig.clock.Advance(100 * time.Second)
	_, err = rig.engine.CommitSale(ctx, s.ID, 42, "1G")
	require.NoError(t, err)
	assert.Equal(t, 1, rig.mem.Len())
}

func TestSaleFlow_OwnerOnly(t *testing.T) {
	// GIVEN: One user's session
	// WHEN: Another user tries to drive it
	// THEN: Denied, and the session still works for its owner

	rig := newTestRig()

	s := rig.engine.StartSale(42, "dana", "chan-sales")

	_, err := rig.engine.SubmitCustomer(s.ID, 99, "Hijack Attempt")
	assert.ErrorIs(t, err, ledger.ErrAccessDenied)

	_, err = rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	assert.NoError(t, err)
}

func TestSaleFlow_CustomerValidation(t *testing.T) {
	// GIVEN: A session at the customer step
	// WHEN: Submitting empty or oversized names
	// THEN: Rejected with a validation error; the step survives for retry

	rig := newTestRig()

	s := rig.engine.StartSale(42, "dana", "chan-sales")

	_, err := rig.engine.SubmitCustomer(s.ID, 42, "   ")
	assert.ErrorIs(t, err, ledger.ErrValidation)

	long := strings.Repeat("x", ledger.MaxCustomerLen+1)
	_, err = rig.engine.SubmitCustomer(s.ID, 42, long)
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	assert.NoError(t, err, "the step must still accept a corrected name")
}

func TestSaleFlow_RejectsUnknownChoices(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	s := rig.engine.StartSale(42, "dana", "chan-sales")
	_, err := rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	require.NoError(t, err)

	_, err = rig.engine.ChooseProvider(s.ID, 42, "Comcast")
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = rig.engine.ChooseProvider(s.ID, 42, "Astound")
	require.NoError(t, err)

	_, err = rig.engine.CommitSale(ctx, s.ID, 42, "10G")
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Equal(t, 0, rig.mem.Len())
}

func TestSaleFlow_StaleStepRejected(t *testing.T) {
	// GIVEN: A session already past the provider step
	// WHEN: Replaying the customer step
	// THEN: The old step reads as dead

	rig := newTestRig()

	s := rig.engine.StartSale(42, "dana", "chan-sales")
	_, err := rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	require.NoError(t, err)

	_, err = rig.engine.SubmitCustomer(s.ID, 42, "Jane Again")
	assert.ErrorIs(t, err, ledger.ErrNoSession)
}

// =============================================================================
// ROSTER GATING
// =============================================================================

func TestSaleFlow_UnknownRep_BlockedAtCommit(t *testing.T) {
	// GIVEN: A rep missing from the roster
	// WHEN: Committing
	// THEN: Blocked with identity-unresolved, nothing written; after the
	//       roster is corrected the same session commits

	rig := newTestRig()
	ctx := context.Background()

	s := rig.engine.StartSale(77, "newbie", "chan-sales")
	_, err := rig.engine.SubmitCustomer(s.ID, 77, "Jane Doe")
	require.NoError(t, err)
	_, err = rig.engine.ChooseProvider(s.ID, 77, "Wire3")
	require.NoError(t, err)

	_, err = rig.engine.CommitSale(ctx, s.ID, 77, "1G")
	assert.ErrorIs(t, err, ledger.ErrIdentityUnresolved)
	assert.Equal(t, 0, rig.mem.Len())

	rig.src.set(
		ledger.Row{"42", "Dana", "Marcus", ""},
		ledger.Row{"77", "Noor", "Priya", ""},
	)
	require.NoError(t, rig.cache.ForceRefresh(ctx))

	res, err := rig.engine.CommitSale(ctx, s.ID, 77, "1G")
	require.NoError(t, err)
	assert.Equal(t, "Noor", res.Record.RepName)
	assert.Equal(t, "Priya", res.Record.Manager)
	assert.Equal(t, 1, rig.mem.Len())
}

func TestSaleFlow_InactiveRep_BlockedAtCommit(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	s := rig.engine.StartSale(43, "izzy", "chan-sales")
	_, err := rig.engine.SubmitCustomer(s.ID, 43, "Jane Doe")
	require.NoError(t, err)
	_, err = rig.engine.ChooseProvider(s.ID, 43, "Wire3")
	require.NoError(t, err)

	_, err = rig.engine.CommitSale(ctx, s.ID, 43, "1G")
	assert.ErrorIs(t, err, ledger.ErrIdentityUnresolved)
	assert.Equal(t, 0, rig.mem.Len())
}

// =============================================================================
// STORE FAILURE
// =============================================================================

func TestSaleFlow_AppendFails_SessionSurvivesForRetry(t *testing.T) {
	// GIVEN: A backend that rejects the first append
	// WHEN: Committing, then retrying the same step
	// THEN: The failure surfaces, nothing half-lands, and the retry works

	rig := newTestRig()
	ctx := context.Background()
	rig.flaky.failAppends = 1

	s := rig.engine.StartSale(42, "dana", "chan-sales")
	_, err := rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	require.NoError(t, err)
	_, err = rig.engine.ChooseProvider(s.ID, 42, "Astound")
	require.NoError(t, err)

	_, err = rig.engine.CommitSale(ctx, s.ID, 42, "1G")
	assert.ErrorIs(t, err, ledger.ErrStoreUnavailable)
	assert.Equal(t, 0, rig.mem.Len())

	res, err := rig.engine.CommitSale(ctx, s.ID, 42, "1G")
	require.NoError(t, err)
	assert.Equal(t, 1, rig.mem.Len())
	assert.Equal(t, "Jane Doe", res.Record.Customer)
}

// =============================================================================
// BULK FLOW
// =============================================================================

func TestBulkFlow_HappyPath(t *testing.T) {
	// GIVEN: A dealer channel session
	// WHEN: count=5, provider=Quantum
	// THEN: Exactly 5 rows, each with the dealer marker, empty plan, and
	//       the channel's dealer label as manager, all on one timestamp

	rig := newTestRig()
	ctx := context.Background()

	s := rig.engine.StartBulk(42, "dana", "chan-dealer-east", "Eastside Dealers")
	assert.Equal(t, wizard.StateAwaitingCount, s.State)

	s, err := rig.engine.SubmitCount(s.ID, 42, "5")
	require.NoError(t, err)
	assert.Equal(t, wizard.StateAwaitingProvider, s.State)
	assert.Equal(t, 5, s.Count)

	res, err := rig.engine.CommitBulk(ctx, s.ID, 42, "Quantum")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Count)
	assert.Equal(t, "Eastside Dealers", res.DealerLabel)

	recs, err := ledger.New(rig.mem).Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	for _, rec := range recs {
		assert.Equal(t, ledger.DealerCustomer, rec.Customer)
		assert.Equal(t, "", rec.Plan)
		assert.Equal(t, "Eastside Dealers", rec.Manager)
		assert.Equal(t, "Quantum", rec.ISP)
		assert.True(t, rec.Timestamp.Equal(rig.clock.Now()))
		assert.True(t, ledger.IsDealerRow(rec))
	}
}

func TestBulkFlow_CountValidation(t *testing.T) {
	// GIVEN: The count step
	// WHEN: Submitting junk, zero, and an over-cap count
	// THEN: Each is rejected with its own message and zero rows append;
	//       a corrected count still works

	rig := newTestRig()
	ctx := context.Background()

	s := rig.engine.StartBulk(42, "dana", "chan-dealer-east", "Eastside Dealers")

	for _, raw := range []string{"abc", "5.5", "", "0", "-3", "500"} {
		_, err := rig.engine.SubmitCount(s.ID, 42, raw)
		assert.ErrorIs(t, err, ledger.ErrValidation, "count %q", raw)
	}
	assert.Equal(t, 0, rig.mem.Len())

	_, err := rig.engine.SubmitCount(s.ID, 42, " 200 ")
	require.NoError(t, err, "the cap itself is allowed")

	_, err = rig.engine.CommitBulk(ctx, s.ID, 42, "Kinetic")
	require.NoError(t, err)
	assert.Equal(t, 200, rig.mem.Len())
}

func TestBulkFlow_AppendFails_AllOrNothing(t *testing.T) {
	// GIVEN: A backend that rejects the batch append
	// WHEN: Committing 50 rows, then retrying
	// THEN: Zero rows after the failure, all 50 after the retry

	rig := newTestRig()
	ctx := context.Background()
	rig.flaky.failAppends = 1

	s := rig.engine.StartBulk(42, "dana", "chan-dealer-east", "Eastside Dealers")
	_, err := rig.engine.SubmitCount(s.ID, 42, "50")
	require.NoError(t, err)

	_, err = rig.engine.CommitBulk(ctx, s.ID, 42, "Quantum")
	assert.ErrorIs(t, err, ledger.ErrStoreUnavailable)
	assert.Equal(t, 0, rig.mem.Len())

	res, err := rig.engine.CommitBulk(ctx, s.ID, 42, "Quantum")
	require.NoError(t, err)
	assert.Equal(t, 50, res.Count)
	assert.Equal(t, 50, rig.mem.Len())
}

func TestBulkFlow_SaleStepsDoNotCross(t *testing.T) {
	// GIVEN: A bulk session
	// WHEN: Driving it with sale-flow steps
	// THEN: Rejected; the two machines never blend

	rig := newTestRig()

	s := rig.engine.StartBulk(42, "dana", "chan-dealer-east", "Eastside Dealers")

	_, err := rig.engine.SubmitCustomer(s.ID, 42, "Jane Doe")
	assert.ErrorIs(t, err, ledger.ErrNoSession)

	_, err = rig.engine.ChooseProvider(s.ID, 42, "Wire3")
	assert.ErrorIs(t, err, ledger.ErrNoSession)
}

// =============================================================================
// RESET
// =============================================================================

func TestReset_DropsSessionsAndRefreshesRoster(t *testing.T) {
	// GIVEN: Two live sessions
	// WHEN: Resetting
	// THEN: Both are gone, the roster is re-read, the ledger is untouched

	rig := newTestRig()
	ctx := context.Background()

	s1 := rig.engine.StartSale(42, "dana", "chan-sales")
	s2 := rig.engine.StartBulk(42, "dana", "chan-dealer-east", "Eastside Dealers")

	dropped, err := rig.engine.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)

	_, err = rig.engine.SubmitCustomer(s1.ID, 42, "Jane Doe")
	assert.ErrorIs(t, err, ledger.ErrNoSession)
	_, err = rig.engine.SubmitCount(s2.ID, 42, "5")
	assert.ErrorIs(t, err, ledger.ErrNoSession)
	assert.Equal(t, 0, rig.mem.Len())
}
