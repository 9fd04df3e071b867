package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisonhq/salesbison/ledger"
	"github.com/bisonhq/salesbison/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() (*ledger.Ledger, *store.Memory) {
	mem := store.NewMemory()
	return ledger.New(mem), mem
}

// =============================================================================
// WRITE PATH
// =============================================================================

func TestLedger_Record_AppendsRow(t *testing.T) {
	// GIVEN: An empty sheet
	// WHEN: Recording a sale
	// THEN: Exactly one row lands and reads back intact

	l, mem := newTestLedger()
	ctx := context.Background()

	rec := sale(et(2025, time.March, 10, 9, 30, 0), 42, "Dana", "Marcus", "Acme")
	require.NoError(t, l.Record(ctx, rec))
	assert.Equal(t, 1, mem.Len())

	back, err := l.Records(ctx)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "Acme", back[0].Customer)
}

func TestLedger_Record_DefaultsManagerToUnassigned(t *testing.T) {
	// GIVEN: A record whose manager could not be resolved
	// WHEN: Recording it
	// THEN: The row carries "Unassigned" rather than a blank cell

	l, _ := newTestLedger()
	ctx := context.Background()

	rec := sale(et(2025, time.March, 10, 9, 30, 0), 42, "Dana", "", "Acme")
	require.NoError(t, l.Record(ctx, rec))

	back, err := l.Records(ctx)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, ledger.ManagerUnassigned, back[0].Manager)
}

func TestLedger_Record_ValidationFailures(t *testing.T) {
	// GIVEN: Records that break one field rule each
	// WHEN: Recording them
	// THEN: Each is rejected as a validation error and nothing is written

	l, mem := newTestLedger()
	ctx := context.Background()
	ts := et(2025, time.March, 10, 9, 30, 0)

	long := make([]byte, ledger.MaxCustomerLen+1)
	for i := range long {
		long[i] = 'x'
	}

	bad := []ledger.SaleRecord{
		{RepID: 1, RepName: "Dana", Customer: "Acme", ISP: "Wire3", Plan: "1G"},               // zero timestamp
		{Timestamp: ts, RepID: 1, Customer: "Acme", ISP: "Wire3", Plan: "1G"},                 // no rep name
		{Timestamp: ts, RepID: 1, RepName: "Dana", ISP: "Wire3", Plan: "1G"},                  // empty customer
		{Timestamp: ts, RepID: 1, RepName: "Dana", Customer: string(long), ISP: "Wire3"},      // customer too long
		{Timestamp: ts, RepID: 1, RepName: "Dana", Customer: "Acme", ISP: "Comcast"},          // unknown provider
		{Timestamp: ts, RepID: 1, RepName: "Dana", Customer: "Acme", ISP: "Wire3", Plan: "2G"}, // unknown plan
	}

	for i, rec := range bad {
		err := l.Record(ctx, rec)
		assert.ErrorIs(t, err, ledger.ErrValidation, "record %d", i)
	}
	assert.Equal(t, 0, mem.Len(), "failed validations must not write")
}

func TestLedger_RecordBatch_AllOrNothing(t *testing.T) {
	// GIVEN: A batch where the last record is invalid
	// WHEN: Recording the batch
	// THEN: Nothing is written; a dealer drop never half-lands

	l, mem := newTestLedger()
	ctx := context.Background()
	ts := et(2025, time.March, 10, 9, 30, 0)

	batch := []ledger.SaleRecord{
		sale(ts, 1, "Dana", "Eastside", ledger.DealerCustomer),
		sale(ts, 1, "Dana", "Eastside", ledger.DealerCustomer),
		{Timestamp: ts, RepID: 1, RepName: "Dana", Customer: ledger.DealerCustomer, ISP: "nope"},
	}

	err := l.RecordBatch(ctx, batch)
	assert.ErrorIs(t, err, ledger.ErrValidation)
	assert.Equal(t, 0, mem.Len())
}

func TestLedger_RecordBatch_EmptyIsNoop(t *testing.T) {
	l, mem := newTestLedger()
	require.NoError(t, l.RecordBatch(context.Background(), nil))
	assert.Equal(t, 0, mem.Len())
}

func TestLedger_Record_DealerRowWithEmptyPlan(t *testing.T) {
	// GIVEN: A dealer bulk record, which carries no plan
	// WHEN: Recording it
	// THEN: Accepted; plan is optional, provider is not

	l, _ := newTestLedger()
	rec := ledger.SaleRecord{
		Timestamp: et(2025, time.March, 10, 9, 30, 0),
		RepID:     1,
		RepName:   "Dana",
		Manager:   "Eastside Dealers",
		Customer:  ledger.DealerCustomer,
		ISP:       "Kinetic",
	}
	assert.NoError(t, l.Record(context.Background(), rec))
}

// =============================================================================
// READ PATH
// =============================================================================

func TestLedger_Records_SkipsHeaderAndMalformedRows(t *testing.T) {
	// GIVEN: A sheet with a header, good rows in both schemas, and junk
	// WHEN: Reading records
	// THEN: Good rows come back in sheet order; junk is skipped silently

	l, mem := newTestLedger()
	mem.SeedRows(
		ledger.Row{"Timestamp", "Rep Id", "Rep Name", "Manager", "Customer", "ISP", "Plan"},
		ledger.Row{"2025-03-10 09:00:00 ET", "42", "Dana", "Marcus", "Acme", "Wire3", "1G"},
		ledger.Row{"not a timestamp", "Sam", "Corner Store", "Omni", "1G"},
		ledger.Row{"2025-03-10 10:00:00 ET"},
		ledger.Row{"2024-11-02 14:00:00 ET", "Old Rep", "Corner Store", "Omni", "500mbps"},
	)

	recs, err := l.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Dana", recs[0].RepName)
	assert.Equal(t, "Old Rep", recs[1].RepName)
}

func TestLedger_Counts_EndToEnd(t *testing.T) {
	// GIVEN: A sheet mixing modern, legacy, and dealer rows
	// WHEN: Computing a leaderboard-style count (dealer rows excluded)
	// THEN: Totals reflect only individual sales in the window

	l, mem := newTestLedger()
	ctx := context.Background()
	now := et(2025, time.March, 10, 17, 0, 0)

	require.NoError(t, l.RecordBatch(ctx, []ledger.SaleRecord{
		sale(et(2025, time.March, 10, 9, 0, 0), 1, "Dana", "Marcus", "Acme"),
		sale(et(2025, time.March, 10, 10, 0, 0), 1, "Dana", "Marcus", "Beta LLC"),
		sale(et(2025, time.March, 10, 11, 0, 0), 2, "Sam", "Marcus", "Gamma"),
	}))
	dealer := ledger.SaleRecord{
		Timestamp: et(2025, time.March, 10, 12, 0, 0),
		RepID:     3, RepName: "Lee", Manager: "Eastside",
		Customer: ledger.DealerCustomer, ISP: "Kinetic",
	}
	require.NoError(t, l.Record(ctx, dealer))
	mem.SeedRows(ledger.Row{"2024-11-02 14:00:00 ET", "Dana", "Old Customer", "Omni", "500mbps"})

	counts, err := l.Counts(ctx, ledger.CountQuery{
		Now:     now,
		Window:  ledger.WindowDaily,
		GroupBy: ledger.GroupByRep,
		Exclude: ledger.IsDealerRow,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 2, counts.RepTotal(1, "Dana"))
	assert.Equal(t, 1, counts.RepTotal(2, "Sam"))
	assert.Equal(t, 0, counts.RepTotal(3, "Lee"), "dealer rows stay off the leaderboard")

	// The same sheet grouped by manager, dealer rows included.
	byMgr, err := l.Counts(ctx, ledger.CountQuery{Now: now, Window: ledger.WindowDaily, GroupBy: ledger.GroupByManager})
	require.NoError(t, err)
	assert.Equal(t, 4, byMgr.Total)
	assert.Equal(t, 3, byMgr.Get("Marcus"))
	assert.Equal(t, 1, byMgr.Get("Eastside"))
}

func TestLedger_Counts_StoreFailurePropagates(t *testing.T) {
	// GIVEN: A store whose read path is down
	// WHEN: Computing counts
	// THEN: The failure surfaces as a retryable store error

	l := ledger.New(failingStore{})
	_, err := l.Counts(context.Background(), ledger.CountQuery{Window: ledger.WindowAll})
	assert.ErrorIs(t, err, ledger.ErrStoreUnavailable)
	assert.True(t, ledger.IsRetryable(err))
}

type failingStore struct{}

func (failingStore) Append(context.Context, []ledger.SaleRecord) error {
	return &ledger.StoreError{Op: "append", Err: errors.New("backend down")}
}

func (failingStore) ReadAll(context.Context) ([]ledger.Row, error) {
	return nil, &ledger.StoreError{Op: "read", Err: errors.New("backend down")}
}
