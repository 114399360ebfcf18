package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/ledger/store"
)

func newTestAdvanceLedger(t *testing.T) *ledger.AdvanceLedger {
	t.Helper()
	return ledger.NewAdvanceLedger(store.NewMemory(), nil)
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// =============================================================================
// CREATION
// =============================================================================

func TestAdvanceLedger_Create_DefaultsToUnsettled(t *testing.T) {
	// GIVEN: an empty ledger
	// WHEN: creating an advance
	// THEN: it has a generated id and Deducted=false with no timestamp

	l := newTestAdvanceLedger(t)
	ctx := context.Background()

	adv, err := l.Create(ctx, "w-1", "Ravi", amount(300), day1, "fuel")
	require.NoError(t, err)

	assert.NotEmpty(t, adv.ID)
	assert.False(t, adv.Deducted)
	assert.Nil(t, adv.DeductedOn)
	assert.Equal(t, "Ravi", adv.WorkerName)
	assert.True(t, adv.Amount.Equal(amount(300)))
}

func TestAdvanceLedger_CreateMany_OneRowPerWorker(t *testing.T) {
	// A group submission fans out into independent rows sharing amount,
	// date and remarks.

	l := newTestAdvanceLedger(t)
	ctx := context.Background()

	created, err := l.CreateMany(ctx, map[string]string{
		"w-1": "Ravi",
		"w-2": "Suresh",
	}, amount(200), day1, "festival")
	require.NoError(t, err)
	require.Len(t, created, 2)

	ids := map[string]bool{}
	for _, adv := range created {
		ids[adv.ID] = true
		assert.True(t, adv.Amount.Equal(amount(200)))
		assert.Equal(t, "festival", adv.Remarks)
	}
	assert.Len(t, ids, 2, "each row gets its own id")
	assert.Len(t, l.All(ctx), 2)
}

func TestAdvanceLedger_Create_RejectsNegativeAmount(t *testing.T) {
	l := newTestAdvanceLedger(t)

	_, err := l.Create(context.Background(), "w-1", "Ravi", amount(-50), day1, "")
	require.Error(t, err)
	var recErr *ledger.RecordError
	assert.ErrorAs(t, err, &recErr)
}

// =============================================================================
// SETTLEMENT
// =============================================================================

func TestAdvanceLedger_Settle_StampsOnce(t *testing.T) {
	// GIVEN: an unsettled advance
	// WHEN: settling it
	// THEN: Deducted flips and DeductedOn is stamped

	l := newTestAdvanceLedger(t)
	ctx := context.Background()

	adv, err := l.Create(ctx, "w-1", "Ravi", amount(300), day1, "")
	require.NoError(t, err)

	settled, err := l.Settle(ctx, map[string]bool{adv.ID: true}, day2)
	require.NoError(t, err)
	require.Len(t, settled, 1)
	assert.True(t, settled[0].Deducted)
	require.NotNil(t, settled[0].DeductedOn)
}

func TestAdvanceLedger_Settle_AlreadySettledIsNoOp(t *testing.T) {
	// Settlement is one-way: a second settle of the same id neither
	// errors nor re-stamps DeductedOn.

	l := newTestAdvanceLedger(t)
	ctx := context.Background()

	adv, err := l.Create(ctx, "w-1", "Ravi", amount(300), day1, "")
	require.NoError(t, err)

	first, err := l.Settle(ctx, map[string]bool{adv.ID: true}, day2)
	require.NoError(t, err)
	require.Len(t, first, 1)
	stamp := *first[0].DeductedOn

	second, err := l.Settle(ctx, map[string]bool{adv.ID: true}, day2)
	require.NoError(t, err)
	assert.Empty(t, second)

	got, err := l.Get(ctx, adv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeductedOn)
	assert.True(t, got.DeductedOn.Equal(stamp))
}

func TestAdvanceLedger_Settle_SkipsFutureDatedAdvances(t *testing.T) {
	// An advance dated after the settlement cutoff stays unsettled even
	// when its id is in the settle set.

	l := newTestAdvanceLedger(t)
	ctx := context.Background()

	future, err := l.Create(ctx, "w-1", "Ravi", amount(100), day2, "")
	require.NoError(t, err)

	settled, err := l.Settle(ctx, map[string]bool{future.ID: true}, day1)
	require.NoError(t, err)
	assert.Empty(t, settled)

	got, err := l.Get(ctx, future.ID)
	require.NoError(t, err)
	assert.False(t, got.Deducted)
}

func TestAdvanceLedger_Settle_PartialSetLeavesOthersUntouched(t *testing.T) {
	l := newTestAdvanceLedger(t)
	ctx := context.Background()

	a, err := l.Create(ctx, "w-1", "Ravi", amount(100), day1, "")
	require.NoError(t, err)
	b, err := l.Create(ctx, "w-2", "Suresh", amount(200), day1, "")
	require.NoError(t, err)

	settled, err := l.Settle(ctx, map[string]bool{a.ID: true}, day2)
	require.NoError(t, err)
	require.Len(t, settled, 1)

	gotB, err := l.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, gotB.Deducted)
}

func TestAdvanceLedger_Settle_PersistFailureLeavesStateUnchanged(t *testing.T) {
	// GIVEN: a store whose writes fail
	// WHEN: settling
	// THEN: the error propagates and the advance is still unsettled

	failing := store.NewFailing()
	l := ledger.NewAdvanceLedger(failing, nil)
	ctx := context.Background()

	adv, err := l.Create(ctx, "w-1", "Ravi", amount(300), day1, "")
	require.NoError(t, err)

	failing.SetErr = errors.New("disk full")
	_, err = l.Settle(ctx, map[string]bool{adv.ID: true}, day2)
	require.Error(t, err)

	failing.SetErr = nil
	got, err := l.Get(ctx, adv.ID)
	require.NoError(t, err)
	assert.False(t, got.Deducted)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestAdvanceLedger_ListUnsettled_FiltersByWorkerDateAndFlag(t *testing.T) {
	l := newTestAdvanceLedger(t)
	ctx := context.Background()

	inRange, err := l.Create(ctx, "w-1", "Ravi", amount(100), day1, "")
	require.NoError(t, err)
	_, err = l.Create(ctx, "w-1", "Ravi", amount(200), day2, "") // after cutoff
	require.NoError(t, err)
	_, err = l.Create(ctx, "w-9", "Other", amount(300), day1, "") // other worker
	require.NoError(t, err)
	settledAdv, err := l.Create(ctx, "w-1", "Ravi", amount(400), day1, "")
	require.NoError(t, err)
	_, err = l.Settle(ctx, map[string]bool{settledAdv.ID: true}, day1)
	require.NoError(t, err)

	got := l.ListUnsettled(ctx, day1, map[string]bool{"w-1": true})
	require.Len(t, got, 1)
	assert.Equal(t, inRange.ID, got[0].ID)
}

func TestAdvanceLedger_Get_UnknownID(t *testing.T) {
	l := newTestAdvanceLedger(t)

	_, err := l.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ledger.ErrAdvanceNotFound)
}

// =============================================================================
// DELETES
// =============================================================================

func TestAdvanceLedger_DeleteMany_IgnoresUnknownIDs(t *testing.T) {
	l := newTestAdvanceLedger(t)
	ctx := context.Background()

	a, err := l.Create(ctx, "w-1", "Ravi", amount(100), day1, "")
	require.NoError(t, err)
	b, err := l.Create(ctx, "w-2", "Suresh", amount(200), day1, "")
	require.NoError(t, err)

	require.NoError(t, l.DeleteMany(ctx, []string{a.ID, "unknown"}))

	remaining := l.All(ctx)
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ID)
}

func TestAdvanceLedger_DeleteAll(t *testing.T) {
	l := newTestAdvanceLedger(t)
	ctx := context.Background()

	_, err := l.Create(ctx, "w-1", "Ravi", amount(100), day1, "")
	require.NoError(t, err)
	require.NoError(t, l.DeleteAll(ctx))
	assert.Empty(t, l.All(ctx))
}

// =============================================================================
// PERSISTENCE ROUND-TRIP
// =============================================================================

func TestAdvanceLedger_SettlementSurvivesReload(t *testing.T) {
	// A settled flag written through one ledger is visible to a fresh
	// ledger over the same store.

	mem := store.NewMemory()
	ctx := context.Background()

	writer := ledger.NewAdvanceLedger(mem, nil)
	adv, err := writer.Create(ctx, "w-1", "Ravi", amount(300), day1, "")
	require.NoError(t, err)
	_, err = writer.Settle(ctx, map[string]bool{adv.ID: true}, day2)
	require.NoError(t, err)

	reader := ledger.NewAdvanceLedger(mem, nil)
	got, err := reader.Get(ctx, adv.ID)
	require.NoError(t, err)
	assert.True(t, got.Deducted)
	require.NotNil(t, got.DeductedOn)
	assert.WithinDuration(t, time.Now(), *got.DeductedOn, time.Minute)
}
