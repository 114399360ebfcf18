package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestAttendanceLedger(t *testing.T) (*ledger.AttendanceLedger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return ledger.NewAttendanceLedger(mem, nil), mem
}

func rec(workerID, folder string, date ledger.Day, status ledger.Status) ledger.AttendanceRecord {
	return ledger.AttendanceRecord{
		WorkerID:   workerID,
		Date:       date,
		Status:     status,
		FolderName: folder,
	}
}

var (
	day1 = ledger.NewDay(2025, time.March, 10)
	day2 = ledger.NewDay(2025, time.March, 11)
)

// =============================================================================
// SAVE / QUERY CONTRACT
// =============================================================================

func TestAttendanceLedger_SaveThenQuery_ReturnsExactBatch(t *testing.T) {
	// GIVEN: an empty ledger
	// WHEN: saving a batch and querying the same (folder, date) pair
	// THEN: exactly the saved batch comes back, no stale merge

	l, _ := newTestAttendanceLedger(t)
	ctx := context.Background()

	batch := []ledger.AttendanceRecord{
		rec("w-1", "Site A", day1, ledger.StatusPresent),
		rec("w-2", "Site A", day1, ledger.StatusHalfDay),
	}
	require.NoError(t, l.SaveBatch(ctx, batch))

	got := l.QueryByFolder(ctx, "Site A", day1)
	assert.ElementsMatch(t, batch, got)
}

func TestAttendanceLedger_ResaveIdenticalBatch_Idempotent(t *testing.T) {
	// GIVEN: a saved batch
	// WHEN: saving the identical batch again
	// THEN: ledger state is unchanged

	l, _ := newTestAttendanceLedger(t)
	ctx := context.Background()

	batch := []ledger.AttendanceRecord{
		rec("w-1", "Site A", day1, ledger.StatusPresent),
		rec("w-2", "Site A", day1, ledger.StatusAbsent),
	}
	require.NoError(t, l.SaveBatch(ctx, batch))
	require.NoError(t, l.SaveBatch(ctx, batch))

	got := l.QueryByFolder(ctx, "Site A", day1)
	assert.Len(t, got, 2)
	assert.ElementsMatch(t, batch, got)
}

func TestAttendanceLedger_SubsetResave_DropsMissingWorkers(t *testing.T) {
	// Documents the overwrite-by-pair hazard: saving attendance for
	// workers {A, B} and later resaving the pair with only {A} silently
	// drops B's record for that date.

	l, _ := newTestAttendanceLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("A", "F", day1, ledger.StatusPresent),
		rec("B", "F", day1, ledger.StatusPresent),
	}))
	require.NoError(t, l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("A", "F", day1, ledger.StatusHalfDay),
	}))

	got := l.QueryByFolder(ctx, "F", day1)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].WorkerID)
	assert.Equal(t, ledger.StatusHalfDay, got[0].Status)
}

func TestAttendanceLedger_SaveBatchMerge_KeepsMissingWorkers(t *testing.T) {
	// GIVEN: a pair with workers {A, B}
	// WHEN: merge-saving the pair with only {A}
	// THEN: A is updated and B's record survives

	l, _ := newTestAttendanceLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("A", "F", day1, ledger.StatusPresent),
		rec("B", "F", day1, ledger.StatusPresent),
	}))
	require.NoError(t, l.SaveBatchMerge(ctx, []ledger.AttendanceRecord{
		rec("A", "F", day1, ledger.StatusAbsent),
	}))

	got := l.QueryByFolder(ctx, "F", day1)
	require.Len(t, got, 2)
	byWorker := map[string]ledger.Status{}
	for _, r := range got {
		byWorker[r.WorkerID] = r.Status
	}
	assert.Equal(t, ledger.StatusAbsent, byWorker["A"])
	assert.Equal(t, ledger.StatusPresent, byWorker["B"])
}

func TestAttendanceLedger_OverwriteScopedToExactPair(t *testing.T) {
	// A save for (F, day1) must not touch (F, day2) or (G, day1).

	l, _ := newTestAttendanceLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("w-1", "F", day1, ledger.StatusPresent),
		rec("w-1", "F", day2, ledger.StatusPresent),
		rec("w-9", "G", day1, ledger.StatusPresent),
	}))
	require.NoError(t, l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("w-2", "F", day1, ledger.StatusHalfDay),
	}))

	assert.Len(t, l.QueryByFolder(ctx, "F", day1), 1)
	assert.Len(t, l.QueryByFolder(ctx, "F", day2), 1)
	assert.Len(t, l.QueryByFolder(ctx, "G", day1), 1)
}

func TestAttendanceLedger_QueryWithoutDate_ReturnsAllDates(t *testing.T) {
	l, _ := newTestAttendanceLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("w-1", "F", day1, ledger.StatusPresent),
		rec("w-1", "F", day2, ledger.StatusAbsent),
	}))

	got := l.QueryByFolder(ctx, "F", ledger.Day{})
	assert.Len(t, got, 2)
}

// =============================================================================
// WORKING SET / PERSISTENCE SPLIT
// =============================================================================

func TestAttendanceLedger_FailedPersist_BatchStillVisible(t *testing.T) {
	// GIVEN: a store whose writes fail
	// WHEN: SaveBatch errors out
	// THEN: the batch is still served from the working set, exactly once

	failing := store.NewFailing()
	l := ledger.NewAttendanceLedger(failing, nil)
	ctx := context.Background()

	failing.SetErr = errors.New("disk full")
	err := l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("w-1", "F", day1, ledger.StatusPresent),
	})
	require.Error(t, err)
	var storageErr *ledger.StorageError
	assert.ErrorAs(t, err, &storageErr)

	got := l.QueryByFolder(ctx, "F", day1)
	require.Len(t, got, 1)
	assert.Equal(t, "w-1", got[0].WorkerID)

	// A later successful save persists and still yields a single row.
	failing.SetErr = nil
	require.NoError(t, l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("w-1", "F", day1, ledger.StatusPresent),
	}))
	assert.Len(t, l.QueryByFolder(ctx, "F", day1), 1)
}

func TestAttendanceLedger_Reload_SyncsFromStore(t *testing.T) {
	// Two ledgers over the same store: the first read hydrates from the
	// store, later external writes become visible only after Reload.

	mem := store.NewMemory()
	writer := ledger.NewAttendanceLedger(mem, nil)
	reader := ledger.NewAttendanceLedger(mem, nil)
	ctx := context.Background()

	require.NoError(t, writer.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("w-1", "F", day1, ledger.StatusPresent),
	}))
	assert.Len(t, reader.QueryByFolder(ctx, "F", day1), 1, "first read hydrates")

	require.NoError(t, writer.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("w-1", "F", day2, ledger.StatusPresent),
	}))
	assert.Len(t, reader.QueryByFolder(ctx, "F", ledger.Day{}), 1, "stale until reload")

	require.NoError(t, reader.Reload(ctx))
	assert.Len(t, reader.QueryByFolder(ctx, "F", ledger.Day{}), 2)
}

func TestAttendanceLedger_ReloadFailure_DegradesToEmpty(t *testing.T) {
	failing := store.NewFailing()
	l := ledger.NewAttendanceLedger(failing, nil)
	ctx := context.Background()

	require.NoError(t, l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("w-1", "F", day1, ledger.StatusPresent),
	}))

	failing.GetErr = errors.New("corrupt database")
	err := l.Reload(ctx)
	assert.Error(t, err)
	assert.Empty(t, l.QueryByFolder(ctx, "F", day1))
}

func TestAttendanceLedger_Reload_DropsMalformedRows(t *testing.T) {
	// Rows with an unknown status are rejected at the storage boundary
	// instead of being trusted.

	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, ledger.KeyAttendance, []map[string]string{
		{"worker_id": "w-1", "date": "2025-03-10", "status": "present", "folder_name": "F"},
		{"worker_id": "w-2", "date": "2025-03-10", "status": "vacationing", "folder_name": "F"},
	}))

	l := ledger.NewAttendanceLedger(mem, nil)
	require.NoError(t, l.Reload(ctx))

	got := l.QueryByFolder(ctx, "F", day1)
	require.Len(t, got, 1)
	assert.Equal(t, "w-1", got[0].WorkerID)
}

// =============================================================================
// DELETES
// =============================================================================

func TestAttendanceLedger_DeleteByFolderAndDate(t *testing.T) {
	l, _ := newTestAttendanceLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("w-1", "F", day1, ledger.StatusPresent),
		rec("w-1", "F", day2, ledger.StatusPresent),
	}))
	require.NoError(t, l.DeleteByFolderAndDate(ctx, "F", day1))

	assert.Empty(t, l.QueryByFolder(ctx, "F", day1))
	assert.Len(t, l.QueryByFolder(ctx, "F", day2), 1)
}

func TestAttendanceLedger_DeleteByFolder_RemovesAllDates(t *testing.T) {
	l, _ := newTestAttendanceLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SaveBatch(ctx, []ledger.AttendanceRecord{
		rec("w-1", "F", day1, ledger.StatusPresent),
		rec("w-1", "F", day2, ledger.StatusPresent),
		rec("w-9", "G", day1, ledger.StatusPresent),
	}))
	require.NoError(t, l.DeleteByFolder(ctx, "F"))

	assert.Empty(t, l.QueryByFolder(ctx, "F", ledger.Day{}))
	assert.Len(t, l.QueryByFolder(ctx, "G", ledger.Day{}), 1)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestAttendanceLedger_SaveBatch_RejectsInvalidRecords(t *testing.T) {
	l, _ := newTestAttendanceLedger(t)
	ctx := context.Background()

	err := l.SaveBatch(ctx, []ledger.AttendanceRecord{
		{WorkerID: "", Date: day1, Status: ledger.StatusPresent, FolderName: "F"},
	})
	require.Error(t, err)
	var recErr *ledger.RecordError
	assert.ErrorAs(t, err, &recErr)
}
