/*
attendance.go - Attendance ledger with the overwrite-by-pair contract

PURPOSE:
  Durable store of daily attendance. The write contract is batch-oriented:
  the unit of storage is the full set of rows for a (folder, date) pair,
  and saving a batch for that pair REPLACES everything previously stored
  for the exact pair.

CRITICAL CONTRACT (preserve bit-for-bit):
  SaveBatch deletes all stored rows for every (folder, date) pair present
  in the batch, then inserts the batch rows. Consequences:
  - Re-submitting an identical batch is a no-op in effect (idempotent).
  - Submitting a SUBSET of workers for a pair that previously had more
    workers silently drops the missing workers' rows for that date.
  The subset hazard is intentional resubmit-the-whole-day semantics;
  callers wanting union semantics use SaveBatchMerge instead.

READ-PATH MERGE:
  The ledger keeps an in-memory working set of batches whose persistence
  may still be in flight or may have failed. Queries give the working
  batch for a pair priority over the persisted rows of that exact pair,
  so a fresh save is visible immediately and never duplicated.

FAILURE SEMANTICS:
  Reads degrade to empty results with a logged error. Writes propagate
  the storage error; the working set retains the batch so nothing typed
  in is lost. The store has no transactions, so callers must not assume
  atomicity beyond the single whole-collection write.

SEE ALSO:
  - payroll/engine.go: forces Reload before computing a report
*/
package ledger

import (
	"context"
	"log/slog"
	"sync"
)

// =============================================================================
// ATTENDANCE LEDGER
// =============================================================================

type AttendanceLedger struct {
	mu    sync.Mutex
	store Storage
	log   *slog.Logger

	// persisted mirrors the last state read from or written to the store.
	persisted []AttendanceRecord
	// working holds batches saved this session, keyed by pair. A working
	// batch shadows the persisted rows for its pair until Reload.
	working map[PairKey][]AttendanceRecord
	loaded  bool
}

func NewAttendanceLedger(store Storage, log *slog.Logger) *AttendanceLedger {
	if log == nil {
		log = slog.Default()
	}
	return &AttendanceLedger{
		store:   store,
		log:     log,
		working: make(map[PairKey][]AttendanceRecord),
	}
}

// =============================================================================
// WRITES
// =============================================================================

// SaveBatch stores a batch of attendance records. For every distinct
// (folder, date) pair in the batch, previously stored rows for that exact
// pair are discarded and replaced by the batch rows.
func (l *AttendanceLedger) SaveBatch(ctx context.Context, records []AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)

	batches := groupByPair(records)
	// The working set is updated first so reads see the batch even if the
	// persistence write below fails.
	for pair, batch := range batches {
		l.working[pair] = batch
	}

	next := dropPairs(l.persisted, batches)
	next = append(next, records...)

	if err := l.store.Set(ctx, KeyAttendance, next); err != nil {
		return &StorageError{Op: "set", Key: KeyAttendance, Err: err}
	}

	l.persisted = next
	for pair := range batches {
		delete(l.working, pair)
	}
	return nil
}

// SaveBatchMerge stores a batch with union semantics: within each pair,
// batch rows replace stored rows for the same worker, but workers absent
// from the batch keep their stored rows. This is the explicit opt-in
// alternative to SaveBatch's full replacement.
func (l *AttendanceLedger) SaveBatchMerge(ctx context.Context, records []AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)

	batches := groupByPair(records)
	merged := make(map[PairKey][]AttendanceRecord, len(batches))
	for pair, batch := range batches {
		inBatch := make(map[string]bool, len(batch))
		for _, r := range batch {
			inBatch[r.WorkerID] = true
		}
		union := append([]AttendanceRecord(nil), batch...)
		for _, r := range l.pairRowsLocked(pair) {
			if !inBatch[r.WorkerID] {
				union = append(union, r)
			}
		}
		merged[pair] = union
	}

	for pair, batch := range merged {
		l.working[pair] = batch
	}

	next := dropPairs(l.persisted, merged)
	for _, batch := range merged {
		next = append(next, batch...)
	}

	if err := l.store.Set(ctx, KeyAttendance, next); err != nil {
		return &StorageError{Op: "set", Key: KeyAttendance, Err: err}
	}

	l.persisted = next
	for pair := range merged {
		delete(l.working, pair)
	}
	return nil
}

// DeleteByFolderAndDate removes exactly the batch stored for the pair.
func (l *AttendanceLedger) DeleteByFolderAndDate(ctx context.Context, folderName string, date Day) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)

	pair := PairKey{FolderName: folderName, Date: date}
	delete(l.working, pair)

	next := make([]AttendanceRecord, 0, len(l.persisted))
	for _, r := range l.persisted {
		if r.Pair() != pair {
			next = append(next, r)
		}
	}

	if err := l.store.Set(ctx, KeyAttendance, next); err != nil {
		return &StorageError{Op: "set", Key: KeyAttendance, Err: err}
	}
	l.persisted = next
	return nil
}

// DeleteByFolder removes every record for the folder across all dates.
func (l *AttendanceLedger) DeleteByFolder(ctx context.Context, folderName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)

	for pair := range l.working {
		if pair.FolderName == folderName {
			delete(l.working, pair)
		}
	}

	next := make([]AttendanceRecord, 0, len(l.persisted))
	for _, r := range l.persisted {
		if r.FolderName != folderName {
			next = append(next, r)
		}
	}

	if err := l.store.Set(ctx, KeyAttendance, next); err != nil {
		return &StorageError{Op: "set", Key: KeyAttendance, Err: err}
	}
	l.persisted = next
	return nil
}

// =============================================================================
// READS
// =============================================================================

// QueryByFolder returns the records for a folder. A zero date means all
// dates. Working batches shadow the persisted rows of their exact pair,
// so a fresh save is never returned twice.
func (l *AttendanceLedger) QueryByFolder(ctx context.Context, folderName string, date Day) []AttendanceRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)

	var out []AttendanceRecord
	shadowed := make(map[PairKey]bool)
	for pair, batch := range l.working {
		if pair.FolderName != folderName {
			continue
		}
		if !date.IsZero() && !pair.Date.Equal(date) {
			continue
		}
		shadowed[pair] = true
		out = append(out, batch...)
	}
	for _, r := range l.persisted {
		if r.FolderName != folderName {
			continue
		}
		if !date.IsZero() && !r.Date.Equal(date) {
			continue
		}
		if shadowed[r.Pair()] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Lookup returns the record for (workerID, folderName, date), if any.
func (l *AttendanceLedger) Lookup(ctx context.Context, workerID, folderName string, date Day) (AttendanceRecord, bool) {
	for _, r := range l.QueryByFolder(ctx, folderName, date) {
		if r.WorkerID == workerID {
			return r, true
		}
	}
	return AttendanceRecord{}, false
}

// Reload resynchronizes the cache from the durable store, discarding the
// working set. Read failures are logged and degrade to an empty ledger;
// the error is also returned for callers that want to surface it.
func (l *AttendanceLedger) Reload(ctx context.Context) error {
	var records []AttendanceRecord
	err := l.store.Get(ctx, KeyAttendance, &records)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.working = make(map[PairKey][]AttendanceRecord)
	l.loaded = true

	switch {
	case err == nil:
		l.persisted = validRecords(records, l.log)
		return nil
	case IsNotFound(err):
		l.persisted = nil
		return nil
	default:
		l.log.Error("attendance reload failed, degrading to empty", "error", err)
		l.persisted = nil
		return &StorageError{Op: "get", Key: KeyAttendance, Err: err}
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// loadLocked lazily hydrates the persisted mirror on first use. Read
// failures degrade to an empty ledger with a logged error.
func (l *AttendanceLedger) loadLocked(ctx context.Context) {
	if l.loaded {
		return
	}
	var records []AttendanceRecord
	err := l.store.Get(ctx, KeyAttendance, &records)
	switch {
	case err == nil:
		l.persisted = validRecords(records, l.log)
	case IsNotFound(err):
		l.persisted = nil
	default:
		l.log.Error("attendance load failed, degrading to empty", "error", err)
		l.persisted = nil
	}
	l.loaded = true
}

func (l *AttendanceLedger) pairRowsLocked(pair PairKey) []AttendanceRecord {
	if batch, ok := l.working[pair]; ok {
		return batch
	}
	var rows []AttendanceRecord
	for _, r := range l.persisted {
		if r.Pair() == pair {
			rows = append(rows, r)
		}
	}
	return rows
}

func groupByPair(records []AttendanceRecord) map[PairKey][]AttendanceRecord {
	batches := make(map[PairKey][]AttendanceRecord)
	for _, r := range records {
		batches[r.Pair()] = append(batches[r.Pair()], r)
	}
	return batches
}

func dropPairs(records []AttendanceRecord, pairs map[PairKey][]AttendanceRecord) []AttendanceRecord {
	next := make([]AttendanceRecord, 0, len(records))
	for _, r := range records {
		if _, hit := pairs[r.Pair()]; !hit {
			next = append(next, r)
		}
	}
	return next
}

func validRecords(records []AttendanceRecord, log *slog.Logger) []AttendanceRecord {
	valid := records[:0]
	for _, r := range records {
		if err := r.Validate(); err != nil {
			log.Error("dropping malformed attendance row", "error", err, "worker_id", r.WorkerID)
			continue
		}
		valid = append(valid, r)
	}
	return valid
}
