/*
advance.go - Advance ledger: CRUD plus the one-time settlement mutation

PURPOSE:
  Owns the cash-advance entries. Advances are independently owned rows:
  a "group advance" submitted for N workers becomes N separate entries
  with no shared batch semantics (unlike attendance).

SETTLEMENT INVARIANT:
  Deducted is a one-way flag. Settle flips false->true and stamps
  DeductedOn exactly once; re-settling an already-settled advance is an
  idempotent no-op. There is no path back to false short of deleting the
  row.

SEE ALSO:
  - payroll/engine.go: gathers unsettled advances and writes settlement back
*/
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ADVANCE LEDGER
// =============================================================================

type AdvanceLedger struct {
	mu    sync.RWMutex
	store Storage
	log   *slog.Logger

	advances []Advance
	loaded   bool

	// now is swappable for tests.
	now func() time.Time
}

func NewAdvanceLedger(store Storage, log *slog.Logger) *AdvanceLedger {
	if log == nil {
		log = slog.Default()
	}
	return &AdvanceLedger{store: store, log: log, now: time.Now}
}

// =============================================================================
// WRITES
// =============================================================================

// Create records a new advance with a generated id and Deducted=false.
func (l *AdvanceLedger) Create(ctx context.Context, workerID, workerName string, amount decimal.Decimal, date Day, remarks string) (Advance, error) {
	adv := Advance{
		ID:         uuid.NewString(),
		WorkerID:   workerID,
		WorkerName: workerName,
		Amount:     amount,
		Date:       date,
		Remarks:    remarks,
	}
	if err := adv.Validate(); err != nil {
		return Advance{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)

	next := append(append([]Advance(nil), l.advances...), adv)
	if err := l.persistLocked(ctx, next); err != nil {
		return Advance{}, err
	}
	return adv, nil
}

// CreateMany expands one submission for several workers into independent
// advance rows, one per worker, all sharing amount, date and remarks.
func (l *AdvanceLedger) CreateMany(ctx context.Context, workers map[string]string, amount decimal.Decimal, date Day, remarks string) ([]Advance, error) {
	created := make([]Advance, 0, len(workers))
	for id, name := range workers {
		adv, err := l.Create(ctx, id, name, amount, date, remarks)
		if err != nil {
			return created, err
		}
		created = append(created, adv)
	}
	return created, nil
}

// Settle marks every advance in ids as deducted, provided its date is on
// or before asOf and it is not already settled. Each advance transitions
// independently; already-settled ids are skipped, never re-stamped.
// Returns the advances that actually transitioned.
func (l *AdvanceLedger) Settle(ctx context.Context, ids map[string]bool, asOf Day) ([]Advance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)

	stamp := l.now()
	next := append([]Advance(nil), l.advances...)
	var settled []Advance
	for i, adv := range next {
		if !ids[adv.ID] || adv.Deducted || adv.Date.After(asOf) {
			continue
		}
		next[i].Deducted = true
		t := stamp
		next[i].DeductedOn = &t
		settled = append(settled, next[i])
	}
	if len(settled) == 0 {
		return nil, nil
	}

	if err := l.persistLocked(ctx, next); err != nil {
		return nil, err
	}
	return settled, nil
}

// Delete removes one advance by id.
func (l *AdvanceLedger) Delete(ctx context.Context, id string) error {
	return l.DeleteMany(ctx, []string{id})
}

// DeleteMany removes the given advances. Unknown ids are ignored.
func (l *AdvanceLedger) DeleteMany(ctx context.Context, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)

	next := make([]Advance, 0, len(l.advances))
	for _, adv := range l.advances {
		if !drop[adv.ID] {
			next = append(next, adv)
		}
	}
	return l.persistLocked(ctx, next)
}

// DeleteAll removes every advance.
func (l *AdvanceLedger) DeleteAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked(ctx, nil)
}

// =============================================================================
// READS
// =============================================================================

// All returns every advance, unsettled and settled alike.
func (l *AdvanceLedger) All(ctx context.Context) []Advance {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)
	return append([]Advance(nil), l.advances...)
}

// ListUnsettled returns advances with Deducted=false, dated on or before
// asOf, belonging to one of the given workers. Folder scoping is composed
// by the caller resolving folder membership to worker ids.
func (l *AdvanceLedger) ListUnsettled(ctx context.Context, asOf Day, workerIDs map[string]bool) []Advance {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)

	var out []Advance
	for _, adv := range l.advances {
		if adv.Deducted || adv.Date.After(asOf) || !workerIDs[adv.WorkerID] {
			continue
		}
		out = append(out, adv)
	}
	return out
}

// Get returns one advance by id.
func (l *AdvanceLedger) Get(ctx context.Context, id string) (Advance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadLocked(ctx)

	for _, adv := range l.advances {
		if adv.ID == id {
			return adv, nil
		}
	}
	return Advance{}, ErrAdvanceNotFound
}

// Reload forces the cache to resynchronize from the durable store.
func (l *AdvanceLedger) Reload(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = false
	l.loadLocked(ctx)
	return nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// loadLocked lazily hydrates the cache. Read failures degrade to an empty
// ledger with a logged error.
func (l *AdvanceLedger) loadLocked(ctx context.Context) {
	if l.loaded {
		return
	}
	var advances []Advance
	err := l.store.Get(ctx, KeyAdvances, &advances)
	switch {
	case err == nil:
		valid := advances[:0]
		for _, adv := range advances {
			if verr := adv.Validate(); verr != nil {
				l.log.Error("dropping malformed advance", "error", verr, "id", adv.ID)
				continue
			}
			valid = append(valid, adv)
		}
		l.advances = valid
	case IsNotFound(err):
		l.advances = nil
	default:
		l.log.Error("advance load failed, degrading to empty", "error", err)
		l.advances = nil
	}
	l.loaded = true
}

func (l *AdvanceLedger) persistLocked(ctx context.Context, next []Advance) error {
	if err := l.store.Set(ctx, KeyAdvances, next); err != nil {
		return &StorageError{Op: "set", Key: KeyAdvances, Err: err}
	}
	l.advances = next
	return nil
}
