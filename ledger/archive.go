/*
archive.go - Bookkeeping for generated report artifacts

An entry is appended once per successful report generation and removed
only by explicit user deletion. Remove returns the removed metadata so
the caller can also delete the underlying artifact file.
*/
package ledger

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// =============================================================================
// REPORT ARCHIVE
// =============================================================================

type ReportArchive struct {
	mu    sync.Mutex
	store Storage
	log   *slog.Logger

	reports []ReportArtifactMeta
	loaded  bool
}

func NewReportArchive(store Storage, log *slog.Logger) *ReportArchive {
	if log == nil {
		log = slog.Default()
	}
	return &ReportArchive{store: store, log: log}
}

// Add appends one artifact entry.
func (a *ReportArchive) Add(ctx context.Context, meta ReportArtifactMeta) error {
	if meta.ID == "" {
		return &RecordError{Field: "id", Reason: "empty"}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadLocked(ctx)

	next := append(append([]ReportArtifactMeta(nil), a.reports...), meta)
	return a.persistLocked(ctx, next)
}

// List returns all entries, newest first.
func (a *ReportArchive) List(ctx context.Context) []ReportArtifactMeta {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadLocked(ctx)

	out := append([]ReportArtifactMeta(nil), a.reports...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Remove deletes one entry by id and returns it so the caller can delete
// the artifact file as well.
func (a *ReportArchive) Remove(ctx context.Context, id string) (ReportArtifactMeta, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loadLocked(ctx)

	idx := -1
	for i, meta := range a.reports {
		if meta.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ReportArtifactMeta{}, ErrReportNotFound
	}

	removed := a.reports[idx]
	next := append([]ReportArtifactMeta(nil), a.reports[:idx]...)
	next = append(next, a.reports[idx+1:]...)
	if err := a.persistLocked(ctx, next); err != nil {
		return ReportArtifactMeta{}, err
	}
	return removed, nil
}

func (a *ReportArchive) loadLocked(ctx context.Context) {
	if a.loaded {
		return
	}
	var reports []ReportArtifactMeta
	err := a.store.Get(ctx, KeySavedReports, &reports)
	switch {
	case err == nil:
		a.reports = reports
	case IsNotFound(err):
		a.reports = nil
	default:
		a.log.Error("report archive load failed, degrading to empty", "error", err)
		a.reports = nil
	}
	a.loaded = true
}

func (a *ReportArchive) persistLocked(ctx context.Context, next []ReportArtifactMeta) error {
	if err := a.store.Set(ctx, KeySavedReports, next); err != nil {
		return &StorageError{Op: "set", Key: KeySavedReports, Err: err}
	}
	a.reports = next
	return nil
}
