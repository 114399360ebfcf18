/*
Package registry manages the worker and folder registries.

PURPOSE:
  Folders are named work groups; each worker belongs to exactly one
  folder. The registry is plain CRUD over the same key-value Storage the
  ledgers use, with duplicate-name validation. Historical data keyed on
  worker ids (attendance, advances) is untouched by renames: the advance
  ledger keeps a denormalized WorkerName snapshot on purpose.

SEE ALSO:
  - payroll/engine.go: resolves folder membership through WorkerDirectory
*/
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/payroll-engine/ledger"
)

// Storage keys owned by this package.
const (
	KeyWorkers = "workers"
	KeyFolders = "folders"
)

// Worker is a registered worker. Folder is the name of the work group the
// worker belongs to.
type Worker struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Folder string `json:"folder"`
}

// Folder is a named work group.
type Folder struct {
	Name string `json:"name"`
}

// =============================================================================
// REGISTRY
// =============================================================================

type Registry struct {
	mu    sync.Mutex
	store ledger.Storage
	log   *slog.Logger

	workers []Worker
	folders []Folder
	loaded  bool
}

func New(store ledger.Storage, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{store: store, log: log}
}

// =============================================================================
// FOLDERS
// =============================================================================

// CreateFolder adds a folder. Names are unique, case-insensitively.
func (r *Registry) CreateFolder(ctx context.Context, name string) (Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Folder{}, &ledger.RecordError{Field: "name", Reason: "empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)

	for _, f := range r.folders {
		if strings.EqualFold(f.Name, name) {
			return Folder{}, fmt.Errorf("folder %q: %w", name, ledger.ErrDuplicateName)
		}
	}

	folder := Folder{Name: name}
	next := append(append([]Folder(nil), r.folders...), folder)
	if err := r.store.Set(ctx, KeyFolders, next); err != nil {
		return Folder{}, &ledger.StorageError{Op: "set", Key: KeyFolders, Err: err}
	}
	r.folders = next
	return folder, nil
}

// DeleteFolder removes a folder and every worker in it. Attendance and
// rate cleanup is wired by the caller (see api.DeleteFolder).
func (r *Registry) DeleteFolder(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)

	nextFolders := make([]Folder, 0, len(r.folders))
	found := false
	for _, f := range r.folders {
		if f.Name == name {
			found = true
			continue
		}
		nextFolders = append(nextFolders, f)
	}
	if !found {
		return fmt.Errorf("folder %q: %w", name, ledger.ErrKeyNotFound)
	}

	nextWorkers := make([]Worker, 0, len(r.workers))
	for _, w := range r.workers {
		if w.Folder != name {
			nextWorkers = append(nextWorkers, w)
		}
	}

	if err := r.store.Set(ctx, KeyFolders, nextFolders); err != nil {
		return &ledger.StorageError{Op: "set", Key: KeyFolders, Err: err}
	}
	if err := r.store.Set(ctx, KeyWorkers, nextWorkers); err != nil {
		return &ledger.StorageError{Op: "set", Key: KeyWorkers, Err: err}
	}
	r.folders = nextFolders
	r.workers = nextWorkers
	return nil
}

// Folders lists all folders sorted by name.
func (r *Registry) Folders(ctx context.Context) []Folder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)

	out := append([]Folder(nil), r.folders...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FolderExists reports whether a folder is registered.
func (r *Registry) FolderExists(ctx context.Context, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)

	for _, f := range r.folders {
		if f.Name == name {
			return true
		}
	}
	return false
}

// =============================================================================
// WORKERS
// =============================================================================

// CreateWorker registers a worker in a folder. Worker names are unique
// within their folder, case-insensitively.
func (r *Registry) CreateWorker(ctx context.Context, name, folder string) (Worker, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Worker{}, &ledger.RecordError{Field: "name", Reason: "empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)

	for _, w := range r.workers {
		if w.Folder == folder && strings.EqualFold(w.Name, name) {
			return Worker{}, fmt.Errorf("worker %q in %q: %w", name, folder, ledger.ErrDuplicateName)
		}
	}

	worker := Worker{ID: uuid.NewString(), Name: name, Folder: folder}
	next := append(append([]Worker(nil), r.workers...), worker)
	if err := r.store.Set(ctx, KeyWorkers, next); err != nil {
		return Worker{}, &ledger.StorageError{Op: "set", Key: KeyWorkers, Err: err}
	}
	r.workers = next
	return worker, nil
}

// RenameWorker changes a worker's display name. Historical advance
// snapshots are not rewritten.
func (r *Registry) RenameWorker(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ledger.RecordError{Field: "name", Reason: "empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)

	next := append([]Worker(nil), r.workers...)
	idx := -1
	for i, w := range next {
		if w.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("worker %q: %w", id, ledger.ErrKeyNotFound)
	}
	for _, w := range next {
		if w.ID != id && w.Folder == next[idx].Folder && strings.EqualFold(w.Name, name) {
			return fmt.Errorf("worker %q in %q: %w", name, w.Folder, ledger.ErrDuplicateName)
		}
	}

	next[idx].Name = name
	if err := r.store.Set(ctx, KeyWorkers, next); err != nil {
		return &ledger.StorageError{Op: "set", Key: KeyWorkers, Err: err}
	}
	r.workers = next
	return nil
}

// DeleteWorker removes a worker from the registry.
func (r *Registry) DeleteWorker(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)

	next := make([]Worker, 0, len(r.workers))
	found := false
	for _, w := range r.workers {
		if w.ID == id {
			found = true
			continue
		}
		next = append(next, w)
	}
	if !found {
		return fmt.Errorf("worker %q: %w", id, ledger.ErrKeyNotFound)
	}

	if err := r.store.Set(ctx, KeyWorkers, next); err != nil {
		return &ledger.StorageError{Op: "set", Key: KeyWorkers, Err: err}
	}
	r.workers = next
	return nil
}

// WorkersInFolder returns the folder's workers sorted by name.
func (r *Registry) WorkersInFolder(ctx context.Context, folder string) ([]Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)

	var out []Worker
	for _, w := range r.workers {
		if w.Folder == folder {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Workers lists every registered worker.
func (r *Registry) Workers(ctx context.Context) []Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)
	return append([]Worker(nil), r.workers...)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (r *Registry) loadLocked(ctx context.Context) {
	if r.loaded {
		return
	}
	var workers []Worker
	if err := r.store.Get(ctx, KeyWorkers, &workers); err != nil && !ledger.IsNotFound(err) {
		r.log.Error("worker registry load failed, degrading to empty", "error", err)
	}
	var folders []Folder
	if err := r.store.Get(ctx, KeyFolders, &folders); err != nil && !ledger.IsNotFound(err) {
		r.log.Error("folder registry load failed, degrading to empty", "error", err)
	}
	r.workers = workers
	r.folders = folders
	r.loaded = true
}
