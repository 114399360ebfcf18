/*
rates.go - Per-folder wage rates with the mandatory Default fallback

INVARIANT:
  Every folder has a resolvable rate: either an explicit entry or the
  "Default" fallback. The Default entry cannot be removed; a rate book
  with no Default at all resolves to ErrNoDefaultRate.
*/
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE BOOK
// =============================================================================

type RateBook struct {
	mu    sync.Mutex
	store Storage
	log   *slog.Logger

	rates  map[string]PaymentRates
	loaded bool
}

func NewRateBook(store Storage, log *slog.Logger) *RateBook {
	if log == nil {
		log = slog.Default()
	}
	return &RateBook{store: store, log: log}
}

// EnsureDefault seeds the Default entry when the book is empty, so a fresh
// install always satisfies the resolvability invariant.
func (b *RateBook) EnsureDefault(ctx context.Context, rates PaymentRates) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadLocked(ctx)

	if _, ok := b.rates[DefaultRateKey]; ok {
		return nil
	}
	next := cloneRates(b.rates)
	next[DefaultRateKey] = rates
	return b.persistLocked(ctx, next)
}

// Resolve returns the rates for a folder, falling back to Default.
func (b *RateBook) Resolve(ctx context.Context, folderName string) (PaymentRates, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadLocked(ctx)

	if rates, ok := b.rates[folderName]; ok {
		return rates, nil
	}
	if rates, ok := b.rates[DefaultRateKey]; ok {
		return rates, nil
	}
	return PaymentRates{}, ErrNoDefaultRate
}

// Set stores the rates for a folder (or the Default entry itself).
func (b *RateBook) Set(ctx context.Context, folderName string, rates PaymentRates) error {
	if folderName == "" {
		return &RecordError{Field: "folder_name", Reason: "empty"}
	}
	if err := rates.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadLocked(ctx)

	next := cloneRates(b.rates)
	next[folderName] = rates
	return b.persistLocked(ctx, next)
}

// Remove deletes a folder's explicit entry. The Default entry is mandatory
// and cannot be removed.
func (b *RateBook) Remove(ctx context.Context, folderName string) error {
	if folderName == DefaultRateKey {
		return fmt.Errorf("cannot remove the %s rate entry", DefaultRateKey)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadLocked(ctx)

	if _, ok := b.rates[folderName]; !ok {
		return nil
	}
	next := cloneRates(b.rates)
	delete(next, folderName)
	return b.persistLocked(ctx, next)
}

// All returns a copy of the whole rate map.
func (b *RateBook) All(ctx context.Context) map[string]PaymentRates {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadLocked(ctx)
	return cloneRates(b.rates)
}

func (b *RateBook) loadLocked(ctx context.Context) {
	if b.loaded {
		return
	}
	var rates map[string]PaymentRates
	err := b.store.Get(ctx, KeyFolderRates, &rates)
	switch {
	case err == nil:
		b.rates = rates
	case IsNotFound(err):
		b.rates = make(map[string]PaymentRates)
	default:
		b.log.Error("rate book load failed, degrading to empty", "error", err)
		b.rates = make(map[string]PaymentRates)
	}
	if b.rates == nil {
		b.rates = make(map[string]PaymentRates)
	}
	b.loaded = true
}

func (b *RateBook) persistLocked(ctx context.Context, next map[string]PaymentRates) error {
	if err := b.store.Set(ctx, KeyFolderRates, next); err != nil {
		return &StorageError{Op: "set", Key: KeyFolderRates, Err: err}
	}
	b.rates = next
	return nil
}

func cloneRates(rates map[string]PaymentRates) map[string]PaymentRates {
	next := make(map[string]PaymentRates, len(rates))
	for k, v := range rates {
		next[k] = v
	}
	return next
}

// Pay computes the wage for the given day counts under these rates.
func (p PaymentRates) Pay(presentCount, halfDayCount int) decimal.Decimal {
	full := p.FullDay.Mul(decimal.NewFromInt(int64(presentCount)))
	half := p.HalfDay.Mul(decimal.NewFromInt(int64(halfDayCount)))
	return full.Add(half)
}
