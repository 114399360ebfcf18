// Package store provides Storage implementations.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/warp/payroll-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps values as marshaled JSON so Get/Set round-trip exactly the
// way the durable store does, including any lossy serialization.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string, out any) error {
	m.mu.RLock()
	raw, ok := m.values[key]
	m.mu.RUnlock()

	if !ok {
		return ledger.ErrKeyNotFound
	}
	return json.Unmarshal(raw, out)
}

func (m *Memory) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = raw
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// =============================================================================
// FAILING STORE - Error injection for tests
// =============================================================================

// Failing wraps a Memory store and fails selected operations. Tests use it
// to exercise the degraded read path and write propagation.
type Failing struct {
	*Memory
	GetErr error
	SetErr error
}

func NewFailing() *Failing {
	return &Failing{Memory: NewMemory()}
}

func (f *Failing) Get(ctx context.Context, key string, out any) error {
	if f.GetErr != nil {
		return f.GetErr
	}
	return f.Memory.Get(ctx, key, out)
}

func (f *Failing) Set(ctx context.Context, key string, value any) error {
	if f.SetErr != nil {
		return f.SetErr
	}
	return f.Memory.Set(ctx, key, value)
}
