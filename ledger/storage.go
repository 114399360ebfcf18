/*
storage.go - Key-value persistence interface

PURPOSE:
  Defines the boundary between the ledgers and durable storage. The store
  is a plain key-value map of JSON-serializable values: no transactions,
  no locking, no partial updates. Each persisted collection lives under a
  single key and is rewritten whole on every save.

CONTRACT:
  - Get unmarshals the stored JSON into out; ErrKeyNotFound when absent.
  - Set marshals value to JSON and overwrites the key.
  - Values must round-trip exactly (encoding/json both ways).
  - No atomicity across keys: callers sequence their writes and accept
    last-write-wins between logically concurrent writers.

IMPLEMENTATIONS:
  - ledger/store/memory.go: in-memory, for tests and dev
  - store/sqlite/sqlite.go: durable SQLite-backed store

SEE ALSO:
  - attendance.go, advance.go, rates.go, archive.go: the callers
*/
package ledger

import "context"

// Storage is the key-value persistence collaborator.
type Storage interface {
	// Get reads the value stored under key into out.
	// Returns ErrKeyNotFound if the key has never been set.
	Get(ctx context.Context, key string, out any) error

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value any) error

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
