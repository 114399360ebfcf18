package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_GetMissingKey(t *testing.T) {
	s := newTestStore(t)

	var out []string
	err := s.Get(context.Background(), "nope", &out)
	assert.ErrorIs(t, err, ledger.ErrKeyNotFound)
}

func TestStore_SetOverwrites(t *testing.T) {
	// Set rewrites the document whole; a second write replaces the first.

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []string{"a", "b"}))
	require.NoError(t, s.Set(ctx, "k", []string{"c"}))

	var out []string
	require.NoError(t, s.Get(ctx, "k", &out))
	assert.Equal(t, []string{"c"}, out)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Delete(ctx, "k"))

	var out string
	assert.ErrorIs(t, s.Get(ctx, "k", &out), ledger.ErrKeyNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, s.Delete(ctx, "k"))
}

func TestStore_RoundTripsDomainRecords(t *testing.T) {
	// The ledgers persist their full record slices through the store;
	// make sure dates and decimals survive the JSON round-trip.

	s := newTestStore(t)
	ctx := context.Background()

	in := []ledger.AttendanceRecord{{
		WorkerID:   "w-1",
		Date:       ledger.NewDay(2025, time.March, 10),
		Status:     ledger.StatusHalfDay,
		FolderName: "Site A",
	}}
	require.NoError(t, s.Set(ctx, ledger.KeyAttendance, in))

	var out []ledger.AttendanceRecord
	require.NoError(t, s.Get(ctx, ledger.KeyAttendance, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "w-1", out[0].WorkerID)
	assert.True(t, out[0].Date.Equal(in[0].Date))
	assert.Equal(t, ledger.StatusHalfDay, out[0].Status)
}
