package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/ledger"
	"github.com/warp/payroll-engine/ledger/store"
)

func testRates(full, half int64) ledger.PaymentRates {
	return ledger.PaymentRates{
		FullDay: decimal.NewFromInt(full),
		HalfDay: decimal.NewFromInt(half),
	}
}

func TestRateBook_Resolve_FallsBackToDefault(t *testing.T) {
	// GIVEN: a book with only the Default entry
	// WHEN: resolving a folder with no explicit entry
	// THEN: the Default rates come back

	b := ledger.NewRateBook(store.NewMemory(), nil)
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, ledger.DefaultRateKey, testRates(600, 250)))

	rates, err := b.Resolve(ctx, "Site A")
	require.NoError(t, err)
	assert.True(t, rates.FullDay.Equal(decimal.NewFromInt(600)))
	assert.True(t, rates.HalfDay.Equal(decimal.NewFromInt(250)))
}

func TestRateBook_Resolve_PrefersExplicitEntry(t *testing.T) {
	b := ledger.NewRateBook(store.NewMemory(), nil)
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, ledger.DefaultRateKey, testRates(600, 250)))
	require.NoError(t, b.Set(ctx, "Site A", testRates(700, 300)))

	rates, err := b.Resolve(ctx, "Site A")
	require.NoError(t, err)
	assert.True(t, rates.FullDay.Equal(decimal.NewFromInt(700)))
}

func TestRateBook_Resolve_NoDefault(t *testing.T) {
	b := ledger.NewRateBook(store.NewMemory(), nil)

	_, err := b.Resolve(context.Background(), "Site A")
	assert.ErrorIs(t, err, ledger.ErrNoDefaultRate)
}

func TestRateBook_Remove_DefaultIsProtected(t *testing.T) {
	b := ledger.NewRateBook(store.NewMemory(), nil)
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, ledger.DefaultRateKey, testRates(600, 250)))

	err := b.Remove(ctx, ledger.DefaultRateKey)
	require.Error(t, err)

	_, rerr := b.Resolve(ctx, "anything")
	assert.NoError(t, rerr)
}

func TestRateBook_Remove_RestoresFallback(t *testing.T) {
	// Removing a folder's explicit entry makes it resolve to Default again.

	b := ledger.NewRateBook(store.NewMemory(), nil)
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, ledger.DefaultRateKey, testRates(600, 250)))
	require.NoError(t, b.Set(ctx, "Site A", testRates(700, 300)))
	require.NoError(t, b.Remove(ctx, "Site A"))

	rates, err := b.Resolve(ctx, "Site A")
	require.NoError(t, err)
	assert.True(t, rates.FullDay.Equal(decimal.NewFromInt(600)))
}

func TestRateBook_EnsureDefault_DoesNotOverwrite(t *testing.T) {
	b := ledger.NewRateBook(store.NewMemory(), nil)
	ctx := context.Background()
	require.NoError(t, b.Set(ctx, ledger.DefaultRateKey, testRates(800, 400)))
	require.NoError(t, b.EnsureDefault(ctx, testRates(600, 250)))

	rates, err := b.Resolve(ctx, ledger.DefaultRateKey)
	require.NoError(t, err)
	assert.True(t, rates.FullDay.Equal(decimal.NewFromInt(800)), "existing Default survives seeding")
}

func TestRateBook_Set_RejectsNegativeRates(t *testing.T) {
	b := ledger.NewRateBook(store.NewMemory(), nil)

	err := b.Set(context.Background(), "Site A", testRates(-1, 250))
	require.Error(t, err)
	var recErr *ledger.RecordError
	assert.ErrorAs(t, err, &recErr)
}

func TestPaymentRates_Pay(t *testing.T) {
	rates := testRates(600, 250)

	// 1 present + 1 half day under 600/250.
	assert.True(t, rates.Pay(1, 1).Equal(decimal.NewFromInt(850)))
	assert.True(t, rates.Pay(0, 0).Equal(decimal.Zero))
	assert.True(t, rates.Pay(5, 2).Equal(decimal.NewFromInt(3500)))
}
