/*
denomination.go - Currency note optimization for physical cash payout

PURPOSE:
  Given the batch net payment, decide how many 500-notes and 100-notes
  to withdraw so the counts stay balanced. Pure function, no dependencies.

ALGORITHM:
  Round the amount to the nearest multiple of 100 (half away from zero,
  so 850 rounds to 900). Then iterate countHigh from 0 to rounded/500;
  each candidate has exactly one countLow making the sum exact. Keep the
  pair minimizing |countHigh - countLow|, tie-broken by the smaller total
  note count. The search space is tiny (amount/500 + 1 candidates), so
  the brute force is deliberate.
*/
package payroll

import "github.com/shopspring/decimal"

// Note values. The system tracks exactly two denominations.
const (
	NoteHigh = 500
	NoteLow  = 100
)

// NoteBreakdown is the result of the denomination optimization.
// CountHigh*500 + CountLow*100 always equals the rounded amount.
type NoteBreakdown struct {
	CountHigh int `json:"count_high"`
	CountLow  int `json:"count_low"`
}

// Total returns the exact sum the breakdown pays out.
func (b NoteBreakdown) Total() int64 {
	return int64(b.CountHigh)*NoteHigh + int64(b.CountLow)*NoteLow
}

var hundred = decimal.NewFromInt(NoteLow)

// OptimizeNotes computes the balanced note breakdown for an amount.
// Zero or negative amounts yield {0, 0}.
func OptimizeNotes(amount decimal.Decimal) NoteBreakdown {
	if !amount.IsPositive() {
		return NoteBreakdown{}
	}

	// Round to the nearest multiple of 100, half away from zero: 850 -> 900.
	rounded := amount.Div(hundred).Round(0).Mul(hundred).IntPart()
	if rounded <= 0 {
		return NoteBreakdown{}
	}

	best := NoteBreakdown{CountLow: int(rounded / NoteLow)}
	bestDiff := absInt(best.CountHigh - best.CountLow)
	for high := 1; int64(high)*NoteHigh <= rounded; high++ {
		low := int((rounded - int64(high)*NoteHigh) / NoteLow)
		diff := absInt(high - low)
		if diff < bestDiff || (diff == bestDiff && high+low < best.CountHigh+best.CountLow) {
			best = NoteBreakdown{CountHigh: high, CountLow: low}
			bestDiff = diff
		}
	}
	return best
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
