package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DAY - Calendar date at day granularity (ISO 8601 "YYYY-MM-DD")
// =============================================================================

// Day is a calendar date. It normalizes to midnight UTC so two Days built
// from different wall-clock times on the same date compare equal, and it
// marshals to the ISO "YYYY-MM-DD" form the persisted collections use.
type Day struct {
	t time.Time
}

const dayLayout = "2006-01-02"

func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates an arbitrary time to its calendar date.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

func Today() Day { return DayOf(time.Now()) }

// ParseDay parses the ISO "YYYY-MM-DD" form.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Comparison
func (d Day) Before(other Day) bool        { return d.t.Before(other.t) }
func (d Day) After(other Day) bool         { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool         { return d.t.Equal(other.t) }
func (d Day) BeforeOrEqual(other Day) bool { return !d.After(other) }
func (d Day) AfterOrEqual(other Day) bool  { return !d.Before(other) }

// Arithmetic
func (d Day) AddDays(n int) Day { return DayOf(d.t.AddDate(0, 0, n)) }

func (d Day) IsZero() bool    { return d.t.IsZero() }
func (d Day) Time() time.Time { return d.t }
func (d Day) String() string  { return d.t.Format(dayLayout) }

// DaysInRange enumerates every calendar date from start to end inclusive.
// Returns nil when start is after end.
func DaysInRange(start, end Day) []Day {
	if start.After(end) {
		return nil
	}
	var days []Day
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// =============================================================================
// JSON - Round-trips as the ISO string
// =============================================================================

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
