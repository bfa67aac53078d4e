package ledger

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of statement dates.
const DateLayout = "2006-01-02"

// MaxRangeDays bounds a single statement request.
const MaxRangeDays = 3660

// Range is an inclusive span of calendar days in UTC.
type Range struct {
	From time.Time
	To   time.Time
}

// NewRange truncates both bounds to the day and validates ordering.
func NewRange(from, to time.Time) (Range, error) {
	r := Range{From: day(from), To: day(to)}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// ParseRange reads YYYY-MM-DD bounds. An empty to means today; an empty
// from means the first day of the to month.
func ParseRange(from, to string, now time.Time) (Range, error) {
	end := day(now)
	if s := strings.TrimSpace(to); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return Range{}, fmt.Errorf("%w: to %q is not a %s date", ErrInvalidRange, s, DateLayout)
		}
		end = t
	}
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	if s := strings.TrimSpace(from); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return Range{}, fmt.Errorf("%w: from %q is not a %s date", ErrInvalidRange, s, DateLayout)
		}
		start = t
	}
	return NewRange(start, end)
}

// Validate rejects zero, inverted or oversized ranges.
func (r Range) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("%w: both bounds are required", ErrInvalidRange)
	}
	if r.From.After(r.To) {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidRange, r.From.Format(DateLayout), r.To.Format(DateLayout))
	}
	if r.Days() > MaxRangeDays {
		return fmt.Errorf("%w: %d days exceeds the %d day limit", ErrInvalidRange, r.Days(), MaxRangeDays)
	}
	return nil
}

// Start is the first instant of the range.
func (r Range) Start() time.Time { return r.From }

// End is the first instant after the range.
func (r Range) End() time.Time { return r.To.AddDate(0, 0, 1) }

// Days counts the calendar days covered.
func (r Range) Days() int {
	return int(r.End().Sub(r.Start()) / (24 * time.Hour))
}

// Contains reports whether t falls on one of the range days.
func (r Range) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(r.Start()) && t.Before(r.End())
}

func (r Range) String() string {
	return r.From.Format(DateLayout) + ".." + r.To.Format(DateLayout)
}

// Query is the half-open window handed to the store. A zero Start means
// unbounded.
type Query struct {
	PartyID int64
	Start   time.Time
	End     time.Time
}

// Within selects the range days.
func (r Range) Within(partyID int64) Query {
	return Query{PartyID: partyID, Start: r.Start(), End: r.End()}
}

// Before selects everything dated ahead of the range.
func (r Range) Before(partyID int64) Query {
	return Query{PartyID: partyID, End: r.Start()}
}

// Matches reports whether t lies inside the window.
func (q Query) Matches(t time.Time) bool {
	t = t.UTC()
	if !q.Start.IsZero() && t.Before(q.Start) {
		return false
	}
	return t.Before(q.End)
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
