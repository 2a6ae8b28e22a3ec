package attendance

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day on the organisation clock
// =============================================================================

// Date is a calendar day. All dates live on a single organisational clock,
// so they are normalised to midnight UTC and are safe to use as map keys.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date from its calendar parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day (wall clock, not UTC shift).
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Today returns the current calendar day.
func Today() Date { return DateOf(time.Now()) }

// Comparison
func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Time() time.Time       { return d.t }
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsZero() bool          { return d.t.IsZero() }

// Format formats the date with a time layout.
func (d Date) Format(layout string) string { return d.t.Format(layout) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

// DaysBetween returns the number of whole days from a to b (negative if b < a).
func DaysBetween(a, b Date) int {
	return int(b.t.Sub(a.t).Hours() / 24)
}

// =============================================================================
// CLOCK TIME - Time of day at minute granularity
// =============================================================================

// ClockTime is a time of day expressed in minutes since midnight (0..1439).
// Seconds are dropped: a worked duration is counted in whole minutes.
type ClockTime int

const minutesPerDay = 24 * 60

// NewClockTime builds a ClockTime from hour and minute.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(((hour*60+minute)%minutesPerDay + minutesPerDay) % minutesPerDay)
}

// ClockOf extracts the time of day from a timestamp.
func ClockOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute())
}

// ParseClock parses "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (ClockTime, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

func (c ClockTime) Hour() int    { return int(c) / 60 }
func (c ClockTime) Minute() int  { return int(c) % 60 }
func (c ClockTime) Minutes() int { return int(c) }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Ptr returns a pointer to a copy of c.
func (c ClockTime) Ptr() *ClockTime { return &c }

// MinutesBetween returns the minutes from a to b. When b is earlier than a the
// span is taken to cross midnight.
func MinutesBetween(a, b ClockTime) int {
	d := int(b) - int(a)
	if d < 0 {
		d += minutesPerDay
	}
	return d
}

// =============================================================================
// DATE RANGE
// =============================================================================

// DateRange is an inclusive range of days. A zero bound means "unbounded".
type DateRange struct {
	From Date
	To   Date
}

// Contains returns true if d is within the range, honouring open bounds.
func (r DateRange) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// Bounded reports whether both ends are set.
func (r DateRange) Bounded() bool { return !r.From.IsZero() && !r.To.IsZero() }

// Validate rejects ranges whose end precedes their start.
func (r DateRange) Validate() error {
	if r.Bounded() && r.To.Before(r.From) {
		return ErrInvalidRange
	}
	return nil
}

// Days returns every day in a bounded range, in order.
func (r DateRange) Days() []Date {
	if !r.Bounded() || r.To.Before(r.From) {
		return nil
	}
	days := make([]Date, 0, DaysBetween(r.From, r.To)+1)
	for d := r.From; d.BeforeOrEqual(r.To); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func (r DateRange) String() string {
	return "[" + r.From.String() + ", " + r.To.String() + "]"
}
