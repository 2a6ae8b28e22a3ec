package attendance

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// WEEK - The aggregation window
// =============================================================================

// Week is a fixed 7-day window [Start, End]. Windows are calendar-anchored
// and identical for every employee.
type Week struct {
	Start Date
	End   Date
}

// Contains returns true if d falls within the week.
func (w Week) Contains(d Date) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

// Days returns the seven days of the week in order.
func (w Week) Days() []Date {
	return DateRange{From: w.Start, To: w.End}.Days()
}

// Range converts the week to a DateRange.
func (w Week) Range() DateRange { return DateRange{From: w.Start, To: w.End} }

// Next returns the following week.
func (w Week) Next() Week { return Week{Start: w.Start.AddDays(7), End: w.End.AddDays(7)} }

// Previous returns the window before w.
func (w Week) Previous() Week { return Week{Start: w.Start.AddDays(-7), End: w.End.AddDays(-7)} }

// Label is the display form, e.g. "06 Jan - 12 Jan 2025".
func (w Week) Label() string {
	return w.Start.Format("02 Jan") + " - " + w.End.Format("02 Jan 2006")
}

func (w Week) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}

// =============================================================================
// WEEK CALENDAR - Anchors windows to a start weekday
// =============================================================================

// WeekCalendar maps dates to week windows. The zero value starts weeks on
// Sunday (time.Sunday == 0); use DefaultCalendar for Monday weeks.
type WeekCalendar struct {
	Start time.Weekday
}

// DefaultCalendar uses Monday-to-Sunday weeks.
var DefaultCalendar = WeekCalendar{Start: time.Monday}

// ParseWeekday accepts English weekday names ("monday", "Mon").
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekFor returns the window containing d.
func (c WeekCalendar) WeekFor(d Date) Week {
	offset := (int(d.Weekday()) - int(c.Start) + 7) % 7
	start := d.AddDays(-offset)
	return Week{Start: start, End: start.AddDays(6)}
}

// WeeksBetween returns every window touching [from, to], in order.
func (c WeekCalendar) WeeksBetween(from, to Date) []Week {
	if to.Before(from) {
		return nil
	}
	var weeks []Week
	last := c.WeekFor(to)
	for w := c.WeekFor(from); w.Start.BeforeOrEqual(last.Start); w = w.Next() {
		weeks = append(weeks, w)
	}
	return weeks
}

// WeeksOf returns the distinct windows containing the given dates, ascending.
func (c WeekCalendar) WeeksOf(dates []Date) []Week {
	seen := make(map[Date]bool)
	var weeks []Week
	for _, d := range dates {
		w := c.WeekFor(d)
		if seen[w.Start] {
			continue
		}
		seen[w.Start] = true
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Start.Before(weeks[j].Start) })
	return weeks
}
