/*
reconciler.go - Punch Reconciler

PURPOSE:
  Collapses the clock events of one employee on one day into a DailyRecord.

OUTERMOST SPAN:
  Worked time is first_in -> last_out. Intermediate punches (lunch, smoke
  breaks, door re-entries) never reduce the total; they are kept only as
  display sessions.

  When events carry directions, first_in is the earliest IN (or unlabeled)
  event and last_out the latest OUT (or unlabeled) event. This is what makes
  an overnight shift visible: IN 22:00, OUT 06:00 sorts as [06:00 OUT,
  22:00 IN], last_out < first_in, and the span wraps to 480 minutes.

  A span longer than the policy's maximum shift is clamped and flagged with
  an Anomaly; the record is still produced.

SEE ALSO:
  - daily.go: groups rows by (employee, date) and calls Reconcile
*/
package attendance

import "sort"

// Reconcile derives the daily record for one (employee, date) group of
// events. The events must share employee and date; the key is taken from the
// first event. With no events the result is an ABSENT record with an empty key.
func Reconcile(events []PunchEvent, policy PolicyConfig) DailyRecord {
	if len(events) == 0 {
		return DailyRecord{Status: StatusAbsent}
	}

	sorted := make([]PunchEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Clock < sorted[j].Clock })

	rec := DailyRecord{
		EmployeeCode: sorted[0].EmployeeCode,
		Date:         sorted[0].Date,
		PunchCount:   len(sorted),
		Sessions:     pairSessions(sorted),
	}

	if len(sorted) == 1 {
		// A lone punch records when it happened but never counts as time.
		e := sorted[0]
		if e.Direction != DirectionOut {
			rec.FirstIn = e.Clock.Ptr()
		}
		if e.Direction != DirectionIn {
			rec.LastOut = e.Clock.Ptr()
		}
		rec.Status = policy.DailyStatus(0, rec.PunchCount)
		return rec
	}

	first, last := outerSpan(sorted)
	rec.FirstIn = first.Ptr()
	rec.LastOut = last.Ptr()

	minutes := MinutesBetween(first, last)
	if limit := policy.MaxShiftMinutes(); limit > 0 && minutes > limit {
		rec.Anomaly = &Anomaly{
			EmployeeCode: rec.EmployeeCode,
			Date:         rec.Date,
			RawMinutes:   minutes,
			ClampedTo:    limit,
		}
		minutes = limit
	}
	rec.TotalMinutes = minutes
	rec.Status = policy.DailyStatus(minutes, rec.PunchCount)
	return rec
}

// outerSpan picks first_in and last_out from clock-sorted events.
func outerSpan(sorted []PunchEvent) (first, last ClockTime) {
	first = sorted[0].Clock
	last = sorted[len(sorted)-1].Clock
	for _, e := range sorted {
		if e.Direction != DirectionOut {
			first = e.Clock
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Direction != DirectionIn {
			last = sorted[i].Clock
			break
		}
	}
	return first, last
}

// pairSessions matches each IN with the next later unused OUT. Unlabeled
// events are paired in clock order. Unmatched events become open sessions.
func pairSessions(sorted []PunchEvent) []Session {
	labeled := false
	for _, e := range sorted {
		if e.Direction != DirectionUnknown {
			labeled = true
			break
		}
	}

	var sessions []Session
	if !labeled {
		for i := 0; i < len(sorted); i += 2 {
			s := Session{In: sorted[i].Clock.Ptr()}
			if i+1 < len(sorted) {
				s.Out = sorted[i+1].Clock.Ptr()
				s.Minutes = MinutesBetween(*s.In, *s.Out)
			}
			sessions = append(sessions, s)
		}
		return sessions
	}

	used := make([]bool, len(sorted))
	for i, e := range sorted {
		if e.Direction != DirectionIn {
			continue
		}
		s := Session{In: e.Clock.Ptr()}
		for j := i + 1; j < len(sorted); j++ {
			if !used[j] && sorted[j].Direction == DirectionOut {
				used[j] = true
				s.Out = sorted[j].Clock.Ptr()
				s.Minutes = MinutesBetween(e.Clock, sorted[j].Clock)
				break
			}
		}
		used[i] = true
		sessions = append(sessions, s)
	}
	for i, e := range sorted {
		if !used[i] && e.Direction == DirectionOut {
			sessions = append(sessions, Session{Out: e.Clock.Ptr()})
		}
	}
	return sessions
}
