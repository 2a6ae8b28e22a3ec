/*
weekly.go - Weekly Aggregator

PURPOSE:
  Rolls daily records into per-week compliance summaries.

  wfo_days   = days in the window with worked minutes
  total      = sum of daily minutes in the window
  expected   = WFODaysPerWeek x ExpectedHoursPerDay x 60
  compliance = total / expected x 100   (0 when expected is 0)

  Compliance is not capped at 100: an employee who overworks the required
  days shows above 100% and classifies GREEN.

SEE ALSO:
  - week.go: window boundaries
  - policy.go: Classify
*/
package attendance

// SummarizeWeek aggregates one employee's records for one window. Records
// outside the window or for other employees are ignored. An empty window
// yields a 0%, RED summary.
func SummarizeWeek(code string, week Week, records []DailyRecord, policy PolicyConfig) WeeklySummary {
	s := WeeklySummary{
		EmployeeCode:    code,
		Week:            week,
		RequiredWFODays: policy.WFODaysPerWeek,
		ExpectedMinutes: policy.ExpectedWeeklyMinutes(),
	}
	for _, r := range records {
		if r.EmployeeCode != code || !week.Contains(r.Date) {
			continue
		}
		s.TotalMinutes += r.TotalMinutes
		if r.WorkedInOffice() {
			s.WFODays++
		}
	}
	s.CompliancePercentage = Compliance(s.TotalMinutes, s.ExpectedMinutes)
	s.Status = policy.Classify(s.CompliancePercentage)
	return s
}

// AggregateWeekly produces one summary per window. With nil weeks the
// windows are derived from the record dates.
func (c WeekCalendar) AggregateWeekly(code string, records []DailyRecord, policy PolicyConfig, weeks []Week) []WeeklySummary {
	if weeks == nil {
		var dates []Date
		for _, r := range records {
			if r.EmployeeCode == code {
				dates = append(dates, r.Date)
			}
		}
		weeks = c.WeeksOf(dates)
	}

	summaries := make([]WeeklySummary, 0, len(weeks))
	for _, w := range weeks {
		summaries = append(summaries, SummarizeWeek(code, w, records, policy))
	}
	return summaries
}

// AggregateWeekly uses Monday-anchored windows.
func AggregateWeekly(code string, records []DailyRecord, policy PolicyConfig, weeks []Week) []WeeklySummary {
	return DefaultCalendar.AggregateWeekly(code, records, policy, weeks)
}
