/*
period.go - Week and month aggregation

PURPOSE:
  Builds WeekSummary and MonthSummary value objects on top of the per-day
  rules in daily.go.

WEEKS:
  A week is always 7 slots, Monday through Sunday. Days without a record
  get a synthesized slot: zero actual against the weekday target. The
  synthesized slot never applies the holiday-zero rule because there is no
  record to carry an absence category.

MONTHS:
  A month is expanded to whole calendar weeks (the Monday on or before the
  1st through the Sunday on or after the last day) so a UI can render full
  week rows. Totals only accumulate days whose date falls inside the month;
  the boundary days are display-only.

ROUNDING:
  Slot values are already rounded to 2 places; totals sum the rounded
  slots and re-round. This keeps every number a caller ever sees at the
  same fixed-point scale.
*/
package tracking

import "time"

// WeekSummaryFor builds the summary for the week containing weekStart.
// The week is snapped to its Monday, so any day of the week may be passed.
// Records outside the week are ignored; ordering of records is irrelevant.
func WeekSummaryFor(records []TimeRecord, settings AccountSettings, weekStart Date) WeekSummary {
	monday := MondayOf(weekStart)

	byDate := make(map[Date]TimeRecord, len(records))
	for _, r := range records {
		byDate[r.Date] = r
	}

	week := WeekSummary{
		WeekStart:    monday,
		WeekEnd:      monday.AddDays(6),
		Days:         make([]DaySummary, 0, 7),
		TotalActual:  Zero2(),
		TotalTarget:  Zero2(),
		TotalBalance: Zero2(),
	}

	for i := 0; i < 7; i++ {
		day := monday.AddDays(i)

		var slot DaySummary
		if r, ok := byDate[day]; ok {
			slot = DaySummary{
				Date:        day,
				ActualHours: ActualHours(r),
				TargetHours: TargetHours(r, settings),
				Balance:     DailyBalance(r, settings),
				Absence:     r.Absence,
				HasRecord:   true,
			}
		} else {
			target := weekdayTarget(day, settings)
			slot = DaySummary{
				Date:        day,
				ActualHours: Zero2(),
				TargetHours: target,
				Balance:     Zero2().Sub(target),
				Absence:     AbsenceNone,
				HasRecord:   false,
			}
		}

		week.Days = append(week.Days, slot)
		week.TotalActual = week.TotalActual.Add(slot.ActualHours)
		week.TotalTarget = week.TotalTarget.Add(slot.TargetHours)
		week.TotalBalance = week.TotalBalance.Add(slot.Balance)
	}

	week.TotalActual = round2(week.TotalActual)
	week.TotalTarget = round2(week.TotalTarget)
	week.TotalBalance = round2(week.TotalBalance)
	return week
}

// MonthSummaryFor builds the summary for a calendar month.
//
// records must be the user's complete history snapshot, not just the month:
// the carryover-in is replayed from everything before the month's first day.
func MonthSummaryFor(records []TimeRecord, settings AccountSettings, year int, month time.Month) MonthSummary {
	firstDay := StartOfMonth(year, month)
	lastDay := EndOfMonth(year, month)

	summary := MonthSummary{
		Year:          year,
		Month:         month,
		TotalActual:   Zero2(),
		TotalTarget:   Zero2(),
		PeriodBalance: Zero2(),
	}

	for weekStart := MondayOf(firstDay); weekStart.BeforeOrEqual(lastDay); weekStart = weekStart.AddDays(7) {
		week := WeekSummaryFor(records, settings, weekStart)
		summary.Weeks = append(summary.Weeks, week)

		// Only in-month days count toward the totals.
		for _, day := range week.Days {
			if day.Date.AfterOrEqual(firstDay) && day.Date.BeforeOrEqual(lastDay) {
				summary.TotalActual = summary.TotalActual.Add(day.ActualHours)
				summary.TotalTarget = summary.TotalTarget.Add(day.TargetHours)
				summary.PeriodBalance = summary.PeriodBalance.Add(day.Balance)
			}
		}
	}

	summary.TotalActual = round2(summary.TotalActual)
	summary.TotalTarget = round2(summary.TotalTarget)
	summary.PeriodBalance = round2(summary.PeriodBalance)

	summary.CarryoverIn = round2(monthCarryIn(records, settings, firstDay, lastDay))
	summary.CarryoverOut = round2(summary.CarryoverIn.Add(summary.PeriodBalance))
	return summary
}
