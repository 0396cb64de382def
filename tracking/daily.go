/*
daily.go - Per-day hour and balance rules

PURPOSE:
  The three per-day calculations everything else is built from:
  ActualHours, TargetHours, DailyBalance.

ABSENCE ASYMMETRY:
  The categories are deliberately not symmetric:
    vacation, sick  -> balance forced to 0.00 (credited as fully worked)
    holiday         -> target forced to 0.00, balance falls out as 0
    flex_time       -> no special case: zero actual against a full target,
                       so the day debits the flex account
    none            -> plain actual minus target

NO CLAMPING:
  ActualHours does not clamp a negative duration (end before start).
  Structural validity is the editing layer's job; garbage in, garbage out.
*/
package tracking

import "github.com/shopspring/decimal"

// ActualHours returns the hours worked on a record: clocked span minus
// break, rounded half-up to 2 places. A record without both clock times
// yields 0.00.
func ActualHours(r TimeRecord) decimal.Decimal {
	if !r.HasTimes() {
		return Zero2()
	}

	worked := decimal.NewFromInt(int64(r.Start.MinutesUntil(*r.End)))
	breakMin := decimal.NewFromInt(int64(r.BreakMinutes))

	return round2(worked.Sub(breakMin).Div(minutesPer))
}

// TargetHours returns the expected hours for the record's day:
// weeklyTarget/5 Monday through Friday, 0.00 on weekends, and 0.00 on a
// public-holiday record regardless of weekday.
func TargetHours(r TimeRecord, settings AccountSettings) decimal.Decimal {
	if r.Date.IsWeekend() {
		return Zero2()
	}
	if r.Absence == AbsenceHoliday {
		return Zero2()
	}

	// Sick days keep their normal target: they are neutralized in
	// DailyBalance instead (EFZG: illness is credited as worked).
	return round2(settings.WeeklyTargetHours.Div(workdaysPer))
}

// DailyBalance returns the signed surplus/deficit for one record.
// Vacation and sick days are neutral regardless of any clock times set.
// A holiday day balances to zero arithmetically (0 actual - 0 target);
// a flex day with no times debits the full daily target.
func DailyBalance(r TimeRecord, settings AccountSettings) decimal.Decimal {
	if r.Absence == AbsenceVacation || r.Absence == AbsenceSick {
		return Zero2()
	}
	return round2(ActualHours(r).Sub(TargetHours(r, settings)))
}

// weekdayTarget is the target for a date with no record: the weekday rule
// alone. There is no record to carry an absence category, so the
// holiday-zero rule deliberately does not apply here.
func weekdayTarget(d Date, settings AccountSettings) decimal.Decimal {
	if d.IsWeekend() {
		return Zero2()
	}
	return round2(settings.WeeklyTargetHours.Div(workdaysPer))
}
