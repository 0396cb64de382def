/*
ledger.go - The flextime account, replayed from history

PURPOSE:
  Computes the all-time flex balance as of any cutoff date, and derives
  each month's carryover-in/out from that replay.

REPLAY, NOT STORAGE:
  There is no stored running total anywhere in this system. Every query
  replays the full record history. A stored total would have to be
  invalidated on every retroactive edit; replaying makes correctness a
  one-line argument instead. Callers that find the replay expensive should
  memoize per (user, cutoff) at their own layer.

EPOCH:
  History before TrackingStart is represented only by InitialHoursOffset.
  The month containing TrackingStart therefore has no prior period to
  replay: its carryover-in is the offset alone. Without a TrackingStart an
  offset is meaningless and carryover-in is always zero.
*/
package tracking

import "github.com/shopspring/decimal"

// AllTimeBalance replays every record in [TrackingStart, cutoff] and returns
// the summed daily balances plus InitialHoursOffset, rounded to 2 places.
// A nil cutoff leaves the upper bound open; an unset TrackingStart leaves
// the lower bound open. Identical inputs always produce identical output.
func AllTimeBalance(records []TimeRecord, settings AccountSettings, cutoff *Date) decimal.Decimal {
	total := Zero2()

	for _, r := range records {
		if settings.TrackingStart != nil && r.Date.Before(*settings.TrackingStart) {
			continue
		}
		if cutoff != nil && r.Date.After(*cutoff) {
			continue
		}
		total = total.Add(DailyBalance(r, settings))
	}

	if settings.InitialHoursOffset != nil {
		total = total.Add(*settings.InitialHoursOffset)
	}

	return round2(total)
}

// monthCarryIn returns the flex balance entering the month [firstDay, lastDay].
//
//   - no TrackingStart:            0.00 (an offset without an epoch is meaningless)
//   - epoch inside this month:     InitialHoursOffset alone, no history to replay
//   - epoch before this month:     full replay up to the previous month's last day
//   - epoch after this month:      0.00, tracking has not begun yet
func monthCarryIn(records []TimeRecord, settings AccountSettings, firstDay, lastDay Date) decimal.Decimal {
	if settings.TrackingStart == nil {
		return Zero2()
	}

	start := *settings.TrackingStart
	switch {
	case start.AfterOrEqual(firstDay) && start.BeforeOrEqual(lastDay):
		if settings.InitialHoursOffset != nil {
			return *settings.InitialHoursOffset
		}
		return Zero2()
	case start.Before(firstDay):
		prevMonthEnd := firstDay.AddDays(-1)
		return AllTimeBalance(records, settings, &prevMonthEnd)
	default:
		return Zero2()
	}
}
