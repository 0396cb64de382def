package tracking

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY VALUE OBJECTS
// =============================================================================
// Derived, never persisted. Recomputed on demand from the record snapshot;
// a caller that needs them cheap should memoize at its own layer.

// DaySummary is one day slot of a week: the per-day calculations plus
// whether a record existed or the slot was synthesized.
type DaySummary struct {
	Date        Date
	ActualHours decimal.Decimal
	TargetHours decimal.Decimal
	Balance     decimal.Decimal
	Absence     Absence
	HasRecord   bool
}

// WeekSummary is a Monday-to-Sunday week with totals over its 7 slots.
// Totals are sums of the already-rounded slot values, re-rounded.
type WeekSummary struct {
	WeekStart Date
	WeekEnd   Date
	Days      []DaySummary

	TotalActual  decimal.Decimal
	TotalTarget  decimal.Decimal
	TotalBalance decimal.Decimal
}

// MonthSummary is a calendar month expanded to whole weeks. Boundary-week
// days belonging to adjacent months appear in Weeks but are excluded from
// the month totals.
//
// CarryoverIn is the flex account balance entering the month (replayed from
// all prior history), CarryoverOut the balance leaving it.
type MonthSummary struct {
	Year  int
	Month time.Month
	Weeks []WeekSummary

	TotalActual   decimal.Decimal
	TotalTarget   decimal.Decimal
	PeriodBalance decimal.Decimal
	CarryoverIn   decimal.Decimal
	CarryoverOut  decimal.Decimal
}
