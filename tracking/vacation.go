/*
vacation.go - Vacation entitlement with expiring carryover

PURPOSE:
  Computes vacation entitlement, usage, remaining balance, and a warning
  when carried-over days approach their expiry date. Independent of the
  flex ledger; consumes the same record/settings snapshot.

ENTITLEMENT:
  initial days + valid carryover + annual accrual. The annual accrual is
  AnnualVacationDays per FULL calendar year elapsed since TrackingStart -
  no pro-rating of partial years (Bundesurlaubsgesetz floor behavior).
  Carryover counts only while not expired as of the query date.

USAGE:
  One vacation-category record equals one day used. Remaining is not
  clamped; going negative is visible, not an error.
*/
package tracking

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VALUE OBJECTS
// =============================================================================

// VacationBalance is the vacation account state as of a query date.
// CarryoverDays holds only the still-valid carryover (zero once expired).
type VacationBalance struct {
	TotalEntitlement decimal.Decimal
	DaysUsed         decimal.Decimal
	DaysRemaining    decimal.Decimal
	CarryoverDays    decimal.Decimal
	CarryoverExpires *Date
}

// WarningSeverity grades how soon carryover days expire.
type WarningSeverity string

const (
	SeverityInfo     WarningSeverity = "info"     // 15..30 days left
	SeverityWarning  WarningSeverity = "warning"  // 7..14 days left
	SeverityCritical WarningSeverity = "critical" // under 7 days left
)

// VacationWarning flags carryover days that are about to expire.
type VacationWarning struct {
	Severity     WarningSeverity
	Message      string
	DaysExpiring decimal.Decimal
	ExpiryDate   Date
}

// =============================================================================
// CALCULATIONS
// =============================================================================

// CountAbsenceDays counts records of the given category with dates in
// [start, end], both bounds inclusive.
func CountAbsenceDays(records []TimeRecord, category Absence, start, end Date) decimal.Decimal {
	count := decimal.Zero
	for _, r := range records {
		if r.Absence == category && r.Date.AfterOrEqual(start) && r.Date.BeforeOrEqual(end) {
			count = count.Add(decimal.NewFromInt(1))
		}
	}
	return count
}

// VacationBalanceAsOf computes the vacation account as of a date.
//
// Usage is counted from TrackingStart when set, otherwise from the earliest
// record on file. Unconfigured settings fields count as zero.
func VacationBalanceAsOf(records []TimeRecord, settings AccountSettings, asOf Date) VacationBalance {
	initial := orZero(settings.InitialVacationDays)
	annual := orZero(settings.AnnualVacationDays)
	carryover := orZero(settings.VacationCarryoverDays)
	expires := settings.VacationCarryoverExpires

	validCarryover := decimal.Zero
	if expires == nil || asOf.BeforeOrEqual(*expires) {
		validCarryover = carryover
	}

	annualEntitlement := decimal.Zero
	if settings.TrackingStart != nil && annual.IsPositive() {
		if years := FullYearsBetween(*settings.TrackingStart, asOf); years > 0 {
			annualEntitlement = annual.Mul(decimal.NewFromInt(int64(years)))
		}
	}

	totalEntitlement := initial.Add(validCarryover).Add(annualEntitlement)

	daysUsed := decimal.Zero
	switch {
	case settings.TrackingStart != nil:
		daysUsed = CountAbsenceDays(records, AbsenceVacation, *settings.TrackingStart, asOf)
	case len(records) > 0:
		earliest := records[0].Date
		for _, r := range records[1:] {
			if r.Date.Before(earliest) {
				earliest = r.Date
			}
		}
		daysUsed = CountAbsenceDays(records, AbsenceVacation, earliest, asOf)
	}

	return VacationBalance{
		TotalEntitlement: totalEntitlement,
		DaysUsed:         daysUsed,
		DaysRemaining:    totalEntitlement.Sub(daysUsed),
		CarryoverDays:    validCarryover,
		CarryoverExpires: expires,
	}
}

// ExpiryWarning returns a warning when still-valid carryover days expire
// within 30 days of asOf, nil otherwise.
func ExpiryWarning(balance VacationBalance, asOf Date) *VacationWarning {
	if balance.CarryoverDays.IsZero() || balance.CarryoverExpires == nil {
		return nil
	}
	expires := *balance.CarryoverExpires
	if asOf.After(expires) {
		return nil
	}

	daysLeft := DaysBetween(asOf, expires)
	if daysLeft > 30 {
		return nil
	}

	var severity WarningSeverity
	switch {
	case daysLeft < 7:
		severity = SeverityCritical
	case daysLeft <= 14:
		severity = SeverityWarning
	default:
		severity = SeverityInfo
	}

	return &VacationWarning{
		Severity:     severity,
		Message:      fmt.Sprintf("%s Urlaubstage verfallen am %s", balance.CarryoverDays, expires),
		DaysExpiring: balance.CarryoverDays,
		ExpiryDate:   expires,
	}
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
