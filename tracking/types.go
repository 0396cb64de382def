/*
Package tracking implements the time-balance ledger engine.

PURPOSE:
  This package turns raw daily attendance records into worked/target hours,
  a signed flextime balance, weekly and monthly summaries, and a
  replayed-from-history carryover account balance, plus a vacation
  entitlement calculator with expiring carryover days.

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeRecord: One day of attendance for one user
  - AccountSettings: Per-user contract configuration (target hours, epoch,
    initial offset, vacation entitlements)
  - Absence: Category of a day, altering how it is credited
  - round2: The single rounding discipline used everywhere

DESIGN PRINCIPLES:
  1. Purity: Every calculation is a function over immutable snapshots.
     No internal caches, no stored running totals.
  2. Precision: decimal.Decimal with half-up rounding to 2 places at every
     aggregation boundary, never only at display time.
  3. Replay over storage: Balances are always recomputed from the full
     record history so retroactive edits can never leave a stale total.

SEE ALSO:
  - daily.go: Per-day actual/target/balance rules
  - period.go: Week and month aggregation
  - ledger.go: All-time balance replay and month carryover
  - vacation.go: Vacation entitlement and expiry warnings
*/
package tracking

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ABSENCE / STATUS ENUMS
// =============================================================================

// Absence classifies a day. The category changes how the day is credited:
// vacation and sick days are neutral (balance 0), public holidays carry no
// target, flex days debit the full daily target.
type Absence string

const (
	AbsenceNone     Absence = "none"      // regular work day
	AbsenceVacation Absence = "vacation"  // Urlaub
	AbsenceSick     Absence = "sick"      // Krank
	AbsenceHoliday  Absence = "holiday"   // Feiertag
	AbsenceFlexTime Absence = "flex_time" // Zeitausgleich, debited from the flex account
)

// ValidAbsence reports whether s is a known absence category.
func ValidAbsence(s string) bool {
	switch Absence(s) {
	case AbsenceNone, AbsenceVacation, AbsenceSick, AbsenceHoliday, AbsenceFlexTime:
		return true
	}
	return false
}

// RecordStatus is the lifecycle state of a record. The engine treats draft
// and submitted records identically; the status exists for the editing layer.
type RecordStatus string

const (
	StatusDraft     RecordStatus = "draft"     // user can edit
	StatusSubmitted RecordStatus = "submitted" // locked for HR
)

func ValidStatus(s string) bool {
	return RecordStatus(s) == StatusDraft || RecordStatus(s) == StatusSubmitted
}

// =============================================================================
// TIME RECORD - One attendance day for one user
// =============================================================================

// TimeRecord is a single day of attendance. At most one record exists per
// (UserID, Date); the storage layer enforces that invariant.
//
// Start and End are either both set or both nil. The engine assumes this and
// the other structural invariants (End after Start, BreakMinutes >= 0) hold
// on entry; enforcement belongs to the editing layer.
type TimeRecord struct {
	ID     int64
	UserID int64
	Date   Date

	Start *ClockTime
	End   *ClockTime

	BreakMinutes int
	Absence      Absence
	Notes        string
	Status       RecordStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTimes reports whether both clock times are present.
func (r TimeRecord) HasTimes() bool { return r.Start != nil && r.End != nil }

// =============================================================================
// ACCOUNT SETTINGS - Per-user contract configuration
// =============================================================================

// DaySlot is a default schedule for one weekday, used only to pre-fill the
// entry form. It has no effect on target-hour computation.
type DaySlot struct {
	Start        ClockTime
	End          ClockTime
	BreakMinutes int
}

// WeekSchedule holds one optional DaySlot per weekday, Monday first.
type WeekSchedule [7]*DaySlot

// AccountSettings configures tracking for one user.
//
// TrackingStart is the epoch: history before it is represented only through
// InitialHoursOffset. Nil optional fields mean "not configured" and default
// to zero in every calculation.
type AccountSettings struct {
	UserID            int64
	WeeklyTargetHours decimal.Decimal

	TrackingStart      *Date
	InitialHoursOffset *decimal.Decimal

	InitialVacationDays      *decimal.Decimal
	AnnualVacationDays       *decimal.Decimal
	VacationCarryoverDays    *decimal.Decimal
	VacationCarryoverExpires *Date

	WeekdayDefaults *WeekSchedule

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	two2        = decimal.New(0, -2) // 0.00, for a cheap zero at display scale
	workdaysPer = decimal.NewFromInt(5)
	minutesPer  = decimal.NewFromInt(60)
)

// Zero2 returns 0.00 at two decimal places.
func Zero2() decimal.Decimal { return two2 }

// round2 rounds half-up (ties away from zero) to 2 decimal places.
// Applied at every aggregation boundary so floating drift cannot accumulate
// across months of replay.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// MustParseDecimal parses s, returning zero on failure. Test helper.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
