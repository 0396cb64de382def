/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the domain types.
  All monetary-style hour amounts are serialized as fixed two-decimal
  strings so clients never see binary-float artifacts.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

PATCH SEMANTICS:
  Optional pointer fields on requests distinguish "leave unchanged" (field
  absent) from "clear" (field present and empty).

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/verk/timetrack/tracking"
)

// =============================================================================
// RECORDS
// =============================================================================

// RecordDTO represents a time record in API responses.
type RecordDTO struct {
	ID           int64   `json:"id"`
	UserID       int64   `json:"user_id"`
	Date         string  `json:"date"`
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	BreakMinutes int     `json:"break_minutes"`
	Absence      string  `json:"absence"`
	Notes        string  `json:"notes,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at,omitempty"`
	UpdatedAt    string  `json:"updated_at,omitempty"`
}

// SaveRecordRequest creates or updates a record. On PATCH, absent fields
// keep their stored value.
type SaveRecordRequest struct {
	Date         *string `json:"date,omitempty"`
	StartTime    *string `json:"start_time,omitempty"`
	EndTime      *string `json:"end_time,omitempty"`
	BreakMinutes *int    `json:"break_minutes,omitempty"`
	Absence      *string `json:"absence,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	Status       *string `json:"status,omitempty"`
}

func toRecordDTO(r tracking.TimeRecord) RecordDTO {
	dto := RecordDTO{
		ID:           r.ID,
		UserID:       r.UserID,
		Date:         r.Date.String(),
		BreakMinutes: r.BreakMinutes,
		Absence:      string(r.Absence),
		Notes:        r.Notes,
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.Format(time.RFC3339),
	}
	if r.Start != nil {
		s := r.Start.String()
		dto.StartTime = &s
	}
	if r.End != nil {
		e := r.End.String()
		dto.EndTime = &e
	}
	return dto
}

// =============================================================================
// SETTINGS
// =============================================================================

// DaySlotDTO is one weekday's default schedule.
type DaySlotDTO struct {
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	BreakMinutes int    `json:"break_minutes"`
}

// SettingsDTO represents account settings in API responses.
type SettingsDTO struct {
	UserID                   int64          `json:"user_id"`
	WeeklyTargetHours        string         `json:"weekly_target_hours"`
	TrackingStart            *string        `json:"tracking_start,omitempty"`
	InitialHoursOffset       *string        `json:"initial_hours_offset,omitempty"`
	InitialVacationDays      *string        `json:"initial_vacation_days,omitempty"`
	AnnualVacationDays       *string        `json:"annual_vacation_days,omitempty"`
	VacationCarryoverDays    *string        `json:"vacation_carryover_days,omitempty"`
	VacationCarryoverExpires *string        `json:"vacation_carryover_expires,omitempty"`
	WeekdayDefaults          []*DaySlotDTO  `json:"weekday_defaults,omitempty"`
}

// TrackingSettingsRequest updates the flex-tracking configuration.
type TrackingSettingsRequest struct {
	WeeklyTargetHours  *string `json:"weekly_target_hours,omitempty"`
	TrackingStart      *string `json:"tracking_start,omitempty"`
	InitialHoursOffset *string `json:"initial_hours_offset,omitempty"`
}

// VacationSettingsRequest updates the vacation configuration.
type VacationSettingsRequest struct {
	InitialVacationDays      *string `json:"initial_vacation_days,omitempty"`
	AnnualVacationDays       *string `json:"annual_vacation_days,omitempty"`
	VacationCarryoverDays    *string `json:"vacation_carryover_days,omitempty"`
	VacationCarryoverExpires *string `json:"vacation_carryover_expires,omitempty"`
}

// WeekdayDefaultsRequest replaces the 7-slot default schedule, Monday first.
type WeekdayDefaultsRequest struct {
	Days []*DaySlotDTO `json:"days"`
}

func toSettingsDTO(s tracking.AccountSettings) SettingsDTO {
	dto := SettingsDTO{
		UserID:                   s.UserID,
		WeeklyTargetHours:        s.WeeklyTargetHours.StringFixed(2),
		TrackingStart:            dateString(s.TrackingStart),
		VacationCarryoverExpires: dateString(s.VacationCarryoverExpires),
	}
	if s.InitialHoursOffset != nil {
		v := s.InitialHoursOffset.StringFixed(2)
		dto.InitialHoursOffset = &v
	}
	if s.InitialVacationDays != nil {
		v := s.InitialVacationDays.String()
		dto.InitialVacationDays = &v
	}
	if s.AnnualVacationDays != nil {
		v := s.AnnualVacationDays.String()
		dto.AnnualVacationDays = &v
	}
	if s.VacationCarryoverDays != nil {
		v := s.VacationCarryoverDays.String()
		dto.VacationCarryoverDays = &v
	}
	if s.WeekdayDefaults != nil {
		dto.WeekdayDefaults = make([]*DaySlotDTO, 7)
		for i, slot := range s.WeekdayDefaults {
			if slot == nil {
				continue
			}
			dto.WeekdayDefaults[i] = &DaySlotDTO{
				StartTime:    slot.Start.String(),
				EndTime:      slot.End.String(),
				BreakMinutes: slot.BreakMinutes,
			}
		}
	}
	return dto
}

func dateString(d *tracking.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// =============================================================================
// SUMMARIES & BALANCES
// =============================================================================

// DaySummaryDTO is one day slot of a week summary.
type DaySummaryDTO struct {
	Date        string `json:"date"`
	ActualHours string `json:"actual_hours"`
	TargetHours string `json:"target_hours"`
	Balance     string `json:"balance"`
	Absence     string `json:"absence"`
	HasRecord   bool   `json:"has_record"`
}

// WeekSummaryDTO is a Monday-to-Sunday week with totals.
type WeekSummaryDTO struct {
	WeekStart    string          `json:"week_start"`
	WeekEnd      string          `json:"week_end"`
	Days         []DaySummaryDTO `json:"days"`
	TotalActual  string          `json:"total_actual"`
	TotalTarget  string          `json:"total_target"`
	TotalBalance string          `json:"total_balance"`
}

// MonthSummaryDTO is a whole-week-expanded month with totals and carryover.
type MonthSummaryDTO struct {
	Year          int              `json:"year"`
	Month         int              `json:"month"`
	Weeks         []WeekSummaryDTO `json:"weeks"`
	TotalActual   string           `json:"total_actual"`
	TotalTarget   string           `json:"total_target"`
	PeriodBalance string           `json:"period_balance"`
	CarryoverIn   string           `json:"carryover_in"`
	CarryoverOut  string           `json:"carryover_out"`
}

// BalanceDTO is the all-time flex balance as of a cutoff.
type BalanceDTO struct {
	AsOf    *string `json:"as_of,omitempty"`
	Balance string  `json:"balance"`
}

// VacationWarningDTO flags expiring carryover days.
type VacationWarningDTO struct {
	Severity     string `json:"severity"`
	Message      string `json:"message"`
	DaysExpiring string `json:"days_expiring"`
	ExpiryDate   string `json:"expiry_date"`
}

// VacationBalanceDTO is the vacation account as of a query date.
type VacationBalanceDTO struct {
	AsOf             string              `json:"as_of"`
	TotalEntitlement string              `json:"total_entitlement"`
	DaysUsed         string              `json:"days_used"`
	DaysRemaining    string              `json:"days_remaining"`
	CarryoverDays    string              `json:"carryover_days"`
	CarryoverExpires *string             `json:"carryover_expires,omitempty"`
	Warning          *VacationWarningDTO `json:"warning,omitempty"`
}

// HolidayDTO is one public holiday.
type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func toDaySummaryDTO(d tracking.DaySummary) DaySummaryDTO {
	return DaySummaryDTO{
		Date:        d.Date.String(),
		ActualHours: d.ActualHours.StringFixed(2),
		TargetHours: d.TargetHours.StringFixed(2),
		Balance:     d.Balance.StringFixed(2),
		Absence:     string(d.Absence),
		HasRecord:   d.HasRecord,
	}
}

func toWeekSummaryDTO(w tracking.WeekSummary) WeekSummaryDTO {
	days := make([]DaySummaryDTO, len(w.Days))
	for i, d := range w.Days {
		days[i] = toDaySummaryDTO(d)
	}
	return WeekSummaryDTO{
		WeekStart:    w.WeekStart.String(),
		WeekEnd:      w.WeekEnd.String(),
		Days:         days,
		TotalActual:  w.TotalActual.StringFixed(2),
		TotalTarget:  w.TotalTarget.StringFixed(2),
		TotalBalance: w.TotalBalance.StringFixed(2),
	}
}

func toMonthSummaryDTO(m tracking.MonthSummary) MonthSummaryDTO {
	weeks := make([]WeekSummaryDTO, len(m.Weeks))
	for i, w := range m.Weeks {
		weeks[i] = toWeekSummaryDTO(w)
	}
	return MonthSummaryDTO{
		Year:          m.Year,
		Month:         int(m.Month),
		Weeks:         weeks,
		TotalActual:   m.TotalActual.StringFixed(2),
		TotalTarget:   m.TotalTarget.StringFixed(2),
		PeriodBalance: m.PeriodBalance.StringFixed(2),
		CarryoverIn:   m.CarryoverIn.StringFixed(2),
		CarryoverOut:  m.CarryoverOut.StringFixed(2),
	}
}

// =============================================================================
// IMPORT / ERRORS
// =============================================================================

// ImportErrorDTO is a rejected import row.
type ImportErrorDTO struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResultDTO reports the outcome of a CSV import.
type ImportResultDTO struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportErrorDTO `json:"errors,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
