/*
handlers.go - HTTP handlers for records, settings, summaries, and transfer

PURPOSE:
  The thin web layer over the tracking engine. Handlers load a snapshot
  from the store, hand it to the pure calculation functions, and serialize
  the result. No balance math lives here.

VALIDATION:
  This layer enforces the structural invariants the engine assumes:
  start/end both-or-neither, end after start, non-negative break, known
  enum values. The engine itself never re-checks them.

USER SELECTION:
  This is an internal single-tenant tool: the acting user comes from the
  'user' query parameter and defaults to 1. There is no authentication,
  mirroring the deployment behind the company VPN.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/verk/timetrack/tracking"
	"github.com/verk/timetrack/transfer"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store tracking.Store
	Log   *logrus.Logger
}

// NewHandler creates a handler backed by the given store.
func NewHandler(store tracking.Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Store: store, Log: log}
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// ListRecords returns records, optionally restricted to [from, to].
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var (
		records []tracking.TimeRecord
		err     error
	)
	fromStr, toStr := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if fromStr != "" || toStr != "" {
		from, to, perr := parseRange(fromStr, toStr)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid date range", perr)
			return
		}
		records, err = h.Store.RecordsInRange(r.Context(), uid, from, to)
	} else {
		records, err = h.Store.AllRecords(r.Context(), uid)
	}
	if err != nil {
		h.serverError(w, "Failed to list records", err)
		return
	}

	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRecord creates a new record for a day.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req SaveRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == nil {
		writeError(w, http.StatusBadRequest, "date is required", nil)
		return
	}

	rec := tracking.TimeRecord{
		UserID:  userID(r),
		Absence: tracking.AbsenceNone,
		Status:  tracking.StatusDraft,
	}
	if err := applyRecordPatch(&rec, req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record", err)
		return
	}

	saved, err := h.Store.CreateRecord(r.Context(), rec)
	if err != nil {
		h.storeError(w, err, "Failed to create record")
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(saved))
}

// GetRecord returns a single record.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record id", err)
		return
	}

	rec, err := h.Store.RecordByID(r.Context(), userID(r), id)
	if err != nil {
		h.storeError(w, err, "Failed to get record")
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// UpdateRecord applies a partial update to a record.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record id", err)
		return
	}

	var req SaveRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rec, err := h.Store.RecordByID(r.Context(), userID(r), id)
	if err != nil {
		h.storeError(w, err, "Failed to get record")
		return
	}
	if err := applyRecordPatch(&rec, req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record", err)
		return
	}

	saved, err := h.Store.UpdateRecord(r.Context(), rec)
	if err != nil {
		h.storeError(w, err, "Failed to update record")
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(saved))
}

// DeleteRecord removes a record.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record id", err)
		return
	}

	if err := h.Store.DeleteRecord(r.Context(), userID(r), id); err != nil {
		h.storeError(w, err, "Failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyRecordPatch merges a request onto a record and validates the result.
// Pointer semantics: absent keeps the stored value, empty string clears.
func applyRecordPatch(rec *tracking.TimeRecord, req SaveRecordRequest) error {
	if req.Date != nil {
		d, err := tracking.ParseDate(*req.Date)
		if err != nil {
			return err
		}
		rec.Date = d
	}
	if req.StartTime != nil {
		if *req.StartTime == "" {
			rec.Start = nil
		} else {
			c, err := tracking.ParseClock(*req.StartTime)
			if err != nil {
				return err
			}
			rec.Start = &c
		}
	}
	if req.EndTime != nil {
		if *req.EndTime == "" {
			rec.End = nil
		} else {
			c, err := tracking.ParseClock(*req.EndTime)
			if err != nil {
				return err
			}
			rec.End = &c
		}
	}
	if req.BreakMinutes != nil {
		rec.BreakMinutes = *req.BreakMinutes
	}
	if req.Absence != nil {
		if !tracking.ValidAbsence(*req.Absence) {
			return fmt.Errorf("unknown absence category %q", *req.Absence)
		}
		rec.Absence = tracking.Absence(*req.Absence)
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}
	if req.Status != nil {
		if !tracking.ValidStatus(*req.Status) {
			return fmt.Errorf("unknown status %q", *req.Status)
		}
		rec.Status = tracking.RecordStatus(*req.Status)
	}

	// The calculation engine assumes these hold; enforce them here.
	if (rec.Start == nil) != (rec.End == nil) {
		return fmt.Errorf("start and end time must both be set or both be empty")
	}
	if rec.Start != nil && *rec.End <= *rec.Start {
		return fmt.Errorf("end time must be after start time")
	}
	if rec.BreakMinutes < 0 {
		return fmt.Errorf("break minutes must not be negative")
	}
	return nil
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the user's account settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.Settings(r.Context(), userID(r))
	if err != nil {
		h.storeError(w, err, "Failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// UpdateTrackingSettings updates weekly target, epoch, and initial offset.
func (h *Handler) UpdateTrackingSettings(w http.ResponseWriter, r *http.Request) {
	var req TrackingSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settings, err := h.settingsOrNew(r)
	if err != nil {
		h.serverError(w, "Failed to load settings", err)
		return
	}

	if req.WeeklyTargetHours != nil {
		weekly, err := decimal.NewFromString(*req.WeeklyTargetHours)
		if err != nil || weekly.IsNegative() {
			writeError(w, http.StatusBadRequest, "Invalid weekly_target_hours", err)
			return
		}
		settings.WeeklyTargetHours = weekly
	}
	if settings.WeeklyTargetHours.IsZero() {
		writeError(w, http.StatusBadRequest, "weekly_target_hours is required", nil)
		return
	}
	if req.TrackingStart != nil {
		d, err := parseDatePatch(*req.TrackingStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid tracking_start", err)
			return
		}
		settings.TrackingStart = d
	}
	if req.InitialHoursOffset != nil {
		d, err := parseDecimalPatch(*req.InitialHoursOffset)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid initial_hours_offset", err)
			return
		}
		settings.InitialHoursOffset = d
	}

	saved, err := h.Store.SaveSettings(r.Context(), settings)
	if err != nil {
		h.serverError(w, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(saved))
}

// UpdateVacationSettings updates the vacation entitlement configuration.
func (h *Handler) UpdateVacationSettings(w http.ResponseWriter, r *http.Request) {
	var req VacationSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settings, err := h.settingsOrNew(r)
	if err != nil {
		h.serverError(w, "Failed to load settings", err)
		return
	}

	fields := []struct {
		name  string
		value *string
		dest  **decimal.Decimal
	}{
		{"initial_vacation_days", req.InitialVacationDays, &settings.InitialVacationDays},
		{"annual_vacation_days", req.AnnualVacationDays, &settings.AnnualVacationDays},
		{"vacation_carryover_days", req.VacationCarryoverDays, &settings.VacationCarryoverDays},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		d, err := parseDecimalPatch(*f.value)
		if err != nil || (d != nil && d.IsNegative()) {
			writeError(w, http.StatusBadRequest, "Invalid "+f.name, err)
			return
		}
		*f.dest = d
	}
	if req.VacationCarryoverExpires != nil {
		d, err := parseDatePatch(*req.VacationCarryoverExpires)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid vacation_carryover_expires", err)
			return
		}
		settings.VacationCarryoverExpires = d
	}

	saved, err := h.Store.SaveSettings(r.Context(), settings)
	if err != nil {
		h.serverError(w, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(saved))
}

// UpdateWeekdayDefaults replaces the per-weekday default schedule. The
// defaults pre-fill the entry form only; they never affect target hours.
func (h *Handler) UpdateWeekdayDefaults(w http.ResponseWriter, r *http.Request) {
	var req WeekdayDefaultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Days) != 7 {
		writeError(w, http.StatusBadRequest, "days must have exactly 7 entries (Monday first)", nil)
		return
	}

	var week tracking.WeekSchedule
	for i, slot := range req.Days {
		if slot == nil {
			continue
		}
		start, err := tracking.ParseClock(slot.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_time", err)
			return
		}
		end, err := tracking.ParseClock(slot.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_time", err)
			return
		}
		if end <= start || slot.BreakMinutes < 0 {
			writeError(w, http.StatusBadRequest, "Invalid schedule slot", nil)
			return
		}
		week[i] = &tracking.DaySlot{Start: start, End: end, BreakMinutes: slot.BreakMinutes}
	}

	settings, err := h.settingsOrNew(r)
	if err != nil {
		h.serverError(w, "Failed to load settings", err)
		return
	}
	settings.WeekdayDefaults = &week

	saved, err := h.Store.SaveSettings(r.Context(), settings)
	if err != nil {
		h.serverError(w, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(saved))
}

// settingsOrNew loads settings or starts a fresh row for the user.
func (h *Handler) settingsOrNew(r *http.Request) (tracking.AccountSettings, error) {
	settings, err := h.Store.Settings(r.Context(), userID(r))
	if errors.Is(err, tracking.ErrSettingsNotFound) {
		return tracking.AccountSettings{UserID: userID(r)}, nil
	}
	return settings, err
}

// =============================================================================
// SUMMARY & BALANCE HANDLERS
// =============================================================================

// GetWeekSummary returns the week summary for the week containing ?date=
// (any weekday; snapped to Monday). Defaults to the current week.
func (h *Handler) GetWeekSummary(w http.ResponseWriter, r *http.Request) {
	day := tracking.Today()
	if s := r.URL.Query().Get("date"); s != "" {
		var err error
		if day, err = tracking.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
	}
	monday := tracking.MondayOf(day)

	settings, err := h.Store.Settings(r.Context(), userID(r))
	if err != nil {
		h.storeError(w, err, "Failed to load settings")
		return
	}
	records, err := h.Store.RecordsInRange(r.Context(), userID(r), monday, monday.AddDays(6))
	if err != nil {
		h.serverError(w, "Failed to load records", err)
		return
	}

	week := tracking.WeekSummaryFor(records, settings, monday)
	writeJSON(w, http.StatusOK, toWeekSummaryDTO(week))
}

// GetMonthSummary returns the month summary for ?year=&month=.
// The full history is loaded because the carryover-in is replayed from
// everything before the month.
func (h *Handler) GetMonthSummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year := intParam(r, "year", now.Year())
	month := intParam(r, "month", int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1..12", nil)
		return
	}

	settings, err := h.Store.Settings(r.Context(), userID(r))
	if err != nil {
		h.storeError(w, err, "Failed to load settings")
		return
	}
	records, err := h.Store.AllRecords(r.Context(), userID(r))
	if err != nil {
		h.serverError(w, "Failed to load records", err)
		return
	}

	summary := tracking.MonthSummaryFor(records, settings, year, time.Month(month))
	writeJSON(w, http.StatusOK, toMonthSummaryDTO(summary))
}

// GetBalance returns the all-time flex balance, optionally as of ?as_of=.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	var cutoff *tracking.Date
	if s := r.URL.Query().Get("as_of"); s != "" {
		d, err := tracking.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of", err)
			return
		}
		cutoff = &d
	}

	settings, err := h.Store.Settings(r.Context(), userID(r))
	if err != nil {
		h.storeError(w, err, "Failed to load settings")
		return
	}
	records, err := h.Store.AllRecords(r.Context(), userID(r))
	if err != nil {
		h.serverError(w, "Failed to load records", err)
		return
	}

	balance := tracking.AllTimeBalance(records, settings, cutoff)
	dto := BalanceDTO{Balance: balance.StringFixed(2)}
	if cutoff != nil {
		s := cutoff.String()
		dto.AsOf = &s
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetVacation returns the vacation balance and any expiry warning as of
// ?as_of= (default today).
func (h *Handler) GetVacation(w http.ResponseWriter, r *http.Request) {
	asOf := tracking.Today()
	if s := r.URL.Query().Get("as_of"); s != "" {
		var err error
		if asOf, err = tracking.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of", err)
			return
		}
	}

	settings, err := h.Store.Settings(r.Context(), userID(r))
	if err != nil {
		h.storeError(w, err, "Failed to load settings")
		return
	}
	records, err := h.Store.AllRecords(r.Context(), userID(r))
	if err != nil {
		h.serverError(w, "Failed to load records", err)
		return
	}

	balance := tracking.VacationBalanceAsOf(records, settings, asOf)
	dto := VacationBalanceDTO{
		AsOf:             asOf.String(),
		TotalEntitlement: balance.TotalEntitlement.String(),
		DaysUsed:         balance.DaysUsed.String(),
		DaysRemaining:    balance.DaysRemaining.String(),
		CarryoverDays:    balance.CarryoverDays.String(),
		CarryoverExpires: dateString(balance.CarryoverExpires),
	}
	if warning := tracking.ExpiryWarning(balance, asOf); warning != nil {
		dto.Warning = &VacationWarningDTO{
			Severity:     string(warning.Severity),
			Message:      warning.Message,
			DaysExpiring: warning.DaysExpiring.String(),
			ExpiryDate:   warning.ExpiryDate.String(),
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListHolidays returns the nationwide public holidays for ?year=.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := intParam(r, "year", time.Now().Year())

	table := tracking.HolidaysForYear(year)
	dtos := make([]HolidayDTO, 0, len(table))
	for date, name := range table {
		dtos = append(dtos, HolidayDTO{Date: date.String(), Name: name})
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Date < dtos[j].Date })

	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CSV TRANSFER HANDLERS
// =============================================================================

// ExportCSV streams records as German-Excel CSV. With from/to both set the
// export is restricted to that range; with neither, all records go out.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var (
		records []tracking.TimeRecord
		err     error
	)
	fromStr, toStr := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if fromStr != "" || toStr != "" {
		from, to, perr := parseRange(fromStr, toStr)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid date range", perr)
			return
		}
		records, err = h.Store.RecordsInRange(r.Context(), uid, from, to)
	} else {
		records, err = h.Store.AllRecords(r.Context(), uid)
	}
	if err != nil {
		h.serverError(w, "Failed to load records", err)
		return
	}

	data, err := transfer.Export(records)
	if err != nil {
		h.serverError(w, "Failed to build CSV", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="zeiterfassung.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportCSV parses an uploaded CSV and inserts its rows. Rows whose date
// already has a record are skipped, not overwritten; structurally bad rows
// are reported with their line numbers.
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 5<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload", err)
		return
	}

	parsed, err := transfer.Import(body, userID(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unreadable CSV", err)
		return
	}

	result := ImportResultDTO{}
	for _, rowErr := range parsed.Errors {
		result.Errors = append(result.Errors, ImportErrorDTO{Line: rowErr.Line, Message: rowErr.Message})
	}
	for _, rec := range parsed.Records {
		_, err := h.Store.CreateRecord(r.Context(), rec)
		switch {
		case err == nil:
			result.Imported++
		case tracking.IsConflict(err):
			result.Skipped++
		default:
			h.serverError(w, "Failed to import records", err)
			return
		}
	}

	h.Log.WithFields(logrus.Fields{
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"rejected": len(result.Errors),
	}).Info("CSV import finished")

	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// HELPERS
// =============================================================================

// userID selects the acting user, defaulting to 1.
func userID(r *http.Request) int64 {
	if s := r.URL.Query().Get("user"); s != "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return 1
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func intParam(r *http.Request, name string, defaultVal int) int {
	if s := r.URL.Query().Get(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return defaultVal
}

func parseRange(fromStr, toStr string) (tracking.Date, tracking.Date, error) {
	if fromStr == "" || toStr == "" {
		return tracking.Date{}, tracking.Date{}, fmt.Errorf("from and to must both be set")
	}
	from, err := tracking.ParseDate(fromStr)
	if err != nil {
		return tracking.Date{}, tracking.Date{}, err
	}
	to, err := tracking.ParseDate(toStr)
	if err != nil {
		return tracking.Date{}, tracking.Date{}, err
	}
	if to.Before(from) {
		return tracking.Date{}, tracking.Date{}, fmt.Errorf("to must not be before from")
	}
	return from, to, nil
}

// parseDatePatch: empty string clears the optional date.
func parseDatePatch(s string) (*tracking.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := tracking.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseDecimalPatch: empty string clears the optional decimal.
func parseDecimalPatch(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (h *Handler) storeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case tracking.IsNotFound(err):
		writeError(w, http.StatusNotFound, msg, err)
	case tracking.IsConflict(err):
		writeError(w, http.StatusConflict, msg, err)
	default:
		h.serverError(w, msg, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.Log.WithError(err).Error(msg)
	writeError(w, http.StatusInternalServerError, msg, err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}
