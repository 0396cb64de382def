package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verk/timetrack/api"
	"github.com/verk/timetrack/tracking/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	return api.NewRouter(api.NewHandler(store.NewMemory(), log), nil, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if out != nil && rr.Code < 300 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
	}
	return rr
}

func configureTracking(t *testing.T, h http.Handler) {
	t.Helper()
	rr := doJSON(t, h, http.MethodPatch, "/api/settings/tracking",
		`{"weekly_target_hours":"32","tracking_start":"2026-01-01","initial_hours_offset":"3.50"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func createRecord(t *testing.T, h http.Handler, body string) api.RecordDTO {
	t.Helper()
	var rec api.RecordDTO
	rr := doJSON(t, h, http.MethodPost, "/api/records", body, &rec)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return rec
}

// =============================================================================
// RECORDS
// =============================================================================

func TestRecords_CreateAndDuplicate(t *testing.T) {
	h := newTestServer(t)

	rec := createRecord(t, h, `{"date":"2026-01-06","start_time":"07:00","end_time":"17:00","break_minutes":60}`)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, "2026-01-06", rec.Date)
	assert.Equal(t, "none", rec.Absence)
	assert.Equal(t, "draft", rec.Status)

	rr := doJSON(t, h, http.MethodPost, "/api/records", `{"date":"2026-01-06"}`, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRecords_StructuralValidation(t *testing.T) {
	h := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing date", `{"start_time":"07:00","end_time":"17:00"}`},
		{"unpaired times", `{"date":"2026-01-06","start_time":"07:00"}`},
		{"end before start", `{"date":"2026-01-06","start_time":"17:00","end_time":"07:00"}`},
		{"negative break", `{"date":"2026-01-06","break_minutes":-5}`},
		{"unknown absence", `{"date":"2026-01-06","absence":"sabbatical"}`},
		{"unknown status", `{"date":"2026-01-06","status":"approved"}`},
	}
	for _, tc := range cases {
		rr := doJSON(t, h, http.MethodPost, "/api/records", tc.body, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, tc.name)
	}
}

func TestRecords_PartialUpdate(t *testing.T) {
	// GIVEN: A record with clock times
	// WHEN: Patching only the notes, then clearing the times with ""
	// THEN: Untouched fields survive; explicit empties clear

	h := newTestServer(t)
	rec := createRecord(t, h, `{"date":"2026-01-06","start_time":"07:00","end_time":"17:00","break_minutes":60}`)
	id := rec.ID

	var updated api.RecordDTO
	rr := doJSON(t, h, http.MethodPatch, recordPath(id), `{"notes":"Onsite"}`, &updated)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Onsite", updated.Notes)
	require.NotNil(t, updated.StartTime)
	assert.Equal(t, "07:00", *updated.StartTime)

	updated = api.RecordDTO{}
	rr = doJSON(t, h, http.MethodPatch, recordPath(id),
		`{"start_time":"","end_time":"","absence":"sick"}`, &updated)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, updated.StartTime)
	assert.Equal(t, "sick", updated.Absence)
}

func TestRecords_GetDeleteNotFound(t *testing.T) {
	h := newTestServer(t)
	rec := createRecord(t, h, `{"date":"2026-01-06"}`)

	rr := doJSON(t, h, http.MethodGet, recordPath(rec.ID), "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, recordPath(rec.ID), "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodGet, recordPath(rec.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecords_ListByRange(t *testing.T) {
	h := newTestServer(t)
	createRecord(t, h, `{"date":"2026-01-05"}`)
	createRecord(t, h, `{"date":"2026-01-06"}`)
	createRecord(t, h, `{"date":"2026-02-02"}`)

	var list []api.RecordDTO
	rr := doJSON(t, h, http.MethodGet, "/api/records?from=2026-01-01&to=2026-01-31", "", &list)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, list, 2)

	rr = doJSON(t, h, http.MethodGet, "/api/records?from=2026-01-01", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "half-open ranges are rejected")
}

func recordPath(id int64) string {
	return "/api/records/" + strconv.FormatInt(id, 10)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettings_LifecycleAndValidation(t *testing.T) {
	h := newTestServer(t)

	rr := doJSON(t, h, http.MethodGet, "/api/settings", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code, "no settings row yet")

	rr = doJSON(t, h, http.MethodPatch, "/api/settings/tracking", `{"tracking_start":"2026-01-01"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "weekly target is required on first save")

	configureTracking(t, h)

	var settings api.SettingsDTO
	rr = doJSON(t, h, http.MethodGet, "/api/settings", "", &settings)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "32.00", settings.WeeklyTargetHours)
	require.NotNil(t, settings.TrackingStart)
	assert.Equal(t, "2026-01-01", *settings.TrackingStart)
	require.NotNil(t, settings.InitialHoursOffset)
	assert.Equal(t, "3.50", *settings.InitialHoursOffset)
}

func TestSettings_VacationPatch(t *testing.T) {
	h := newTestServer(t)
	configureTracking(t, h)

	var settings api.SettingsDTO
	rr := doJSON(t, h, http.MethodPatch, "/api/settings/vacation",
		`{"initial_vacation_days":"25","annual_vacation_days":"30","vacation_carryover_days":"5","vacation_carryover_expires":"2026-03-31"}`,
		&settings)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, settings.VacationCarryoverDays)
	assert.Equal(t, "5", *settings.VacationCarryoverDays)

	rr = doJSON(t, h, http.MethodPatch, "/api/settings/vacation", `{"annual_vacation_days":"-1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSettings_WeekdayDefaults(t *testing.T) {
	h := newTestServer(t)
	configureTracking(t, h)

	var settings api.SettingsDTO
	rr := doJSON(t, h, http.MethodPut, "/api/settings/weekday-defaults",
		`{"days":[{"start_time":"08:00","end_time":"16:30","break_minutes":30},null,null,null,{"start_time":"08:00","end_time":"12:00","break_minutes":0},null,null]}`,
		&settings)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, settings.WeekdayDefaults, 7)
	require.NotNil(t, settings.WeekdayDefaults[0])
	assert.Equal(t, "08:00", settings.WeekdayDefaults[0].StartTime)
	assert.Nil(t, settings.WeekdayDefaults[1])

	rr = doJSON(t, h, http.MethodPut, "/api/settings/weekday-defaults", `{"days":[null,null]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "exactly 7 slots required")
}

// =============================================================================
// SUMMARIES, BALANCE, VACATION
// =============================================================================

func TestSummaryWeek(t *testing.T) {
	// GIVEN: 32h target and one 9.00h Tuesday in the week of Jan 5
	// WHEN: Querying the week via a Thursday anchor
	// THEN: Week snaps to Monday; totals include the missing-day deficits

	h := newTestServer(t)
	configureTracking(t, h)
	createRecord(t, h, `{"date":"2026-01-06","start_time":"07:00","end_time":"17:00","break_minutes":60}`)

	var week api.WeekSummaryDTO
	rr := doJSON(t, h, http.MethodGet, "/api/summary/week?date=2026-01-08", "", &week)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "2026-01-05", week.WeekStart)
	assert.Equal(t, "2026-01-11", week.WeekEnd)
	require.Len(t, week.Days, 7)
	assert.Equal(t, "9.00", week.TotalActual)
	assert.Equal(t, "32.00", week.TotalTarget)
	assert.Equal(t, "-23.00", week.TotalBalance) // +2.60 Tue, -6.40 x 4 missing weekdays
}

func TestSummaryMonth_CarryoverIdentity(t *testing.T) {
	h := newTestServer(t)
	configureTracking(t, h)
	createRecord(t, h, `{"date":"2026-01-06","start_time":"07:00","end_time":"17:00","break_minutes":60}`)

	var month api.MonthSummaryDTO
	rr := doJSON(t, h, http.MethodGet, "/api/summary/month?year=2026&month=1", "", &month)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, 2026, month.Year)
	assert.Equal(t, 1, month.Month)
	assert.Equal(t, "3.50", month.CarryoverIn, "epoch month starts with the initial offset")

	in, _ := decimal.NewFromString(month.CarryoverIn)
	period, _ := decimal.NewFromString(month.PeriodBalance)
	out, _ := decimal.NewFromString(month.CarryoverOut)
	assert.True(t, out.Equal(in.Add(period)))
}

func TestSummaryMonth_RejectsBadMonth(t *testing.T) {
	h := newTestServer(t)
	configureTracking(t, h)

	rr := doJSON(t, h, http.MethodGet, "/api/summary/month?year=2026&month=13", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBalance_WithCutoff(t *testing.T) {
	h := newTestServer(t)
	configureTracking(t, h)
	createRecord(t, h, `{"date":"2026-01-06","start_time":"07:00","end_time":"17:00","break_minutes":60}`) // +2.60

	var balance api.BalanceDTO
	rr := doJSON(t, h, http.MethodGet, "/api/balance?as_of=2026-01-31", "", &balance)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "6.10", balance.Balance) // 3.50 offset + 2.60
	require.NotNil(t, balance.AsOf)
	assert.Equal(t, "2026-01-31", *balance.AsOf)
}

func TestVacation_BalanceAndWarning(t *testing.T) {
	h := newTestServer(t)
	configureTracking(t, h)
	doJSON(t, h, http.MethodPatch, "/api/settings/vacation",
		`{"initial_vacation_days":"25","vacation_carryover_days":"5","vacation_carryover_expires":"2026-03-31"}`, nil)
	createRecord(t, h, `{"date":"2026-01-06","absence":"vacation"}`)

	var vacation api.VacationBalanceDTO
	rr := doJSON(t, h, http.MethodGet, "/api/vacation?as_of=2026-03-28", "", &vacation)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "30", vacation.TotalEntitlement) // 25 initial + 5 carryover
	assert.Equal(t, "1", vacation.DaysUsed)
	assert.Equal(t, "29", vacation.DaysRemaining)

	require.NotNil(t, vacation.Warning, "3 days before expiry must warn")
	assert.Equal(t, "critical", vacation.Warning.Severity)
}

func TestHolidays_SortedList(t *testing.T) {
	h := newTestServer(t)

	var holidays []api.HolidayDTO
	rr := doJSON(t, h, http.MethodGet, "/api/holidays?year=2026", "", &holidays)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, holidays, 9)
	assert.Equal(t, api.HolidayDTO{Date: "2026-01-01", Name: "Neujahr"}, holidays[0])
	assert.Equal(t, api.HolidayDTO{Date: "2026-12-26", Name: "2. Weihnachtstag"}, holidays[8])
	for i := 1; i < len(holidays); i++ {
		assert.Less(t, holidays[i-1].Date, holidays[i].Date)
	}
}

// =============================================================================
// CSV TRANSFER
// =============================================================================

func TestExportCSV(t *testing.T) {
	h := newTestServer(t)
	createRecord(t, h, `{"date":"2026-01-06","start_time":"07:00","end_time":"17:00","break_minutes":60}`)

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte{0xef, 0xbb, 0xbf}))
	assert.Contains(t, rr.Body.String(), "2026-01-06;07:00;17:00;60")
}

func TestImportCSV_SkipsExistingDays(t *testing.T) {
	// GIVEN: January 6 already has a record
	// WHEN: Importing a file with January 6 and January 7
	// THEN: One imported, one skipped, existing data untouched

	h := newTestServer(t)
	createRecord(t, h, `{"date":"2026-01-06","start_time":"07:00","end_time":"17:00","break_minutes":60}`)

	csv := "Datum;Startzeit;Endzeit;Pause (Min);Abwesenheit;Notizen\n" +
		"2026-01-06;08:00;12:00;0;Keine;\n" +
		"2026-01-07;;;0;Urlaub;\n" +
		"kaputt;;;0;Keine;\n"

	var result api.ImportResultDTO
	rr := doJSON(t, h, http.MethodPost, "/api/import", csv, &result)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Errors[0].Line)

	var existing []api.RecordDTO
	doJSON(t, h, http.MethodGet, "/api/records?from=2026-01-06&to=2026-01-06", "", &existing)
	require.Len(t, existing, 1)
	require.NotNil(t, existing[0].StartTime)
	assert.Equal(t, "07:00", *existing[0].StartTime, "existing record must not be overwritten")
}

// =============================================================================
// MISC
// =============================================================================

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	var body map[string]string
	rr := doJSON(t, h, http.MethodGet, "/api/health", "", &body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestUserIsolation(t *testing.T) {
	// Records created for user 2 are invisible to the default user.
	h := newTestServer(t)

	rr := doJSON(t, h, http.MethodPost, "/api/records?user=2", `{"date":"2026-01-06"}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	var mine []api.RecordDTO
	doJSON(t, h, http.MethodGet, "/api/records", "", &mine)
	assert.Empty(t, mine)

	var theirs []api.RecordDTO
	doJSON(t, h, http.MethodGet, "/api/records?user=2", "", &theirs)
	assert.Len(t, theirs, 1)
}
