package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verk/timetrack/store/sqlite"
	"github.com/verk/timetrack/tracking"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func workRecord(userID int64, y int, m time.Month, d int, start, end string) tracking.TimeRecord {
	rec := tracking.TimeRecord{
		UserID:  userID,
		Date:    tracking.NewDate(y, m, d),
		Absence: tracking.AbsenceNone,
		Status:  tracking.StatusDraft,
	}
	if start != "" {
		st, _ := tracking.ParseClock(start)
		en, _ := tracking.ParseClock(end)
		rec.Start, rec.End = &st, &en
	}
	return rec
}

// =============================================================================
// RECORD PERSISTENCE
// =============================================================================

func TestSQLite_RecordRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := workRecord(1, 2026, time.January, 6, "07:30", "16:45")
	in.BreakMinutes = 45
	in.Notes = "Kundentermin"

	saved, err := s.CreateRecord(ctx, in)
	require.NoError(t, err)
	require.NotZero(t, saved.ID)

	got, err := s.RecordByID(ctx, 1, saved.ID)
	require.NoError(t, err)

	assert.Equal(t, tracking.NewDate(2026, time.January, 6), got.Date)
	require.True(t, got.HasTimes())
	assert.Equal(t, "07:30", got.Start.String())
	assert.Equal(t, "16:45", got.End.String())
	assert.Equal(t, 45, got.BreakMinutes)
	assert.Equal(t, "Kundentermin", got.Notes)
	assert.Equal(t, tracking.StatusDraft, got.Status)
}

func TestSQLite_NullTimesSurviveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := workRecord(1, 2026, time.January, 6, "", "")
	in.Absence = tracking.AbsenceVacation

	saved, err := s.CreateRecord(ctx, in)
	require.NoError(t, err)

	got, err := s.RecordByID(ctx, 1, saved.ID)
	require.NoError(t, err)
	assert.False(t, got.HasTimes())
	assert.Equal(t, tracking.AbsenceVacation, got.Absence)
}

func TestSQLite_OneRecordPerDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateRecord(ctx, workRecord(1, 2026, time.January, 6, "", ""))
	require.NoError(t, err)

	_, err = s.CreateRecord(ctx, workRecord(1, 2026, time.January, 6, "08:00", "17:00"))
	require.Error(t, err)
	assert.True(t, tracking.IsConflict(err))

	// Other users are unaffected.
	_, err = s.CreateRecord(ctx, workRecord(2, 2026, time.January, 6, "", ""))
	assert.NoError(t, err)
}

func TestSQLite_UpdateMoveAndConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateRecord(ctx, workRecord(1, 2026, time.January, 5, "", ""))
	require.NoError(t, err)
	second, err := s.CreateRecord(ctx, workRecord(1, 2026, time.January, 6, "", ""))
	require.NoError(t, err)

	// Updating in place (same date) is fine.
	second.Notes = "edited"
	updated, err := s.UpdateRecord(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Notes)

	// Moving onto an occupied day is a conflict.
	second.Date = first.Date
	_, err = s.UpdateRecord(ctx, second)
	assert.True(t, tracking.IsConflict(err))

	// Updating a missing record reports not-found.
	ghost := workRecord(1, 2026, time.March, 1, "", "")
	ghost.ID = 9999
	_, err = s.UpdateRecord(ctx, ghost)
	assert.True(t, tracking.IsNotFound(err))
}

func TestSQLite_RangeQueriesOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, d := range []int{9, 5, 7} {
		_, err := s.CreateRecord(ctx, workRecord(1, 2026, time.January, d, "", ""))
		require.NoError(t, err)
	}

	got, err := s.RecordsInRange(ctx, 1, tracking.NewDate(2026, time.January, 5), tracking.NewDate(2026, time.January, 7))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, tracking.NewDate(2026, time.January, 5), got[0].Date)
	assert.Equal(t, tracking.NewDate(2026, time.January, 7), got[1].Date)

	all, err := s.AllRecords(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLite_DeleteScopedToUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.CreateRecord(ctx, workRecord(1, 2026, time.January, 6, "", ""))
	require.NoError(t, err)

	assert.True(t, tracking.IsNotFound(s.DeleteRecord(ctx, 2, saved.ID)), "wrong user must not delete")
	require.NoError(t, s.DeleteRecord(ctx, 1, saved.ID))
}

// =============================================================================
// SETTINGS PERSISTENCE
// =============================================================================

func TestSQLite_SettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Settings(ctx, 1)
	assert.True(t, tracking.IsNotFound(err))

	epoch := tracking.NewDate(2026, time.January, 1)
	offset := tracking.MustParseDecimal("-3.25")
	annual := tracking.MustParseDecimal("30")
	slot := &tracking.DaySlot{
		Start:        tracking.NewClockTime(8, 0),
		End:          tracking.NewClockTime(16, 30),
		BreakMinutes: 30,
	}
	var week tracking.WeekSchedule
	week[0] = slot

	in := tracking.AccountSettings{
		UserID:             1,
		WeeklyTargetHours:  tracking.MustParseDecimal("38.5"),
		TrackingStart:      &epoch,
		InitialHoursOffset: &offset,
		AnnualVacationDays: &annual,
		WeekdayDefaults:    &week,
	}
	_, err = s.SaveSettings(ctx, in)
	require.NoError(t, err)

	got, err := s.Settings(ctx, 1)
	require.NoError(t, err)

	assert.True(t, got.WeeklyTargetHours.Equal(in.WeeklyTargetHours))
	require.NotNil(t, got.TrackingStart)
	assert.Equal(t, epoch, *got.TrackingStart)
	require.NotNil(t, got.InitialHoursOffset)
	assert.True(t, got.InitialHoursOffset.Equal(offset))
	assert.Nil(t, got.InitialVacationDays, "unset fields stay nil")

	require.NotNil(t, got.WeekdayDefaults)
	require.NotNil(t, got.WeekdayDefaults[0])
	assert.Equal(t, "08:00", got.WeekdayDefaults[0].Start.String())
	assert.Equal(t, 30, got.WeekdayDefaults[0].BreakMinutes)
	assert.Nil(t, got.WeekdayDefaults[1])
}

func TestSQLite_SettingsUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := tracking.AccountSettings{UserID: 1, WeeklyTargetHours: tracking.MustParseDecimal("40")}
	saved, err := s.SaveSettings(ctx, in)
	require.NoError(t, err)

	saved.WeeklyTargetHours = tracking.MustParseDecimal("32")
	_, err = s.SaveSettings(ctx, saved)
	require.NoError(t, err)

	got, err := s.Settings(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.WeeklyTargetHours.Equal(tracking.MustParseDecimal("32")))
}
