package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verk/timetrack/tracking"
	"github.com/verk/timetrack/tracking/store"
)

func record(userID int64, y int, m time.Month, d int) tracking.TimeRecord {
	return tracking.TimeRecord{
		UserID:  userID,
		Date:    tracking.NewDate(y, m, d),
		Absence: tracking.AbsenceNone,
		Status:  tracking.StatusDraft,
	}
}

// =============================================================================
// RECORD CRUD
// =============================================================================

func TestMemory_CreateAssignsIDAndTimestamps(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	saved, err := m.CreateRecord(ctx, record(1, 2026, time.January, 5))
	require.NoError(t, err)

	assert.NotZero(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Equal(t, saved.CreatedAt, saved.UpdatedAt)
}

func TestMemory_OneRecordPerDay(t *testing.T) {
	// GIVEN: A record on January 5
	// WHEN: Creating a second record for the same user and day
	// THEN: Rejected with the duplicate-date conflict

	m := store.NewMemory()
	ctx := context.Background()

	_, err := m.CreateRecord(ctx, record(1, 2026, time.January, 5))
	require.NoError(t, err)

	_, err = m.CreateRecord(ctx, record(1, 2026, time.January, 5))
	require.Error(t, err)
	assert.True(t, tracking.IsConflict(err))

	var dup *tracking.DuplicateDateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, tracking.NewDate(2026, time.January, 5), dup.Date)

	// A different user may use the same day.
	_, err = m.CreateRecord(ctx, record(2, 2026, time.January, 5))
	assert.NoError(t, err)
}

func TestMemory_UpdateMovesDate(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	saved, err := m.CreateRecord(ctx, record(1, 2026, time.January, 5))
	require.NoError(t, err)

	saved.Date = tracking.NewDate(2026, time.January, 7)
	updated, err := m.UpdateRecord(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, tracking.NewDate(2026, time.January, 7), updated.Date)

	// The old day is free again.
	_, err = m.CreateRecord(ctx, record(1, 2026, time.January, 5))
	assert.NoError(t, err)
}

func TestMemory_UpdateOntoTakenDate_Conflict(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	_, err := m.CreateRecord(ctx, record(1, 2026, time.January, 5))
	require.NoError(t, err)
	second, err := m.CreateRecord(ctx, record(1, 2026, time.January, 6))
	require.NoError(t, err)

	second.Date = tracking.NewDate(2026, time.January, 5)
	_, err = m.UpdateRecord(ctx, second)
	assert.True(t, tracking.IsConflict(err))
}

func TestMemory_UpdateKeepsOwnDate(t *testing.T) {
	// Updating a record without moving it must not trip the duplicate check.
	m := store.NewMemory()
	ctx := context.Background()

	saved, err := m.CreateRecord(ctx, record(1, 2026, time.January, 5))
	require.NoError(t, err)

	saved.Notes = "edited"
	updated, err := m.UpdateRecord(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Notes)
}

func TestMemory_DeleteAndNotFound(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	saved, err := m.CreateRecord(ctx, record(1, 2026, time.January, 5))
	require.NoError(t, err)

	require.NoError(t, m.DeleteRecord(ctx, 1, saved.ID))

	_, err = m.RecordByID(ctx, 1, saved.ID)
	assert.True(t, tracking.IsNotFound(err))
	assert.True(t, tracking.IsNotFound(m.DeleteRecord(ctx, 1, saved.ID)))
}

// =============================================================================
// QUERIES
// =============================================================================

func TestMemory_RecordsInRange_InclusiveAndSorted(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	// Inserted out of order on purpose.
	for _, d := range []int{7, 5, 9, 12} {
		_, err := m.CreateRecord(ctx, record(1, 2026, time.January, d))
		require.NoError(t, err)
	}

	got, err := m.RecordsInRange(ctx, 1, tracking.NewDate(2026, time.January, 5), tracking.NewDate(2026, time.January, 9))
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, tracking.NewDate(2026, time.January, 5), got[0].Date)
	assert.Equal(t, tracking.NewDate(2026, time.January, 7), got[1].Date)
	assert.Equal(t, tracking.NewDate(2026, time.January, 9), got[2].Date)
}

func TestMemory_RecordOnDate(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	_, err := m.CreateRecord(ctx, record(1, 2026, time.January, 5))
	require.NoError(t, err)

	got, err := m.RecordOnDate(ctx, 1, tracking.NewDate(2026, time.January, 5))
	require.NoError(t, err)
	assert.Equal(t, tracking.NewDate(2026, time.January, 5), got.Date)

	_, err = m.RecordOnDate(ctx, 1, tracking.NewDate(2026, time.January, 6))
	assert.True(t, tracking.IsNotFound(err))
}

func TestMemory_AllRecordsReturnsCopy(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	_, err := m.CreateRecord(ctx, record(1, 2026, time.January, 5))
	require.NoError(t, err)

	first, err := m.AllRecords(ctx, 1)
	require.NoError(t, err)
	first[0].Notes = "mutated by caller"

	second, err := m.AllRecords(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, second[0].Notes, "store contents must not be aliased")
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestMemory_SettingsRoundTrip(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	_, err := m.Settings(ctx, 1)
	assert.True(t, tracking.IsNotFound(err))

	in := tracking.AccountSettings{UserID: 1, WeeklyTargetHours: tracking.MustParseDecimal("38.5")}
	saved, err := m.SaveSettings(ctx, in)
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := m.Settings(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.WeeklyTargetHours.Equal(tracking.MustParseDecimal("38.5")))

	// Saving again keeps CreatedAt.
	got.WeeklyTargetHours = tracking.MustParseDecimal("40")
	resaved, err := m.SaveSettings(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, saved.CreatedAt, resaved.CreatedAt)
}
