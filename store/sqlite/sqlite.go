/*
Package sqlite provides the SQLite-backed implementation of tracking.Store.

PURPOSE:
  Persists time records and account settings. The calculation engine never
  sees this package: callers load snapshots here and hand them to the pure
  functions in the tracking package.

KEY TABLES:
  time_records:     One row per (user, work day)
  account_settings: One row per user

INVARIANTS:
  UNIQUE(user_id, work_date) backs the one-record-per-day rule; writes
  also pre-check it to return tracking.DuplicateDateError instead of a
  raw constraint failure.

REPRESENTATION:
  Dates as YYYY-MM-DD text, clock times as HH:MM text, decimals as text
  (never floats - the whole point of the engine is fixed-point math).

WAL MODE:
  Opened with WAL for better read concurrency; a sync.RWMutex serializes
  writes on top, which is plenty for a single-team internal tool.

DERIVED DATA:
  Summaries and balances are never stored here. They are recomputed from
  the record history on every query.

SEE ALSO:
  - tracking/store.go: Interface definitions
  - tracking/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/verk/timetrack/tracking"
)

// Store implements tracking.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ tracking.Store = (*Store)(nil)

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS time_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		work_date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		absence TEXT NOT NULL DEFAULT 'none',
		notes TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One record per (user, day). The editing layer relies on this.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_user_date
		ON time_records(user_id, work_date);

	CREATE TABLE IF NOT EXISTS account_settings (
		user_id INTEGER PRIMARY KEY,
		weekly_target_hours TEXT NOT NULL,
		tracking_start TEXT,
		initial_hours_offset TEXT,
		initial_vacation_days TEXT,
		annual_vacation_days TEXT,
		vacation_carryover_days TEXT,
		vacation_carryover_expires TEXT,
		weekday_defaults_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE
// =============================================================================

const recordColumns = `id, user_id, work_date, start_time, end_time,
	break_minutes, absence, notes, status, created_at, updated_at`

func (s *Store) CreateRecord(ctx context.Context, rec tracking.TimeRecord) (tracking.TimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken, err := s.dateTaken(ctx, rec.UserID, rec.Date, 0)
	if err != nil {
		return tracking.TimeRecord{}, err
	}
	if taken {
		return tracking.TimeRecord{}, &tracking.DuplicateDateError{UserID: rec.UserID, Date: rec.Date}
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO time_records
			(user_id, work_date, start_time, end_time, break_minutes, absence, notes, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Date.String(), clockPtr(rec.Start), clockPtr(rec.End),
		rec.BreakMinutes, string(rec.Absence), nullable(rec.Notes), string(rec.Status),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return tracking.TimeRecord{}, fmt.Errorf("failed to insert record: %w", err)
	}

	rec.ID, err = res.LastInsertId()
	if err != nil {
		return tracking.TimeRecord{}, err
	}
	return rec, nil
}

func (s *Store) UpdateRecord(ctx context.Context, rec tracking.TimeRecord) (tracking.TimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.recordByID(ctx, rec.UserID, rec.ID)
	if err != nil {
		return tracking.TimeRecord{}, err
	}

	taken, err := s.dateTaken(ctx, rec.UserID, rec.Date, rec.ID)
	if err != nil {
		return tracking.TimeRecord{}, err
	}
	if taken {
		return tracking.TimeRecord{}, &tracking.DuplicateDateError{UserID: rec.UserID, Date: rec.Date}
	}

	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		UPDATE time_records
		SET work_date = ?, start_time = ?, end_time = ?, break_minutes = ?,
			absence = ?, notes = ?, status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		rec.Date.String(), clockPtr(rec.Start), clockPtr(rec.End), rec.BreakMinutes,
		string(rec.Absence), nullable(rec.Notes), string(rec.Status),
		rec.UpdatedAt.Format(time.RFC3339), rec.ID, rec.UserID,
	)
	if err != nil {
		return tracking.TimeRecord{}, fmt.Errorf("failed to update record: %w", err)
	}
	return rec, nil
}

func (s *Store) DeleteRecord(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM time_records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return tracking.ErrRecordNotFound
	}
	return nil
}

func (s *Store) RecordByID(ctx context.Context, userID, id int64) (tracking.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recordByID(ctx, userID, id)
}

func (s *Store) recordByID(ctx context.Context, userID, id int64) (tracking.TimeRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM time_records WHERE id = ? AND user_id = ?`, id, userID)
	return scanRecord(row)
}

func (s *Store) RecordOnDate(ctx context.Context, userID int64, day tracking.Date) (tracking.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM time_records WHERE user_id = ? AND work_date = ?`,
		userID, day.String())
	return scanRecord(row)
}

func (s *Store) RecordsInRange(ctx context.Context, userID int64, from, to tracking.Date) ([]tracking.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM time_records
		 WHERE user_id = ? AND work_date >= ? AND work_date <= ?
		 ORDER BY work_date`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *Store) AllRecords(ctx context.Context, userID int64) ([]tracking.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM time_records WHERE user_id = ? ORDER BY work_date`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// dateTaken reports whether a record other than excludeID occupies the day.
func (s *Store) dateTaken(ctx context.Context, userID int64, day tracking.Date, excludeID int64) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM time_records WHERE user_id = ? AND work_date = ?`,
		userID, day.String()).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return id != excludeID, nil
}

// =============================================================================
// SETTINGS STORE
// =============================================================================

func (s *Store) Settings(ctx context.Context, userID int64) (tracking.AccountSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, weekly_target_hours, tracking_start, initial_hours_offset,
			initial_vacation_days, annual_vacation_days, vacation_carryover_days,
			vacation_carryover_expires, weekday_defaults_json, created_at, updated_at
		FROM account_settings WHERE user_id = ?`, userID)

	var (
		out                  tracking.AccountSettings
		weekly               string
		trackStart, offset   sql.NullString
		initVac, annualVac   sql.NullString
		carryDays, carryExp  sql.NullString
		schedule             sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&out.UserID, &weekly, &trackStart, &offset, &initVac, &annualVac,
		&carryDays, &carryExp, &schedule, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return tracking.AccountSettings{}, tracking.ErrSettingsNotFound
	}
	if err != nil {
		return tracking.AccountSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	if out.WeeklyTargetHours, err = decimal.NewFromString(weekly); err != nil {
		return tracking.AccountSettings{}, fmt.Errorf("corrupt weekly_target_hours: %w", err)
	}
	if out.TrackingStart, err = parseDatePtr(trackStart); err != nil {
		return tracking.AccountSettings{}, err
	}
	if out.InitialHoursOffset, err = parseDecimalPtr(offset); err != nil {
		return tracking.AccountSettings{}, err
	}
	if out.InitialVacationDays, err = parseDecimalPtr(initVac); err != nil {
		return tracking.AccountSettings{}, err
	}
	if out.AnnualVacationDays, err = parseDecimalPtr(annualVac); err != nil {
		return tracking.AccountSettings{}, err
	}
	if out.VacationCarryoverDays, err = parseDecimalPtr(carryDays); err != nil {
		return tracking.AccountSettings{}, err
	}
	if out.VacationCarryoverExpires, err = parseDatePtr(carryExp); err != nil {
		return tracking.AccountSettings{}, err
	}
	if schedule.Valid && schedule.String != "" {
		week, err := unmarshalSchedule([]byte(schedule.String))
		if err != nil {
			return tracking.AccountSettings{}, err
		}
		out.WeekdayDefaults = week
	}
	out.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	out.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return out, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings tracking.AccountSettings) (tracking.AccountSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	settings.UpdatedAt = now
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}

	var scheduleJSON interface{}
	if settings.WeekdayDefaults != nil {
		b, err := marshalSchedule(settings.WeekdayDefaults)
		if err != nil {
			return tracking.AccountSettings{}, err
		}
		scheduleJSON = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_settings
			(user_id, weekly_target_hours, tracking_start, initial_hours_offset,
			 initial_vacation_days, annual_vacation_days, vacation_carryover_days,
			 vacation_carryover_expires, weekday_defaults_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			weekly_target_hours = excluded.weekly_target_hours,
			tracking_start = excluded.tracking_start,
			initial_hours_offset = excluded.initial_hours_offset,
			initial_vacation_days = excluded.initial_vacation_days,
			annual_vacation_days = excluded.annual_vacation_days,
			vacation_carryover_days = excluded.vacation_carryover_days,
			vacation_carryover_expires = excluded.vacation_carryover_expires,
			weekday_defaults_json = excluded.weekday_defaults_json,
			updated_at = excluded.updated_at`,
		settings.UserID, settings.WeeklyTargetHours.String(),
		datePtr(settings.TrackingStart), decimalPtr(settings.InitialHoursOffset),
		decimalPtr(settings.InitialVacationDays), decimalPtr(settings.AnnualVacationDays),
		decimalPtr(settings.VacationCarryoverDays), datePtr(settings.VacationCarryoverExpires),
		scheduleJSON,
		settings.CreatedAt.Format(time.RFC3339), settings.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return tracking.AccountSettings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

// =============================================================================
// SCAN / ENCODE HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (tracking.TimeRecord, error) {
	var (
		rec              tracking.TimeRecord
		workDate         string
		startStr, endStr sql.NullString
		absence, status  string
		notes            sql.NullString
		created, updated string
	)
	err := row.Scan(&rec.ID, &rec.UserID, &workDate, &startStr, &endStr,
		&rec.BreakMinutes, &absence, &notes, &status, &created, &updated)
	if err == sql.ErrNoRows {
		return tracking.TimeRecord{}, tracking.ErrRecordNotFound
	}
	if err != nil {
		return tracking.TimeRecord{}, fmt.Errorf("failed to scan record: %w", err)
	}

	if rec.Date, err = tracking.ParseDate(workDate); err != nil {
		return tracking.TimeRecord{}, err
	}
	if rec.Start, err = parseClockPtr(startStr); err != nil {
		return tracking.TimeRecord{}, err
	}
	if rec.End, err = parseClockPtr(endStr); err != nil {
		return tracking.TimeRecord{}, err
	}
	rec.Absence = tracking.Absence(absence)
	rec.Status = tracking.RecordStatus(status)
	rec.Notes = notes.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]tracking.TimeRecord, error) {
	var records []tracking.TimeRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func clockPtr(c *tracking.ClockTime) interface{} {
	if c == nil {
		return nil
	}
	return c.String()
}

func datePtr(d *tracking.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func decimalPtr(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func parseClockPtr(ns sql.NullString) (*tracking.ClockTime, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	c, err := tracking.ParseClock(ns.String)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func parseDatePtr(ns sql.NullString) (*tracking.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := tracking.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseDecimalPtr(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// scheduleSlotJSON is the storage shape of one weekday default. A week is a
// 7-element array, Monday first, null for weekdays without a default.
type scheduleSlotJSON struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	BreakMinutes int    `json:"break_minutes"`
}

func marshalSchedule(week *tracking.WeekSchedule) ([]byte, error) {
	slots := make([]*scheduleSlotJSON, 7)
	for i, slot := range week {
		if slot == nil {
			continue
		}
		slots[i] = &scheduleSlotJSON{
			Start:        slot.Start.String(),
			End:          slot.End.String(),
			BreakMinutes: slot.BreakMinutes,
		}
	}
	return json.Marshal(slots)
}

func unmarshalSchedule(data []byte) (*tracking.WeekSchedule, error) {
	var slots []*scheduleSlotJSON
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("corrupt weekday defaults: %w", err)
	}

	var week tracking.WeekSchedule
	for i, slot := range slots {
		if i >= 7 || slot == nil {
			continue
		}
		start, err := tracking.ParseClock(slot.Start)
		if err != nil {
			return nil, err
		}
		end, err := tracking.ParseClock(slot.End)
		if err != nil {
			return nil, err
		}
		week[i] = &tracking.DaySlot{Start: start, End: end, BreakMinutes: slot.BreakMinutes}
	}
	return &week, nil
}
