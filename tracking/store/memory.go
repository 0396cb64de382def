// Package store provides an in-memory tracking.Store implementation.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/verk/timetrack/tracking"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	records  map[int64][]tracking.TimeRecord // per user, sorted by date
	settings map[int64]tracking.AccountSettings
}

var _ tracking.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		records:  make(map[int64][]tracking.TimeRecord),
		settings: make(map[int64]tracking.AccountSettings),
	}
}

// CreateRecord inserts a record, enforcing one record per (user, date).
func (m *Memory) CreateRecord(_ context.Context, rec tracking.TimeRecord) (tracking.TimeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.records[rec.UserID]
	if _, ok := findByDate(recs, rec.Date); ok {
		return tracking.TimeRecord{}, &tracking.DuplicateDateError{UserID: rec.UserID, Date: rec.Date}
	}

	m.nextID++
	rec.ID = m.nextID
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	m.records[rec.UserID] = insertSorted(recs, rec)
	return rec, nil
}

// UpdateRecord replaces the record with rec.ID, re-sorting if the date moved.
func (m *Memory) UpdateRecord(_ context.Context, rec tracking.TimeRecord) (tracking.TimeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.records[rec.UserID]
	idx := -1
	for i, r := range recs {
		if r.ID == rec.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return tracking.TimeRecord{}, tracking.ErrRecordNotFound
	}

	if existing, ok := findByDate(recs, rec.Date); ok && existing.ID != rec.ID {
		return tracking.TimeRecord{}, &tracking.DuplicateDateError{UserID: rec.UserID, Date: rec.Date}
	}

	rec.CreatedAt = recs[idx].CreatedAt
	rec.UpdatedAt = time.Now().UTC()

	recs = append(recs[:idx], recs[idx+1:]...)
	m.records[rec.UserID] = insertSorted(recs, rec)
	return rec, nil
}

func (m *Memory) DeleteRecord(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.records[userID]
	for i, r := range recs {
		if r.ID == id {
			m.records[userID] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return tracking.ErrRecordNotFound
}

func (m *Memory) RecordByID(_ context.Context, userID, id int64) (tracking.TimeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.records[userID] {
		if r.ID == id {
			return r, nil
		}
	}
	return tracking.TimeRecord{}, tracking.ErrRecordNotFound
}

func (m *Memory) RecordOnDate(_ context.Context, userID int64, day tracking.Date) (tracking.TimeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r, ok := findByDate(m.records[userID], day); ok {
		return r, nil
	}
	return tracking.TimeRecord{}, tracking.ErrRecordNotFound
}

func (m *Memory) RecordsInRange(_ context.Context, userID int64, from, to tracking.Date) ([]tracking.TimeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []tracking.TimeRecord
	for _, r := range m.records[userID] {
		if r.Date.AfterOrEqual(from) && r.Date.BeforeOrEqual(to) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *Memory) AllRecords(_ context.Context, userID int64) ([]tracking.TimeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]tracking.TimeRecord, len(m.records[userID]))
	copy(result, m.records[userID])
	return result, nil
}

func (m *Memory) Settings(_ context.Context, userID int64) (tracking.AccountSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settings[userID]
	if !ok {
		return tracking.AccountSettings{}, tracking.ErrSettingsNotFound
	}
	return s, nil
}

func (m *Memory) SaveSettings(_ context.Context, s tracking.AccountSettings) (tracking.AccountSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := m.settings[s.UserID]; ok {
		s.CreatedAt = existing.CreatedAt
	} else {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.settings[s.UserID] = s
	return s, nil
}

// insertSorted keeps the per-user slice ordered by date.
func insertSorted(recs []tracking.TimeRecord, rec tracking.TimeRecord) []tracking.TimeRecord {
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].Date.After(rec.Date)
	})
	recs = append(recs, tracking.TimeRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	return recs
}

func findByDate(recs []tracking.TimeRecord, day tracking.Date) (tracking.TimeRecord, bool) {
	i := sort.Search(len(recs), func(i int) bool {
		return recs[i].Date.AfterOrEqual(day)
	})
	if i < len(recs) && recs[i].Date.Equal(day) {
		return recs[i], true
	}
	return tracking.TimeRecord{}, false
}
