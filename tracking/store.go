/*
store.go - Persistence interfaces for records and settings

PURPOSE:
  Defines the contract between the calculation engine's callers and the
  database. The engine itself never touches a store: it computes over
  snapshots the caller loads through these interfaces.

SNAPSHOT CONTRACT:
  Balance queries need the user's COMPLETE history from the tracking epoch
  onward (AllRecords / RecordsInRange with an open lower bound). The engine
  replays it on every query; there is no partial-result or streaming mode.

UNLIKE AN APPEND-ONLY LEDGER:
  Records are editable rows, not immutable transactions. Retroactive edits
  are a feature of this system; the replay design is what keeps derived
  balances correct afterward. Hence Update and Delete exist here.

IMPLEMENTATIONS:
  - tracking/store/memory.go: In-memory, for tests and dev
  - store/sqlite/sqlite.go:   Production SQLite
*/
package tracking

import "context"

// RecordStore persists TimeRecords.
//
// INVARIANT: at most one record per (UserID, Date). Create returns
// ErrDuplicateDate (wrapped in DuplicateDateError) on violation; Update
// returns it when moving a record onto an occupied date.
type RecordStore interface {
	// CreateRecord inserts a record and returns it with ID and timestamps set.
	CreateRecord(ctx context.Context, rec TimeRecord) (TimeRecord, error)

	// UpdateRecord replaces the stored record with the same ID.
	UpdateRecord(ctx context.Context, rec TimeRecord) (TimeRecord, error)

	// DeleteRecord removes a record by ID.
	DeleteRecord(ctx context.Context, userID, id int64) error

	// RecordByID returns one record, or ErrRecordNotFound.
	RecordByID(ctx context.Context, userID, id int64) (TimeRecord, error)

	// RecordOnDate returns the record for a day, or ErrRecordNotFound.
	RecordOnDate(ctx context.Context, userID int64, day Date) (TimeRecord, error)

	// RecordsInRange returns records with dates in [from, to], ordered by date.
	RecordsInRange(ctx context.Context, userID int64, from, to Date) ([]TimeRecord, error)

	// AllRecords returns the user's complete history, ordered by date.
	// This is the snapshot the balance replay consumes.
	AllRecords(ctx context.Context, userID int64) ([]TimeRecord, error)
}

// SettingsStore persists AccountSettings, one row per user.
type SettingsStore interface {
	// Settings returns a user's settings, or ErrSettingsNotFound.
	Settings(ctx context.Context, userID int64) (AccountSettings, error)

	// SaveSettings inserts or replaces a user's settings.
	SaveSettings(ctx context.Context, s AccountSettings) (AccountSettings, error)
}

// Store combines both persistence concerns; the HTTP layer depends on this.
type Store interface {
	RecordStore
	SettingsStore
}
