package store

import "fmt"

// migrations run in order on every open; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		tuning TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		frame_count INTEGER NOT NULL DEFAULT 0,
		start_time REAL,
		end_time REAL,
		created_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS recording_frames (
		recording_id TEXT NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
		sequence INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (recording_id, sequence)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_recordings_name ON recordings(name)`,
}

func (s *Store) runMigrations() error {
	for i, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
