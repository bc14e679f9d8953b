package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Profiles table - one row per user scope
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			full_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT '',
			age INTEGER NOT NULL DEFAULT 0,
			height_value REAL NOT NULL DEFAULT 0,
			height_unit TEXT NOT NULL DEFAULT 'cm' CHECK(height_unit IN ('cm', 'ft')),
			weight_value REAL NOT NULL DEFAULT 0,
			weight_unit TEXT NOT NULL DEFAULT 'kg' CHECK(weight_unit IN ('kg', 'lb')),
			profile_image TEXT NOT NULL DEFAULT '',
			needs_onboarding INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Exercise records table - append-only session summaries
		`CREATE TABLE IF NOT EXISTS exercise_records (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
			exercise TEXT NOT NULL,
			name TEXT NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			reps INTEGER NOT NULL CHECK(reps >= 0),
			duration_seconds INTEGER NOT NULL CHECK(duration_seconds >= 0)
		)`,

		// Settings table - per-user key-value preferences
		`CREATE TABLE IF NOT EXISTS settings (
			user_id TEXT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (user_id, key)
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_exercise_records_user_time ON exercise_records(user_id, timestamp_ms)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
