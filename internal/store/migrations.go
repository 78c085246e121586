package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Workouts (one row per imported file)
		`CREATE TABLE IF NOT EXISTS workouts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_name TEXT NOT NULL,
			sport TEXT NOT NULL DEFAULT 'Running',
			start_time TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			total_time_sec REAL NOT NULL DEFAULT 0,
			distance_m REAL NOT NULL DEFAULT 0,
			calories INTEGER,
			avg_hr REAL,
			max_hr INTEGER,
			avg_pace_sec_km REAL,
			avg_speed_ms REAL,
			avg_cadence REAL,
			imported_at TEXT DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(file_name, start_time)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_workouts_start_time ON workouts(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_workouts_sport ON workouts(sport)`,

		// Trackpoints (per-sample data)
		`CREATE TABLE IF NOT EXISTS trackpoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			workout_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			time TEXT NOT NULL,
			lat REAL,
			lon REAL,
			hr INTEGER,
			cadence INTEGER,
			speed_ms REAL,
			distance_m REAL,
			FOREIGN KEY (workout_id) REFERENCES workouts(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_trackpoints_workout ON trackpoints(workout_id, seq)`,

		// Analytics reports (JSON payload, versioned)
		`CREATE TABLE IF NOT EXISTS workout_reports (
			workout_id INTEGER PRIMARY KEY,
			report_id TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			payload TEXT NOT NULL,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (workout_id) REFERENCES workouts(id) ON DELETE CASCADE
		)`,

		// Personal Records (all-time best per reference distance)
		`CREATE TABLE IF NOT EXISTS personal_records (
			id INTEGER PRIMARY KEY,
			category TEXT NOT NULL UNIQUE,
			workout_id INTEGER NOT NULL,
			distance_meters REAL NOT NULL,
			duration_seconds REAL NOT NULL,
			pace_sec_km REAL,
			avg_heartrate REAL,
			segment TEXT NOT NULL DEFAULT '',
			achieved_at TEXT NOT NULL,
			start_index INTEGER,
			end_index INTEGER,
			FOREIGN KEY (workout_id) REFERENCES workouts(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_personal_records_workout ON personal_records(workout_id)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
