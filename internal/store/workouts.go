package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const workoutColumns = `id, file_name, sport, start_time, notes, total_time_sec, distance_m,
	calories, avg_hr, max_hr, avg_pace_sec_km, avg_speed_ms, avg_cadence, imported_at`

// InsertWorkout stores a workout and its trackpoints in one transaction.
// Returns ErrDuplicateWorkout if the file and start time were already imported.
func (db *DB) InsertWorkout(w *Workout, points []Trackpoint) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	startTime := w.StartTime.UTC().Format(time.RFC3339)

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM workouts WHERE file_name = ? AND start_time = ?`,
		w.FileName, startTime).Scan(&exists)
	if err == nil {
		return 0, ErrDuplicateWorkout
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("checking for duplicate: %w", err)
	}

	result, err := tx.Exec(`
		INSERT INTO workouts (
			file_name, sport, start_time, notes, total_time_sec, distance_m,
			calories, avg_hr, max_hr, avg_pace_sec_km, avg_speed_ms, avg_cadence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.FileName, w.Sport, startTime, w.Notes, w.TotalTimeSec, w.DistanceM,
		w.Calories, w.AvgHR, w.MaxHR, w.AvgPaceSecKm, w.AvgSpeedMS, w.AvgCadence,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting workout: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting workout id: %w", err)
	}

	if err := insertTrackpoints(tx, id, points); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	w.ID = id
	return id, nil
}

// UpdateWorkoutSummary overwrites the derived summary columns of a workout
func (db *DB) UpdateWorkoutSummary(w *Workout) error {
	result, err := db.Exec(`
		UPDATE workouts SET
			total_time_sec = ?, distance_m = ?, avg_hr = ?, max_hr = ?,
			avg_pace_sec_km = ?, avg_speed_ms = ?, avg_cadence = ?
		WHERE id = ?
	`,
		w.TotalTimeSec, w.DistanceM, w.AvgHR, w.MaxHR,
		w.AvgPaceSecKm, w.AvgSpeedMS, w.AvgCadence, w.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

// GetWorkout retrieves a workout by ID
func (db *DB) GetWorkout(id int64) (*Workout, error) {
	row := db.QueryRow(`SELECT `+workoutColumns+` FROM workouts WHERE id = ?`, id)
	return scanWorkout(row)
}

// ListWorkouts returns workouts ordered by start time descending
func (db *DB) ListWorkouts(limit, offset int) ([]Workout, error) {
	rows, err := db.Query(`
		SELECT `+workoutColumns+`
		FROM workouts
		ORDER BY start_time DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWorkouts(rows)
}

// ListWorkoutsSince returns workouts starting at or after since, oldest first
func (db *DB) ListWorkoutsSince(since time.Time) ([]Workout, error) {
	rows, err := db.Query(`
		SELECT `+workoutColumns+`
		FROM workouts
		WHERE start_time >= ?
		ORDER BY start_time ASC
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWorkouts(rows)
}

// AllWorkoutIDs returns every workout ID, oldest first
func (db *DB) AllWorkoutIDs() ([]int64, error) {
	rows, err := db.Query(`SELECT id FROM workouts ORDER BY start_time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountWorkouts returns the total number of workouts
func (db *DB) CountWorkouts() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM workouts").Scan(&count)
	return count, err
}

// DeleteWorkout removes a workout along with its trackpoints, report and records
// without relying on the connection having foreign keys enabled.
func (db *DB) DeleteWorkout(id int64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"trackpoints", "workout_reports", "personal_records"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE workout_id = ?`, id); err != nil {
			return fmt.Errorf("deleting %s: %w", table, err)
		}
	}

	result, err := tx.Exec(`DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrWorkoutNotFound
	}
	return tx.Commit()
}

// KnownFileNames returns the set of file names already imported
func (db *DB) KnownFileNames() (map[string]bool, error) {
	rows, err := db.Query(`SELECT DISTINCT file_name FROM workouts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		known[name] = true
	}
	return known, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkoutRow(row rowScanner) (*Workout, error) {
	var w Workout
	var startTime string
	var importedAt sql.NullString

	err := row.Scan(
		&w.ID, &w.FileName, &w.Sport, &startTime, &w.Notes, &w.TotalTimeSec, &w.DistanceM,
		&w.Calories, &w.AvgHR, &w.MaxHR, &w.AvgPaceSecKm, &w.AvgSpeedMS, &w.AvgCadence, &importedAt,
	)
	if err != nil {
		return nil, err
	}

	w.StartTime, err = time.Parse(time.RFC3339, startTime)
	if err != nil {
		return nil, fmt.Errorf("parsing start_time %q: %w", startTime, err)
	}
	if importedAt.Valid {
		w.ImportedAt = parseSQLiteTime(importedAt.String)
	}
	return &w, nil
}

// scanWorkout scans a single workout from a row
func scanWorkout(row *sql.Row) (*Workout, error) {
	w, err := scanWorkoutRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkoutNotFound
	}
	return w, err
}

// scanWorkouts scans multiple workouts from rows
func scanWorkouts(rows *sql.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		w, err := scanWorkoutRow(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, *w)
	}
	return workouts, rows.Err()
}

// parseSQLiteTime parses CURRENT_TIMESTAMP output or RFC3339, returning zero time on failure
func parseSQLiteTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
