package store

import (
	"database/sql"
	"errors"
	"time"
)

// SaveReport stores or replaces the analytics report for a workout
func (db *DB) SaveReport(r *StoredReport) error {
	computedAt := r.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now()
	}

	_, err := db.Exec(`
		INSERT INTO workout_reports (workout_id, report_id, schema_version, payload, computed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(workout_id) DO UPDATE SET
			report_id = excluded.report_id,
			schema_version = excluded.schema_version,
			payload = excluded.payload,
			computed_at = excluded.computed_at
	`,
		r.WorkoutID, r.ReportID, r.SchemaVersion, string(r.Payload),
		computedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetReport retrieves the stored report for a workout
func (db *DB) GetReport(workoutID int64) (*StoredReport, error) {
	row := db.QueryRow(`
		SELECT workout_id, report_id, schema_version, payload, computed_at
		FROM workout_reports
		WHERE workout_id = ?
	`, workoutID)

	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	return r, err
}

// ListReportsSince returns reports for workouts starting at or after since, oldest first
func (db *DB) ListReportsSince(since time.Time) ([]StoredReport, error) {
	rows, err := db.Query(`
		SELECT r.workout_id, r.report_id, r.schema_version, r.payload, r.computed_at
		FROM workout_reports r
		JOIN workouts w ON w.id = r.workout_id
		WHERE w.start_time >= ?
		ORDER BY w.start_time ASC
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

func scanReport(row rowScanner) (*StoredReport, error) {
	var r StoredReport
	var payload, computedAt string
	if err := row.Scan(&r.WorkoutID, &r.ReportID, &r.SchemaVersion, &payload, &computedAt); err != nil {
		return nil, err
	}
	r.Payload = []byte(payload)
	r.ComputedAt = parseSQLiteTime(computedAt)
	return &r, nil
}
