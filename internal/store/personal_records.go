package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertPersonalRecord inserts or updates a personal record.
// Only updates if the new record is faster (lower duration for the same category).
func (db *DB) UpsertPersonalRecord(pr *PersonalRecord) (updated bool, err error) {
	existing, err := db.GetPersonalRecordByCategory(pr.Category)
	if err != nil && !errors.Is(err, ErrPersonalRecordNotFound) {
		return false, err
	}

	if existing != nil && existing.DurationSeconds <= pr.DurationSeconds {
		return false, nil
	}

	_, err = db.Exec(`
		INSERT INTO personal_records (
			category, workout_id, distance_meters, duration_seconds,
			pace_sec_km, avg_heartrate, segment, achieved_at, start_index, end_index
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET
			workout_id = excluded.workout_id,
			distance_meters = excluded.distance_meters,
			duration_seconds = excluded.duration_seconds,
			pace_sec_km = excluded.pace_sec_km,
			avg_heartrate = excluded.avg_heartrate,
			segment = excluded.segment,
			achieved_at = excluded.achieved_at,
			start_index = excluded.start_index,
			end_index = excluded.end_index
	`,
		pr.Category, pr.WorkoutID, pr.DistanceMeters, pr.DurationSeconds,
		pr.PaceSecKm, pr.AvgHeartrate, pr.Segment, pr.AchievedAt.UTC().Format(time.RFC3339),
		pr.StartIndex, pr.EndIndex,
	)
	if err != nil {
		return false, err
	}

	return true, nil
}

// GetPersonalRecordByCategory retrieves a personal record by category
func (db *DB) GetPersonalRecordByCategory(category string) (*PersonalRecord, error) {
	row := db.QueryRow(`
		SELECT id, category, workout_id, distance_meters, duration_seconds,
			pace_sec_km, avg_heartrate, segment, achieved_at, start_index, end_index
		FROM personal_records
		WHERE category = ?
	`, category)

	pr, err := scanPersonalRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPersonalRecordNotFound
	}
	return pr, err
}

// GetAllPersonalRecords retrieves all personal records, shortest distance first
func (db *DB) GetAllPersonalRecords() ([]PersonalRecord, error) {
	rows, err := db.Query(`
		SELECT id, category, workout_id, distance_meters, duration_seconds,
			pace_sec_km, avg_heartrate, segment, achieved_at, start_index, end_index
		FROM personal_records
		ORDER BY distance_meters
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PersonalRecord
	for rows.Next() {
		pr, err := scanPersonalRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *pr)
	}
	return records, rows.Err()
}

// GetPersonalRecordsForWorkout retrieves all personal records set during a workout
func (db *DB) GetPersonalRecordsForWorkout(workoutID int64) ([]PersonalRecord, error) {
	rows, err := db.Query(`
		SELECT id, category, workout_id, distance_meters, duration_seconds,
			pace_sec_km, avg_heartrate, segment, achieved_at, start_index, end_index
		FROM personal_records
		WHERE workout_id = ?
		ORDER BY distance_meters
	`, workoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PersonalRecord
	for rows.Next() {
		pr, err := scanPersonalRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *pr)
	}
	return records, rows.Err()
}

// DeleteAllPersonalRecords clears the record table so it can be rebuilt
func (db *DB) DeleteAllPersonalRecords() error {
	_, err := db.Exec(`DELETE FROM personal_records`)
	return err
}

// scanPersonalRecord scans a single personal record
func scanPersonalRecord(row rowScanner) (*PersonalRecord, error) {
	var pr PersonalRecord
	var achievedAt string
	var startIdx, endIdx sql.NullInt64

	err := row.Scan(
		&pr.ID, &pr.Category, &pr.WorkoutID, &pr.DistanceMeters, &pr.DurationSeconds,
		&pr.PaceSecKm, &pr.AvgHeartrate, &pr.Segment, &achievedAt, &startIdx, &endIdx,
	)
	if err != nil {
		return nil, err
	}

	pr.StartIndex = int(startIdx.Int64)
	pr.EndIndex = int(endIdx.Int64)
	pr.AchievedAt, err = time.Parse(time.RFC3339, achievedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing achieved_at %q: %w", achievedAt, err)
	}
	return &pr, nil
}
