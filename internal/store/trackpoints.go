package store

import (
	"database/sql"
	"fmt"
	"time"
)

// insertTrackpoints writes points for a workout inside an open transaction
func insertTrackpoints(tx *sql.Tx, workoutID int64, points []Trackpoint) error {
	stmt, err := tx.Prepare(`
		INSERT INTO trackpoints (
			workout_id, seq, time, lat, lon, hr, cadence, speed_ms, distance_m
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, p := range points {
		_, err := stmt.Exec(
			workoutID, i, p.Time.UTC().Format(time.RFC3339Nano),
			p.Lat, p.Lon, p.HeartRate, p.Cadence, p.Speed, p.Distance,
		)
		if err != nil {
			return fmt.Errorf("inserting trackpoint %d: %w", i, err)
		}
	}
	return nil
}

// GetTrackpoints retrieves all trackpoints for a workout in recorded order
func (db *DB) GetTrackpoints(workoutID int64) ([]Trackpoint, error) {
	rows, err := db.Query(`
		SELECT workout_id, time, lat, lon, hr, cadence, speed_ms, distance_m
		FROM trackpoints
		WHERE workout_id = ?
		ORDER BY seq
	`, workoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []Trackpoint
	for rows.Next() {
		var p Trackpoint
		var ts string
		err := rows.Scan(
			&p.WorkoutID, &ts, &p.Lat, &p.Lon, &p.HeartRate, &p.Cadence, &p.Speed, &p.Distance,
		)
		if err != nil {
			return nil, err
		}
		p.Time, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing trackpoint time %q: %w", ts, err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// CountTrackpoints returns the number of trackpoints stored for a workout
func (db *DB) CountTrackpoints(workoutID int64) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM trackpoints WHERE workout_id = ?", workoutID).Scan(&count)
	return count, err
}
