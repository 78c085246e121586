package store

import (
	"database/sql"
	"time"
)

// GetSportStats returns per-sport totals, most frequent sport first
func (db *DB) GetSportStats() ([]SportStats, error) {
	rows, err := db.Query(`
		SELECT sport, COUNT(*), COALESCE(SUM(distance_m), 0), COALESCE(SUM(total_time_sec), 0),
			AVG(avg_hr), AVG(avg_pace_sec_km)
		FROM workouts
		GROUP BY sport
		ORDER BY COUNT(*) DESC, sport
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SportStats
	for rows.Next() {
		var s SportStats
		if err := rows.Scan(&s.Sport, &s.Count, &s.TotalDistance, &s.TotalTime, &s.AvgHR, &s.AvgPaceSecKm); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetDailyActivity returns distance per calendar day (UTC) since the given time
func (db *DB) GetDailyActivity(since time.Time) ([]DayActivity, error) {
	rows, err := db.Query(`
		SELECT substr(start_time, 1, 10) AS day, COUNT(*), COALESCE(SUM(distance_m), 0)
		FROM workouts
		WHERE start_time >= ?
		GROUP BY day
		ORDER BY day
	`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []DayActivity
	for rows.Next() {
		var d DayActivity
		if err := rows.Scan(&d.Date, &d.Count, &d.DistanceM); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// GetTotals returns lifetime totals over all workouts
func (db *DB) GetTotals() (*Totals, error) {
	var t Totals
	var first, last sql.NullString
	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(distance_m), 0), COALESCE(SUM(total_time_sec), 0),
			COALESCE(SUM(calories), 0), MIN(start_time), MAX(start_time)
		FROM workouts
	`).Scan(&t.Count, &t.TotalDistance, &t.TotalTime, &t.TotalCalories, &first, &last)
	if err != nil {
		return nil, err
	}

	if first.Valid {
		if ts, err := time.Parse(time.RFC3339, first.String); err == nil {
			t.FirstWorkout = &ts
		}
	}
	if last.Valid {
		if ts, err := time.Parse(time.RFC3339, last.String); err == nil {
			t.LastWorkout = &ts
		}
	}
	return &t, nil
}
