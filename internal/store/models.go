package store

import "time"

// Workout is one imported activity file summary
type Workout struct {
	ID           int64     `db:"id"`
	FileName     string    `db:"file_name"`
	Sport        string    `db:"sport"`
	StartTime    time.Time `db:"start_time"`
	Notes        string    `db:"notes"`
	TotalTimeSec float64   `db:"total_time_sec"`
	DistanceM    float64   `db:"distance_m"`
	Calories     *int      `db:"calories"`        // nullable
	AvgHR        *float64  `db:"avg_hr"`          // nullable
	MaxHR        *int      `db:"max_hr"`          // nullable
	AvgPaceSecKm *float64  `db:"avg_pace_sec_km"` // nullable
	AvgSpeedMS   *float64  `db:"avg_speed_ms"`    // nullable
	AvgCadence   *float64  `db:"avg_cadence"`     // nullable
	ImportedAt   time.Time `db:"imported_at"`
}

// Duration returns the recorded total time
func (w Workout) Duration() time.Duration {
	return time.Duration(w.TotalTimeSec * float64(time.Second))
}

// Trackpoint is a single recorded sample. Nil fields mean the sensor was absent.
type Trackpoint struct {
	WorkoutID int64     `db:"workout_id"`
	Time      time.Time `db:"time"`
	Lat       *float64  `db:"lat"`
	Lon       *float64  `db:"lon"`
	HeartRate *int      `db:"hr"`         // bpm
	Cadence   *int      `db:"cadence"`    // raw device units
	Speed     *float64  `db:"speed_ms"`   // m/s
	Distance  *float64  `db:"distance_m"` // cumulative meters, device reported
}

// HasPosition reports whether both coordinates are present
func (p Trackpoint) HasPosition() bool {
	return p.Lat != nil && p.Lon != nil
}

// StoredReport is a serialized analytics report for a workout
type StoredReport struct {
	WorkoutID     int64     `db:"workout_id"`
	ReportID      string    `db:"report_id"`
	SchemaVersion int       `db:"schema_version"`
	Payload       []byte    `db:"payload"`
	ComputedAt    time.Time `db:"computed_at"`
}

// PersonalRecord is the all-time best for one reference distance
type PersonalRecord struct {
	ID              int64     `db:"id"`
	Category        string    `db:"category"`
	WorkoutID       int64     `db:"workout_id"`
	DistanceMeters  float64   `db:"distance_meters"`
	DurationSeconds float64   `db:"duration_seconds"`
	PaceSecKm       *float64  `db:"pace_sec_km"`
	AvgHeartrate    *float64  `db:"avg_heartrate"`
	Segment         string    `db:"segment"`
	AchievedAt      time.Time `db:"achieved_at"`
	StartIndex      int       `db:"start_index"`
	EndIndex        int       `db:"end_index"`
}

// SportStats aggregates workouts of one sport
type SportStats struct {
	Sport         string
	Count         int
	TotalDistance float64 // meters
	TotalTime     float64 // seconds
	AvgHR         *float64
	AvgPaceSecKm  *float64
}

// DayActivity is the distance covered on a calendar day
type DayActivity struct {
	Date      string // YYYY-MM-DD
	Count     int
	DistanceM float64
}

// Totals summarizes the whole log
type Totals struct {
	Count         int
	TotalDistance float64
	TotalTime     float64
	TotalCalories int
	FirstWorkout  *time.Time
	LastWorkout   *time.Time
}
