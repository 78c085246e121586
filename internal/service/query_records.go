package service

import (
	"fmt"
	"slices"

	"runlog/internal/analysis"
	"runlog/internal/store"
)

// PersonalRecordDisplay represents a formatted all-time record for display
type PersonalRecordDisplay struct {
	Category        string
	CategoryLabel   string // e.g. "5K", "Half Marathon"
	Time            string // "M:SS" or "H:MM:SS"
	Pace            string // "M:SS" per km
	AvgHR           string // formatted HR or "-"
	Date            string
	Segment         string
	WorkoutID       int64
	WorkoutFile     string
	DistanceMeters  float64
	DurationSeconds float64
	PaceSecKm       *float64
}

// PersonalRecords returns all-time records ordered by distance
func (q *QueryService) PersonalRecords() ([]PersonalRecordDisplay, error) {
	records, err := q.store.GetAllPersonalRecords()
	if err != nil {
		return nil, err
	}

	files := make(map[int64]string)
	displays := make([]PersonalRecordDisplay, 0, len(records))
	for _, r := range records {
		if _, ok := files[r.WorkoutID]; !ok {
			w, err := q.store.GetWorkout(r.WorkoutID)
			if err != nil {
				return nil, fmt.Errorf("loading workout %d: %w", r.WorkoutID, err)
			}
			files[r.WorkoutID] = w.FileName
		}
		d := recordDisplay(r)
		d.WorkoutFile = files[r.WorkoutID]
		displays = append(displays, d)
	}

	sortRecordsByDistance(displays)
	return displays, nil
}

// WorkoutRecords returns the all-time records held by one workout
func (q *QueryService) WorkoutRecords(workoutID int64) ([]PersonalRecordDisplay, error) {
	records, err := q.store.GetPersonalRecordsForWorkout(workoutID)
	if err != nil {
		return nil, err
	}

	displays := make([]PersonalRecordDisplay, 0, len(records))
	for _, r := range records {
		displays = append(displays, recordDisplay(r))
	}
	sortRecordsByDistance(displays)
	return displays, nil
}

func recordDisplay(r store.PersonalRecord) PersonalRecordDisplay {
	d := PersonalRecordDisplay{
		Category:        r.Category,
		CategoryLabel:   analysis.DistanceLabel(r.DistanceMeters),
		Time:            FormatDuration(r.DurationSeconds),
		Date:            r.AchievedAt.Format("Jan 02, 2006"),
		Segment:         r.Segment,
		WorkoutID:       r.WorkoutID,
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: r.DurationSeconds,
		PaceSecKm:       r.PaceSecKm,
		Pace:            "-",
		AvgHR:           "-",
	}
	if r.PaceSecKm != nil {
		d.Pace = FormatPace(*r.PaceSecKm)
	}
	if r.AvgHeartrate != nil {
		d.AvgHR = fmt.Sprintf("%.0f", *r.AvgHeartrate)
	}
	return d
}

// sortRecordsByDistance orders records shortest distance first
func sortRecordsByDistance(records []PersonalRecordDisplay) {
	slices.SortFunc(records, func(a, b PersonalRecordDisplay) int {
		switch {
		case a.DistanceMeters < b.DistanceMeters:
			return -1
		case a.DistanceMeters > b.DistanceMeters:
			return 1
		}
		return 0
	})
}
