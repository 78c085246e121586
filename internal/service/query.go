package service

import (
	"errors"
	"fmt"
	"time"

	"runlog/internal/analysis"
	"runlog/internal/store"
)

// ErrInvalidPeriod is returned for a period type other than weekly or monthly
var ErrInvalidPeriod = errors.New("period must be weekly or monthly")

// QueryService provides read-only queries for the TUI, CLI and API
type QueryService struct {
	store *store.DB
	now   func() time.Time
}

// NewQueryService creates a new query service
func NewQueryService(store *store.DB) *QueryService {
	return &QueryService{store: store, now: time.Now}
}

// ListWorkouts returns workouts newest first
func (q *QueryService) ListWorkouts(limit, offset int) ([]store.Workout, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	return q.store.ListWorkouts(limit, max(offset, 0))
}

// TotalWorkoutCount returns the number of stored workouts
func (q *QueryService) TotalWorkoutCount() (int, error) {
	return q.store.CountWorkouts()
}

// WorkoutDetail combines a workout with its report and the records it holds
type WorkoutDetail struct {
	Workout    store.Workout
	Report     *analysis.Report // nil when no report has been computed
	ReportID   string
	ComputedAt time.Time
	Records    []store.PersonalRecord // all-time records set in this workout
}

// WorkoutDetail loads a workout and its stored report
func (q *QueryService) WorkoutDetail(id int64) (*WorkoutDetail, error) {
	w, err := q.store.GetWorkout(id)
	if err != nil {
		return nil, err
	}
	detail := &WorkoutDetail{Workout: *w}

	stored, err := q.store.GetReport(id)
	switch {
	case errors.Is(err, store.ErrReportNotFound):
	case err != nil:
		return nil, fmt.Errorf("loading report: %w", err)
	default:
		report, err := analysis.UnmarshalReport(stored.Payload)
		if err != nil {
			return nil, fmt.Errorf("decoding report: %w", err)
		}
		detail.Report = report
		detail.ReportID = stored.ReportID
		detail.ComputedAt = stored.ComputedAt
	}

	records, err := q.store.GetPersonalRecordsForWorkout(id)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	detail.Records = records

	return detail, nil
}

// WorkoutReport returns the stored report of a workout
func (q *QueryService) WorkoutReport(id int64) (*analysis.Report, error) {
	if _, err := q.store.GetWorkout(id); err != nil {
		return nil, err
	}
	stored, err := q.store.GetReport(id)
	if err != nil {
		return nil, err
	}
	return analysis.UnmarshalReport(stored.Payload)
}

// Trackpoints returns the samples of a workout
func (q *QueryService) Trackpoints(id int64) ([]store.Trackpoint, error) {
	if _, err := q.store.GetWorkout(id); err != nil {
		return nil, err
	}
	return q.store.GetTrackpoints(id)
}

// Stats holds all-time totals, per-sport totals and recent months
type Stats struct {
	Totals  store.Totals
	Sports  []store.SportStats
	Monthly []PeriodStats
}

// Stats returns all-time and per-sport statistics
func (q *QueryService) Stats() (*Stats, error) {
	totals, err := q.store.GetTotals()
	if err != nil {
		return nil, fmt.Errorf("loading totals: %w", err)
	}
	sports, err := q.store.GetSportStats()
	if err != nil {
		return nil, fmt.Errorf("loading sport stats: %w", err)
	}
	monthly, err := q.PeriodStats(PeriodMonthly, MonthlyPeriods)
	if err != nil {
		return nil, err
	}
	return &Stats{Totals: *totals, Sports: sports, Monthly: monthly}, nil
}

// PeriodStats holds aggregated stats for a time period
type PeriodStats struct {
	PeriodStart   time.Time `json:"period_start"`
	PeriodLabel   string    `json:"label"`
	WorkoutCount  int       `json:"workouts"`
	TotalDistance float64   `json:"distance_m"`
	TotalTime     float64   `json:"time_s"`
	TotalCalories int       `json:"calories"`
	AvgHR         float64   `json:"avg_hr"` // 0 when no workout had heart rate

	hrWorkouts int
}

// AvgPaceSecKm returns the period pace, or 0 without distance
func (p PeriodStats) AvgPaceSecKm() float64 {
	if p.TotalDistance <= 0 {
		return 0
	}
	return p.TotalTime / metersToKm(p.TotalDistance)
}

// PeriodStats returns aggregated stats by week or month, oldest period first.
// Weeks start on Monday; all periods are in UTC.
func (q *QueryService) PeriodStats(periodType string, numPeriods int) ([]PeriodStats, error) {
	if periodType != PeriodWeekly && periodType != PeriodMonthly {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, periodType)
	}
	if numPeriods <= 0 {
		return nil, nil
	}

	now := q.now().UTC()
	stats := make([]PeriodStats, numPeriods)

	currentMonday := getMonday(now)
	currentFirst := firstOfMonth(now)
	for i := range numPeriods {
		var periodStart time.Time
		var label string

		if periodType == PeriodWeekly {
			periodStart = currentMonday.AddDate(0, 0, -7*(numPeriods-1-i))
			label = periodStart.Format("Jan 02")
		} else {
			periodStart = currentFirst.AddDate(0, -(numPeriods - 1 - i), 0)
			label = periodStart.Format("Jan 2006")
		}

		stats[i] = PeriodStats{
			PeriodStart: periodStart,
			PeriodLabel: label,
		}
	}

	workouts, err := q.store.ListWorkoutsSince(stats[0].PeriodStart)
	if err != nil {
		return nil, err
	}

	for _, w := range workouts {
		idx := findPeriodIndex(w.StartTime.UTC(), stats, periodType)
		if idx < 0 {
			continue
		}
		p := &stats[idx]
		p.WorkoutCount++
		p.TotalDistance += w.DistanceM
		p.TotalTime += w.TotalTimeSec
		if w.Calories != nil {
			p.TotalCalories += *w.Calories
		}

		// Running mean over workouts that carry heart rate
		if w.AvgHR != nil {
			p.hrWorkouts++
			n := float64(p.hrWorkouts)
			p.AvgHR = p.AvgHR*(n-1)/n + *w.AvgHR/n
		}
	}

	return stats, nil
}

// findPeriodIndex returns the index of the period that contains the given date
func findPeriodIndex(date time.Time, stats []PeriodStats, periodType string) int {
	for i := range stats {
		var periodEnd time.Time
		if periodType == PeriodWeekly {
			periodEnd = stats[i].PeriodStart.AddDate(0, 0, 7)
		} else {
			periodEnd = stats[i].PeriodStart.AddDate(0, 1, 0)
		}
		if !date.Before(stats[i].PeriodStart) && date.Before(periodEnd) {
			return i
		}
	}
	return -1
}

// Summary holds the headline numbers of the dashboard
type Summary struct {
	TotalWorkouts int
	TotalDistance float64 // meters
	TotalTime     float64 // seconds
	TotalCalories int
	MonthDistance float64 // meters, current calendar month
	MonthWorkouts int
	StreakWeeks   int // consecutive weeks with a workout, ending this week
	Last          *store.Workout
}

// Summary returns totals, the current month, the week streak and the latest workout
func (q *QueryService) Summary() (*Summary, error) {
	totals, err := q.store.GetTotals()
	if err != nil {
		return nil, fmt.Errorf("loading totals: %w", err)
	}
	s := &Summary{
		TotalWorkouts: totals.Count,
		TotalDistance: totals.TotalDistance,
		TotalTime:     totals.TotalTime,
		TotalCalories: totals.TotalCalories,
	}

	now := q.now().UTC()
	month, err := q.store.ListWorkoutsSince(firstOfMonth(now))
	if err != nil {
		return nil, err
	}
	for _, w := range month {
		s.MonthWorkouts++
		s.MonthDistance += w.DistanceM
	}

	all, err := q.store.ListWorkouts(-1, 0)
	if err != nil {
		return nil, err
	}
	if len(all) > 0 {
		last := all[0]
		s.Last = &last
	}
	s.StreakWeeks = weekStreak(all, now)

	return s, nil
}

// weekStreak counts consecutive weeks with at least one workout, walking back
// from the week containing now. A week without workouts ends the streak.
func weekStreak(workouts []store.Workout, now time.Time) int {
	weeks := make(map[time.Time]bool, len(workouts))
	for _, w := range workouts {
		weeks[getMonday(w.StartTime.UTC())] = true
	}

	streak := 0
	for week := getMonday(now); weeks[week]; week = week.AddDate(0, 0, -7) {
		streak++
	}
	return streak
}
