package service

import (
	"fmt"
	"time"

	"runlog/internal/analysis"
	"runlog/internal/store"
)

// EfficiencyPoint is one workout on the efficiency trend
type EfficiencyPoint struct {
	WorkoutID  int64     `json:"workout_id"`
	Date       time.Time `json:"date"`
	Sport      string    `json:"sport"`
	DistanceM  float64   `json:"distance_m"`
	PaceSecKm  float64   `json:"pace_sec_km"`
	AvgHR      float64   `json:"avg_hr"`
	Efficiency float64   `json:"meters_per_beat"`
	Decoupling *float64  `json:"aerobic_decoupling_pct"`
}

// EfficiencyTrend returns per-workout efficiency, oldest first, for workouts
// starting in the last days days (all workouts when days <= 0). The report's
// mean sample efficiency is preferred; workouts without one fall back to
// average speed over average heart rate. Workouts without either are skipped.
func (q *QueryService) EfficiencyTrend(days int) ([]EfficiencyPoint, error) {
	since := q.since(days)
	workouts, err := q.store.ListWorkoutsSince(since)
	if err != nil {
		return nil, err
	}
	reports, err := q.reportsSince(since)
	if err != nil {
		return nil, err
	}

	var trend []EfficiencyPoint
	for _, w := range workouts {
		if w.AvgHR == nil || *w.AvgHR <= 0 || w.AvgPaceSecKm == nil || *w.AvgPaceSecKm <= 0 {
			continue
		}
		p := EfficiencyPoint{
			WorkoutID: w.ID,
			Date:      w.StartTime,
			Sport:     w.Sport,
			DistanceM: w.DistanceM,
			PaceSecKm: *w.AvgPaceSecKm,
			AvgHR:     *w.AvgHR,
		}

		if r, ok := reports[w.ID]; ok && r.Summary.AvgEfficiency != nil {
			p.Efficiency = *r.Summary.AvgEfficiency
			p.Decoupling = r.Summary.AerobicDecoupling
		} else {
			speed := MetersPerKm / *w.AvgPaceSecKm
			p.Efficiency = speed / (*w.AvgHR / SecondsPerMinute)
		}
		p.Efficiency = round3(p.Efficiency)
		trend = append(trend, p)
	}
	return trend, nil
}

// ZoneTotal is the time spent in one heart rate zone across workouts
type ZoneTotal struct {
	Zone    string  `json:"zone"`
	Seconds float64 `json:"seconds"`
	Percent float64 `json:"percent"`
}

// ZoneTotals sums the zone distributions of stored reports for workouts
// starting in the last days days (all when days <= 0). Always returns one
// entry per zone, Z1 first.
func (q *QueryService) ZoneTotals(days int) ([]ZoneTotal, error) {
	reports, err := q.reportsSince(q.since(days))
	if err != nil {
		return nil, err
	}

	sum := make(analysis.ZoneSeconds, len(analysis.ZoneLabels))
	for _, r := range reports {
		for label, secs := range r.Zones {
			sum[label] += secs
		}
	}

	totals := make([]ZoneTotal, 0, len(analysis.ZoneLabels))
	for _, label := range analysis.ZoneLabels {
		totals = append(totals, ZoneTotal{
			Zone:    label,
			Seconds: sum[label],
			Percent: round1(sum.Percent(label)),
		})
	}
	return totals, nil
}

// Heatmap returns per-day workout counts and distance for the last days days
func (q *QueryService) Heatmap(days int) ([]store.DayActivity, error) {
	if days <= 0 {
		days = HeatmapDays
	}
	return q.store.GetDailyActivity(q.since(days))
}

// since returns midnight UTC days days ago, or the zero time for days <= 0
func (q *QueryService) since(days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	now := q.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -days)
}

// reportsSince decodes stored reports by workout ID. Unreadable reports are skipped.
func (q *QueryService) reportsSince(since time.Time) (map[int64]*analysis.Report, error) {
	stored, err := q.store.ListReportsSince(since)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	reports := make(map[int64]*analysis.Report, len(stored))
	for _, sr := range stored {
		r, err := analysis.UnmarshalReport(sr.Payload)
		if err != nil {
			continue
		}
		reports[sr.WorkoutID] = r
	}
	return reports, nil
}
