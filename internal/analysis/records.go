package analysis

import (
	"fmt"
	"time"

	"runlog/internal/store"
)

// Reference distances in meters
const (
	Distance1K       = 1000
	Distance3K       = 3000
	Distance5K       = 5000
	Distance10K      = 10000
	DistanceHalfMara = 21097.5
	DistanceMarathon = 42195
)

// Record is the fastest contiguous window covering a reference distance
type Record struct {
	Distance      float64   `json:"distance_m"`
	Label         string    `json:"label"`
	Duration      float64   `json:"duration_s"`       // first to last sample of the window
	ExactDuration float64   `json:"exact_duration_s"` // to the interpolated crossing of Distance
	StartIndex    int       `json:"start_index"`
	EndIndex      int       `json:"end_index"`
	StartDistance float64   `json:"start_distance_m"`
	Segment       string    `json:"segment"`
	AchievedOn    time.Time `json:"achieved_on"`
	AvgHR         *float64  `json:"avg_hr"`
}

// PaceSecPerKm returns the record pace in seconds per kilometer
func (r Record) PaceSecPerKm() float64 {
	if r.Distance <= 0 {
		return 0
	}
	return r.ExactDuration / (r.Distance / 1000)
}

// Category returns the key under which all-time records are stored
func (r Record) Category() string {
	return RecordCategory(r.Distance)
}

// RecordCategory returns the storage key for a reference distance
func RecordCategory(distance float64) string {
	return fmt.Sprintf("record_%gm", distance)
}

// DistanceLabel returns a display name for a reference distance
func DistanceLabel(distance float64) string {
	switch distance {
	case DistanceHalfMara:
		return "Half Marathon"
	case DistanceMarathon:
		return "Marathon"
	}
	if distance >= 1000 {
		return fmt.Sprintf("%g km", distance/1000)
	}
	return fmt.Sprintf("%g m", distance)
}

// FindRecord finds the minimum-duration window [i, j] with cum[j]-cum[i] >= distance
// using a two-pointer sweep. Ties keep the earliest window.
// Returns ErrNoWindowSatisfiesDistance if the workout never covers distance.
func FindRecord(points []store.Trackpoint, cum []float64, distance float64) (Record, error) {
	n := len(points)
	if n < 2 || len(cum) != n {
		return Record{}, fmt.Errorf("record %s: %w: need at least 2 points", DistanceLabel(distance), ErrInsufficientData)
	}

	best := -1.0
	bestI, bestJ := 0, 0
	i := 0
	for j := 1; j < n; j++ {
		for i+1 < j && cum[j]-cum[i+1] >= distance-distanceEpsilon {
			i++
		}
		if cum[j]-cum[i] < distance-distanceEpsilon {
			continue
		}
		d := points[j].Time.Sub(points[i].Time).Seconds()
		if best < 0 || d < best {
			best, bestI, bestJ = d, i, j
		}
	}

	if best < 0 {
		return Record{}, fmt.Errorf("record %s: %w", DistanceLabel(distance), ErrNoWindowSatisfiesDistance)
	}

	startDist := cum[bestI]
	hr, _ := meanHRAndCadence(points[bestI : bestJ+1])
	return Record{
		Distance:      distance,
		Label:         DistanceLabel(distance),
		Duration:      best,
		ExactDuration: crossingTime(points, cum, bestI, bestJ, startDist+distance),
		StartIndex:    bestI,
		EndIndex:      bestJ,
		StartDistance: startDist,
		Segment:       fmt.Sprintf("%.2f–%.2f km", startDist/1000, (startDist+distance)/1000),
		AchievedOn:    points[bestI].Time,
		AvgHR:         hr,
	}, nil
}

// crossingTime returns seconds from points[i] until cumulative distance reaches
// target, interpolated within the last sample gap of window [i, j]
func crossingTime(points []store.Trackpoint, cum []float64, i, j int, target float64) float64 {
	end := points[j].Time.Sub(points[i].Time).Seconds()
	if j == i || cum[j]-cum[j-1] <= 0 {
		return end
	}
	prev := points[j-1].Time.Sub(points[i].Time).Seconds()
	frac := (target - cum[j-1]) / (cum[j] - cum[j-1])
	frac = max(0, min(1, frac))
	return prev + frac*(end-prev)
}

// FindRecords finds records for every reachable reference distance
func FindRecords(points []store.Trackpoint, cum []float64, distances []float64) []Record {
	var records []Record
	for _, d := range distances {
		r, err := FindRecord(points, cum, d)
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	return records
}
