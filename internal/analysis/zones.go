package analysis

import (
	"fmt"

	"runlog/internal/store"
)

// ZoneBoundaries holds the lower BPM bound of zones Z1..Z5.
// Heart rates below the Z1 bound are still counted as Z1.
type ZoneBoundaries [5]int

// ZoneLabels names the five heart rate zones, lowest first
var ZoneLabels = [5]string{"Z1", "Z2", "Z3", "Z4", "Z5"}

// lastSampleSeconds is credited to the final HR sample, which has no successor
const lastSampleSeconds = 1.0

// Validate checks that boundaries are strictly ascending
func (b ZoneBoundaries) Validate() error {
	for i := 1; i < len(b); i++ {
		if b[i] <= b[i-1] {
			return fmt.Errorf("%w: %v", ErrInvalidZoneBoundaries, b)
		}
	}
	return nil
}

// ClassifyZone returns the 1-based zone for a heart rate
func ClassifyZone(hr int, b ZoneBoundaries) int {
	zone := 1
	for i := len(b) - 1; i > 0; i-- {
		if hr >= b[i] {
			zone = i + 1
			break
		}
	}
	return zone
}

// ZoneSeconds maps zone label to seconds spent in it
type ZoneSeconds map[string]float64

// Total returns the summed seconds across zones
func (z ZoneSeconds) Total() float64 {
	var total float64
	for _, s := range z {
		total += s
	}
	return total
}

// Percent returns the share of time in the labelled zone, 0-100
func (z ZoneSeconds) Percent(label string) float64 {
	total := z.Total()
	if total == 0 {
		return 0
	}
	return z[label] / total * 100
}

// ZoneDistribution accumulates time per zone. Each HR-bearing point is credited
// with the time until the next point (1 s for the last point). Points without HR
// count towards no zone. Returns ErrInsufficientData when no point has HR.
func ZoneDistribution(points []store.Trackpoint, b ZoneBoundaries) (ZoneSeconds, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	zones := make(ZoneSeconds, len(ZoneLabels))
	for _, label := range ZoneLabels {
		zones[label] = 0
	}

	found := false
	for i, p := range points {
		if p.HeartRate == nil || *p.HeartRate <= 0 {
			continue
		}
		found = true

		dt := lastSampleSeconds
		if i+1 < len(points) {
			dt = max(0, points[i+1].Time.Sub(p.Time).Seconds())
		}
		zones[ZoneLabels[ClassifyZone(*p.HeartRate, b)-1]] += dt
	}

	if !found {
		return nil, fmt.Errorf("zone distribution: %w: no heart rate samples", ErrInsufficientData)
	}
	return zones, nil
}
