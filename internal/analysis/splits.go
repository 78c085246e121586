package analysis

import (
	"math"

	"runlog/internal/store"
)

// distanceEpsilon absorbs float noise when comparing cumulative distances
const distanceEpsilon = 1e-6

// Split is one fixed-distance segment of a workout
type Split struct {
	Index         int      `json:"index"` // 1-based
	StartIndex    int      `json:"start_index"`
	EndIndex      int      `json:"end_index"` // StartIndex-1 when no sample falls inside
	StartDistance float64  `json:"start_distance_m"`
	Distance      float64  `json:"distance_m"`
	StartOffset   float64  `json:"start_offset_s"`
	Duration      float64  `json:"duration_s"`
	Pace          *float64 `json:"pace_min_km"`
	AvgSpeed      float64  `json:"avg_speed_ms"`
	AvgHR         *float64 `json:"avg_hr"`
	AvgCadence    *float64 `json:"avg_cadence"`
	Partial       bool     `json:"partial"`
	Fastest       bool     `json:"fastest"`
	Slowest       bool     `json:"slowest"`
}

// Splits partitions the workout into segments of unit meters. Boundary crossing
// times are interpolated between the bracketing trackpoints. A trailing remainder
// is kept as a split marked Partial, so split distances sum to the total distance.
// Fastest and Slowest are flagged among full splits when there are at least two.
func Splits(points []store.Trackpoint, cum []float64, unit float64) []Split {
	n := len(points)
	if n < 2 || len(cum) != n || unit <= 0 {
		return nil
	}

	total := cum[n-1]
	offsets := make([]float64, n)
	for i, p := range points {
		offsets[i] = p.Time.Sub(points[0].Time).Seconds()
	}

	var splits []Split
	prevDist, prevTime, startIdx := 0.0, 0.0, 0
	j := 0

	for k := 1; float64(k)*unit <= total+distanceEpsilon; k++ {
		target := float64(k) * unit
		for j < n-1 && cum[j] < target-distanceEpsilon {
			j++
		}

		crossTime := offsets[j]
		endIdx := j
		if j > 0 && math.Abs(cum[j]-target) > distanceEpsilon {
			// Crossing falls between j-1 and j
			span := cum[j] - cum[j-1]
			frac := 0.0
			if span > 0 {
				frac = math.Max(0, math.Min(1, (target-cum[j-1])/span))
			}
			crossTime = offsets[j-1] + frac*(offsets[j]-offsets[j-1])
			endIdx = j - 1
		}

		splits = append(splits, buildSplit(points, k, startIdx, endIdx, prevDist, target, prevTime, crossTime, false))
		prevDist, prevTime = target, crossTime
		startIdx = min(endIdx+1, n-1)
	}

	if remainder := total - prevDist; remainder > distanceEpsilon {
		splits = append(splits, buildSplit(points, len(splits)+1, startIdx, n-1, prevDist, total, prevTime, offsets[n-1], true))
	}

	flagExtremes(splits)
	return splits
}

func buildSplit(points []store.Trackpoint, index, startIdx, endIdx int, fromDist, toDist, fromTime, toTime float64, partial bool) Split {
	dist := toDist - fromDist
	dur := toTime - fromTime
	s := Split{
		Index:         index,
		StartIndex:    startIdx,
		EndIndex:      endIdx,
		StartDistance: fromDist,
		Distance:      dist,
		StartOffset:   fromTime,
		Duration:      dur,
		Pace:          paceMinPerKm(dur, dist),
		Partial:       partial,
	}
	if dur > 0 {
		s.AvgSpeed = dist / dur
	}
	// A sample gap can span a whole split, leaving it without points
	if endIdx >= startIdx {
		s.AvgHR, s.AvgCadence = meanHRAndCadence(points[startIdx : endIdx+1])
	}
	return s
}

// meanHRAndCadence averages the HR and cadence samples present in points
func meanHRAndCadence(points []store.Trackpoint) (hr, cadence *float64) {
	var hrSum, cadSum float64
	var hrCount, cadCount int
	for _, p := range points {
		if p.HeartRate != nil && *p.HeartRate > 0 {
			hrSum += float64(*p.HeartRate)
			hrCount++
		}
		if p.Cadence != nil && *p.Cadence > 0 {
			cadSum += float64(*p.Cadence)
			cadCount++
		}
	}
	if hrCount > 0 {
		v := hrSum / float64(hrCount)
		hr = &v
	}
	if cadCount > 0 {
		v := cadSum / float64(cadCount)
		cadence = &v
	}
	return hr, cadence
}

func flagExtremes(splits []Split) {
	fastest, slowest := -1, -1
	full := 0
	for i, s := range splits {
		if s.Partial {
			continue
		}
		full++
		if fastest < 0 || s.Duration < splits[fastest].Duration {
			fastest = i
		}
		if slowest < 0 || s.Duration > splits[slowest].Duration {
			slowest = i
		}
	}
	if full < 2 || splits[fastest].Duration == splits[slowest].Duration {
		return
	}
	splits[fastest].Fastest = true
	splits[slowest].Slowest = true
}
