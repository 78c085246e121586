package ingest

import (
	"fmt"
	"io"
	"math"

	"github.com/tormoder/fit"

	"runlog/internal/store"
)

// ParseFIT decodes a FIT activity file. The first session provides the summary;
// records become trackpoints, with invalid sensor values left nil.
func ParseFIT(r io.Reader) (*Parsed, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding fit: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("fit: %w: %v", ErrNoActivity, err)
	}

	var points []store.Trackpoint
	for _, rec := range activity.Records {
		if rec.Timestamp.IsZero() || fit.IsBaseTime(rec.Timestamp) {
			continue
		}
		tp := store.Trackpoint{Time: rec.Timestamp.UTC()}

		if !rec.PositionLat.Invalid() && !rec.PositionLong.Invalid() {
			lat, lon := rec.PositionLat.Degrees(), rec.PositionLong.Degrees()
			tp.Lat, tp.Lon = &lat, &lon
		}
		if rec.HeartRate != math.MaxUint8 && rec.HeartRate > 0 {
			v := int(rec.HeartRate)
			tp.HeartRate = &v
		}
		if rec.Cadence != math.MaxUint8 {
			v := int(rec.Cadence)
			tp.Cadence = &v
		}
		if v, ok := finite(rec.GetEnhancedSpeedScaled()); ok {
			tp.Speed = &v
		} else if v, ok := finite(rec.GetSpeedScaled()); ok {
			tp.Speed = &v
		}
		if v, ok := finite(rec.GetDistanceScaled()); ok {
			tp.Distance = &v
		}
		points = append(points, tp)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("fit: %w: no timed records", ErrNoActivity)
	}

	var w store.Workout
	if len(activity.Sessions) > 0 {
		s := activity.Sessions[0]
		w.Sport = fmt.Sprint(s.Sport)
		if !s.StartTime.IsZero() && !fit.IsBaseTime(s.StartTime) {
			w.StartTime = s.StartTime.UTC()
		}
		if v, ok := finite(s.GetTotalTimerTimeScaled()); ok {
			w.TotalTimeSec = v
		}
		if v, ok := finite(s.GetTotalDistanceScaled()); ok {
			w.DistanceM = v
		}
		if s.TotalCalories != math.MaxUint16 && s.TotalCalories > 0 {
			v := int(s.TotalCalories)
			w.Calories = &v
		}
		if s.AvgHeartRate != math.MaxUint8 && s.AvgHeartRate > 0 {
			v := float64(s.AvgHeartRate)
			w.AvgHR = &v
		}
		if s.MaxHeartRate != math.MaxUint8 && s.MaxHeartRate > 0 {
			v := int(s.MaxHeartRate)
			w.MaxHR = &v
		}
	}

	fillSummary(&w, points)
	return &Parsed{Workout: w, Points: points}, nil
}

// finite returns v when it is a usable non-negative measurement
func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
