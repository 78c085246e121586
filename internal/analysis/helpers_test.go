package analysis

import (
	"math"
	"time"

	"runlog/internal/store"
)

// Helper functions for creating test data
func floatPtr(f float64) *float64 {
	return &f
}

func intPtr(i int) *int {
	return &i
}

var testStart = time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// steadyRun builds a 1 Hz workout of seconds+1 points covering meters at
// constant speed, with device distance, speed and a constant heart rate
func steadyRun(seconds int, meters float64, hr int) []store.Trackpoint {
	speed := meters / float64(seconds)
	points := make([]store.Trackpoint, seconds+1)
	for i := range points {
		p := store.Trackpoint{
			Time:     testStart.Add(time.Duration(i) * time.Second),
			Distance: floatPtr(float64(i) * meters / float64(seconds)),
			Speed:    floatPtr(speed),
		}
		if hr > 0 {
			p.HeartRate = intPtr(hr)
		}
		points[i] = p
	}
	return points
}

// phaseBlock describes a constant-effort block for buildPhases
type phaseBlock struct {
	seconds  int
	cadence  int
	speed    float64
	hr       int
	standing bool // device reports a cadence of 0
}

// buildPhases builds a 1 Hz workout from consecutive constant-effort blocks.
// Each point carries the distance covered before it.
func buildPhases(phases []phaseBlock) []store.Trackpoint {
	var points []store.Trackpoint
	dist := 0.0
	i := 0
	for _, ph := range phases {
		for s := 0; s < ph.seconds; s++ {
			p := store.Trackpoint{
				Time:     testStart.Add(time.Duration(i) * time.Second),
				Distance: floatPtr(dist),
				Speed:    floatPtr(ph.speed),
			}
			switch {
			case ph.standing:
				p.Cadence = intPtr(0)
			case ph.cadence > 0:
				p.Cadence = intPtr(ph.cadence)
			}
			if ph.hr > 0 {
				p.HeartRate = intPtr(ph.hr)
			}
			points = append(points, p)
			dist += ph.speed
			i++
		}
	}
	return points
}

// runWalkRepeats alternates run and walk blocks reps times
func runWalkRepeats(reps int, run, walk phaseBlock) []phaseBlock {
	var phases []phaseBlock
	for r := 0; r < reps; r++ {
		phases = append(phases, run, walk)
	}
	return phases
}
