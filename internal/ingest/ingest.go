// Package ingest decodes TCX, GPX and FIT activity files into workouts and trackpoints.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"runlog/internal/store"
)

var (
	// ErrUnsupportedFormat is returned for files that are not TCX, GPX or FIT
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoActivity is returned when a file holds no activity or no timed samples
	ErrNoActivity = errors.New("no activity found")
)

// SupportedExtensions lists the file extensions ParseFile understands
var SupportedExtensions = []string{".tcx", ".gpx", ".fit"}

// Parsed is a decoded activity file
type Parsed struct {
	Workout store.Workout
	Points  []store.Trackpoint
}

// IsSupported reports whether path has a supported extension
func IsSupported(path string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// ParseFile decodes an activity file, choosing the decoder by extension
func ParseFile(path string) (*Parsed, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(SupportedExtensions, ext) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var parsed *Parsed
	switch ext {
	case ".tcx":
		parsed, err = ParseTCX(f)
	case ".gpx":
		parsed, err = ParseGPX(f)
	case ".fit":
		parsed, err = ParseFIT(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	parsed.Workout.FileName = filepath.Base(path)
	return parsed, nil
}

// fillSummary derives the workout summary fields the file did not provide
func fillSummary(w *store.Workout, points []store.Trackpoint) {
	if len(points) == 0 {
		return
	}
	first, last := points[0], points[len(points)-1]

	if w.StartTime.IsZero() {
		w.StartTime = first.Time
	}
	if w.TotalTimeSec <= 0 {
		w.TotalTimeSec = last.Time.Sub(first.Time).Seconds()
	}
	if w.DistanceM <= 0 && last.Distance != nil && first.Distance != nil {
		w.DistanceM = *last.Distance - *first.Distance
	}
	if w.Sport == "" {
		w.Sport = "Unknown"
	}

	var speedSum, cadSum, hrSum float64
	var speedN, cadN, hrN, maxHR int
	for _, p := range points {
		if p.Speed != nil && *p.Speed > 0 {
			speedSum += *p.Speed
			speedN++
		}
		if p.Cadence != nil && *p.Cadence > 0 {
			cadSum += float64(*p.Cadence)
			cadN++
		}
		if p.HeartRate != nil && *p.HeartRate > 0 {
			hrSum += float64(*p.HeartRate)
			hrN++
			maxHR = max(maxHR, *p.HeartRate)
		}
	}

	if w.AvgSpeedMS == nil && speedN > 0 {
		v := speedSum / float64(speedN)
		w.AvgSpeedMS = &v
	}
	if w.AvgCadence == nil && cadN > 0 {
		v := cadSum / float64(cadN)
		w.AvgCadence = &v
	}
	if w.AvgHR == nil && hrN > 0 {
		v := hrSum / float64(hrN)
		w.AvgHR = &v
	}
	if w.MaxHR == nil && maxHR > 0 {
		w.MaxHR = &maxHR
	}

	// Average pace always comes from total time over total distance
	if w.AvgPaceSecKm == nil && w.DistanceM > 0 && w.TotalTimeSec > 0 {
		v := w.TotalTimeSec / (w.DistanceM / 1000)
		w.AvgPaceSecKm = &v
	}
}
