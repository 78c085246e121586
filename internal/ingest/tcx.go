package ingest

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"runlog/internal/store"
)

// Garmin TrainingCenterDatabase v2. Speed comes from the ActivityExtension v2 TPX block.
type tcxDatabase struct {
	Activities []tcxActivity `xml:"Activities>Activity"`
}

type tcxActivity struct {
	Sport string   `xml:"Sport,attr"`
	ID    string   `xml:"Id"`
	Notes string   `xml:"Notes"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	TotalTimeSeconds float64         `xml:"TotalTimeSeconds"`
	DistanceMeters   float64         `xml:"DistanceMeters"`
	Calories         int             `xml:"Calories"`
	AvgHR            *int            `xml:"AverageHeartRateBpm>Value"`
	MaxHR            *int            `xml:"MaximumHeartRateBpm>Value"`
	Trackpoints      []tcxTrackpoint `xml:"Track>Trackpoint"`
}

type tcxTrackpoint struct {
	Time     string   `xml:"Time"`
	Lat      *float64 `xml:"Position>LatitudeDegrees"`
	Lon      *float64 `xml:"Position>LongitudeDegrees"`
	Distance *float64 `xml:"DistanceMeters"`
	HR       *int     `xml:"HeartRateBpm>Value"`
	Cadence  *int     `xml:"Cadence"`
	Speed    *float64 `xml:"Extensions>TPX>Speed"`
}

// ParseTCX decodes the first activity of a TCX document. Lap totals are summed,
// average HR is the mean of lap averages and max HR the highest lap maximum.
func ParseTCX(r io.Reader) (*Parsed, error) {
	var db tcxDatabase
	if err := xml.NewDecoder(r).Decode(&db); err != nil {
		return nil, fmt.Errorf("decoding tcx: %w", err)
	}
	if len(db.Activities) == 0 {
		return nil, fmt.Errorf("tcx: %w", ErrNoActivity)
	}
	act := db.Activities[0]

	w := store.Workout{
		Sport: act.Sport,
		Notes: strings.TrimSpace(act.Notes),
	}
	if t, err := parseTime(act.ID); err == nil {
		w.StartTime = t
	}

	var points []store.Trackpoint
	var lapAvgs []int
	calories, maxHR := 0, 0
	for _, lap := range act.Laps {
		w.TotalTimeSec += lap.TotalTimeSeconds
		w.DistanceM += lap.DistanceMeters
		calories += lap.Calories
		if lap.AvgHR != nil && *lap.AvgHR > 0 {
			lapAvgs = append(lapAvgs, *lap.AvgHR)
		}
		if lap.MaxHR != nil && *lap.MaxHR > maxHR {
			maxHR = *lap.MaxHR
		}

		for _, tp := range lap.Trackpoints {
			t, err := parseTime(tp.Time)
			if err != nil {
				continue
			}
			points = append(points, store.Trackpoint{
				Time:      t,
				Lat:       tp.Lat,
				Lon:       tp.Lon,
				HeartRate: tp.HR,
				Cadence:   tp.Cadence,
				Speed:     tp.Speed,
				Distance:  tp.Distance,
			})
		}
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("tcx: %w: no timed trackpoints", ErrNoActivity)
	}

	if calories > 0 {
		w.Calories = &calories
	}
	if len(lapAvgs) > 0 {
		sum := 0
		for _, v := range lapAvgs {
			sum += v
		}
		v := float64(sum) / float64(len(lapAvgs))
		w.AvgHR = &v
	}
	if maxHR > 0 {
		w.MaxHR = &maxHR
	}

	fillSummary(&w, points)
	return &Parsed{Workout: w, Points: points}, nil
}

// parseTime accepts RFC 3339 timestamps with or without a zone, as written by
// Garmin and Zepp exports. Zone-less values are taken as UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05.999999999", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
