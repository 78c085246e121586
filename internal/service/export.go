package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"runlog/internal/store"
)

// CSVHeader is the column layout written by ExportCSV
var CSVHeader = []string{"time", "latitude", "longitude", "hr_bpm", "cadence", "speed_ms", "distance_m"}

// ExportCSV writes trackpoints as CSV. Missing values are empty cells.
func ExportCSV(w io.Writer, points []store.Trackpoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, p := range points {
		row := []string{
			p.Time.UTC().Format(time.RFC3339),
			formatFloat(p.Lat),
			formatFloat(p.Lon),
			formatInt(p.HeartRate),
			formatInt(p.Cadence),
			formatFloat(p.Speed),
			formatFloat(p.Distance),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportWorkoutCSV writes the trackpoints of one workout as CSV
func (q *QueryService) ExportWorkoutCSV(w io.Writer, id int64) error {
	points, err := q.Trackpoints(id)
	if err != nil {
		return err
	}
	return ExportCSV(w, points)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
