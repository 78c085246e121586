package service

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"runlog/internal/analysis"
	"runlog/internal/store"
)

var fixedNow = time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC) // a Wednesday

// openTestDB creates an in-memory database with migrations applied
func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestImporter(t *testing.T, db *store.DB) *ImportService {
	t.Helper()
	s := NewImportService(db, analysis.DefaultConfig(), discardLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func newTestQuery(db *store.DB) *QueryService {
	q := NewQueryService(db)
	q.now = func() time.Time { return fixedNow }
	return q
}

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

// runTCX renders a single-lap 1 Hz running workout covering meters in seconds
// at constant speed and heart rate
func runTCX(start time.Time, seconds int, meters float64, hr int) string {
	speed := meters / float64(seconds)
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<TrainingCenterDatabase xmlns="http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2"
  xmlns:ns3="http://www.garmin.com/xmlschemas/ActivityExtension/v2">
<Activities><Activity Sport="Running"><Id>%s</Id>
<Lap StartTime="%s"><TotalTimeSeconds>%d</TotalTimeSeconds><DistanceMeters>%v</DistanceMeters>
<Calories>150</Calories><AverageHeartRateBpm><Value>%d</Value></AverageHeartRateBpm>
<MaximumHeartRateBpm><Value>%d</Value></MaximumHeartRateBpm><Track>
`, start.Format(time.RFC3339), start.Format(time.RFC3339), seconds, meters, hr, hr)
	for i := 0; i <= seconds; i++ {
		fmt.Fprintf(&b, `<Trackpoint><Time>%s</Time><DistanceMeters>%v</DistanceMeters>`+
			`<HeartRateBpm><Value>%d</Value></HeartRateBpm>`+
			`<Extensions><ns3:TPX><ns3:Speed>%v</ns3:Speed></ns3:TPX></Extensions></Trackpoint>
`, start.Add(time.Duration(i)*time.Second).Format(time.RFC3339), float64(i)*speed, hr, speed)
	}
	b.WriteString("</Track></Lap></Activity></Activities></TrainingCenterDatabase>\n")
	return b.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// writeRun writes a runTCX workout to dir/name
func writeRun(t *testing.T, dir, name string, start time.Time, seconds int, meters float64, hr int) string {
	t.Helper()
	return writeFile(t, dir, name, runTCX(start, seconds, meters, hr))
}

// seedWorkout stores a summary-only workout
func seedWorkout(t *testing.T, db *store.DB, name string, start time.Time, meters, seconds float64) int64 {
	t.Helper()
	w := &store.Workout{
		FileName:     name,
		Sport:        "Running",
		StartTime:    start,
		TotalTimeSec: seconds,
		DistanceM:    meters,
		Calories:     intPtr(100),
		AvgHR:        floatPtr(150),
		AvgPaceSecKm: floatPtr(seconds / (meters / 1000)),
	}
	id, err := db.InsertWorkout(w, nil)
	if err != nil {
		t.Fatalf("seeding %s: %v", name, err)
	}
	return id
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
