package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"runlog/internal/store"
)

// ReportSchemaVersion is bumped whenever a Report field changes meaning or is removed
const ReportSchemaVersion = 1

// IntervalStatus explains whether Report.Intervals is present
type IntervalStatus string

const (
	IntervalsDetected         IntervalStatus = "detected"
	IntervalsNotApplicable    IntervalStatus = "not_applicable"
	IntervalsInsufficientData IntervalStatus = "insufficient_data"
)

// ErrUnsupportedSchema is returned when decoding a report from a newer schema
var ErrUnsupportedSchema = errors.New("unsupported report schema version")

// Summary holds whole-workout metrics
type Summary struct {
	TotalDistance      float64  `json:"total_distance_m"`
	Duration           float64  `json:"duration_s"`
	AvgPace            *float64 `json:"avg_pace_min_km"`
	AvgSpeed           *float64 `json:"avg_speed_ms"`
	AvgHR              *float64 `json:"avg_hr"`
	MaxHR              *int     `json:"max_hr"`
	AvgCadence         *float64 `json:"avg_cadence"`
	Calories           *int     `json:"calories"`
	Points             int      `json:"points"`
	InvalidCoordinates int      `json:"invalid_coordinates"`
	AvgEfficiency      *float64 `json:"avg_efficiency"`
	AerobicDecoupling  *float64 `json:"aerobic_decoupling_pct"`
}

// Report is the full analytics output for one workout
type Report struct {
	SchemaVersion  int                `json:"schema_version"`
	WorkoutStart   time.Time          `json:"workout_start"`
	Summary        Summary            `json:"summary"`
	Zones          ZoneSeconds        `json:"zones"`
	Splits         []Split            `json:"splits"`
	Records        []Record           `json:"records"`
	Pace           []PaceBlock        `json:"pace"`
	Efficiency     []EfficiencySample `json:"efficiency"`
	Intervals      *IntervalAnalysis  `json:"intervals"`
	IntervalStatus IntervalStatus     `json:"interval_status"`
}

// Record returns the report's record for distance, or nil
func (r *Report) Record(distance float64) *Record {
	for i := range r.Records {
		if r.Records[i].Distance == distance {
			return &r.Records[i]
		}
	}
	return nil
}

// FastestSplit returns the flagged fastest split, or nil
func (r *Report) FastestSplit() *Split {
	for i := range r.Splits {
		if r.Splits[i].Fastest {
			return &r.Splits[i]
		}
	}
	return nil
}

// Validate checks the ordering invariants every analysis step relies on
func Validate(points []store.Trackpoint) error {
	if len(points) == 0 {
		return ErrEmptyWorkout
	}
	for i := 1; i < len(points); i++ {
		if points[i].Time.Before(points[i-1].Time) {
			return fmt.Errorf("%w: point %d at %s precedes %s", ErrNonMonotonicTimestamp,
				i, points[i].Time.Format(time.RFC3339), points[i-1].Time.Format(time.RFC3339))
		}
		if points[i].Distance != nil && points[i-1].Distance != nil && *points[i].Distance < *points[i-1].Distance {
			return fmt.Errorf("%w: point %d", ErrNonMonotonicDistance, i)
		}
	}
	return nil
}

// Analyze runs every analysis step over one workout. Structural problems
// (ordering, too many bad coordinates, invalid config) are returned as errors.
// Missing optional signals only drop the fields that need them.
func Analyze(workout store.Workout, points []store.Trackpoint, cfg Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := Validate(points); err != nil {
		return nil, err
	}

	cum, invalid := CumulativeDistances(points)
	if positioned := countPositioned(points); invalid > 0 &&
		float64(invalid) > cfg.MaxInvalidCoordinateFraction*float64(positioned) {
		return nil, fmt.Errorf("%w: %d of %d positions out of range", ErrInvalidCoordinate, invalid, positioned)
	}

	report := &Report{
		SchemaVersion: ReportSchemaVersion,
		WorkoutStart:  points[0].Time,
		Summary:       summarize(workout, points, cum, invalid, cfg.CadencePlausibilityFloor),
		Splits:        Splits(points, cum, cfg.SplitDistance),
		Records:       FindRecords(points, cum, cfg.ReferenceDistances),
		Pace:          slices.Collect(PaceBlocks(points, cum, cfg.SmoothingBlockSeconds)),
		Efficiency:    slices.Collect(EfficiencySeries(points)),
	}

	// Lists always encode as [], never null
	if report.Splits == nil {
		report.Splits = []Split{}
	}
	if report.Records == nil {
		report.Records = []Record{}
	}
	if report.Pace == nil {
		report.Pace = []PaceBlock{}
	}
	if report.Efficiency == nil {
		report.Efficiency = []EfficiencySample{}
	}

	if zones, err := ZoneDistribution(points, cfg.ZoneBoundaries); err == nil {
		report.Zones = zones
	}

	intervals, err := DetectIntervals(points, cum, cfg.CadencePlausibilityFloor, cfg.Intervals)
	switch {
	case err == nil:
		report.Intervals = intervals
		report.IntervalStatus = IntervalsDetected
	case errors.Is(err, ErrSegmentationNotApplicable):
		report.IntervalStatus = IntervalsNotApplicable
	default:
		report.IntervalStatus = IntervalsInsufficientData
	}

	return report, nil
}

func summarize(workout store.Workout, points []store.Trackpoint, cum []float64, invalid int, cadenceFloor float64) Summary {
	s := Summary{
		Points:             len(points),
		InvalidCoordinates: invalid,
		Calories:           workout.Calories,
		TotalDistance:      cum[len(cum)-1],
		Duration:           points[len(points)-1].Time.Sub(points[0].Time).Seconds(),
	}
	if s.TotalDistance <= 0 && workout.DistanceM > 0 {
		s.TotalDistance = workout.DistanceM
	}
	if workout.TotalTimeSec > 0 {
		s.Duration = workout.TotalTimeSec
	}

	s.AvgPace = paceMinPerKm(s.Duration, s.TotalDistance)
	if s.Duration > 0 && s.TotalDistance > 0 {
		v := s.TotalDistance / s.Duration
		s.AvgSpeed = &v
	}

	var cadences []float64
	maxHR := 0
	for _, p := range points {
		if p.HeartRate != nil && *p.HeartRate > maxHR {
			maxHR = *p.HeartRate
		}
		if p.Cadence != nil && *p.Cadence > 0 {
			cadences = append(cadences, float64(*p.Cadence))
		}
	}

	s.AvgHR, _ = meanHRAndCadence(points)
	if s.AvgHR == nil {
		s.AvgHR = workout.AvgHR
	}
	if maxHR > 0 {
		s.MaxHR = &maxHR
	} else {
		s.MaxHR = workout.MaxHR
	}

	if len(cadences) > 0 {
		corrected, _ := CorrectHalfStep(cadences, cadenceFloor)
		v := mean(corrected)
		s.AvgCadence = &v
	}

	if ef, err := MeanEfficiency(points); err == nil {
		s.AvgEfficiency = &ef
	}
	if d, err := AerobicDecoupling(points); err == nil {
		s.AerobicDecoupling = &d
	}
	return s
}

// MarshalReport encodes a report for storage
func MarshalReport(r *Report) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalReport decodes a stored report, rejecting newer schema versions
func UnmarshalReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	if r.SchemaVersion > ReportSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSchema, r.SchemaVersion)
	}
	return &r, nil
}
