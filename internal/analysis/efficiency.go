package analysis

import (
	"fmt"
	"iter"
	"math"
	"time"

	"runlog/internal/store"
)

// MinDecouplingSamples is the minimum number of efficiency samples (~2 minutes at 1 Hz)
const MinDecouplingSamples = 120

// EfficiencySample is aerobic efficiency at one trackpoint
type EfficiencySample struct {
	Time      time.Time `json:"time"`
	OffsetSec float64   `json:"offset_s"`
	Index     int       `json:"index"`
	Value     float64   `json:"meters_per_beat"`
}

// Efficiency returns meters travelled per heartbeat: speed / (hr / 60).
// ok is false when the inputs cannot produce a finite, non-negative value.
func Efficiency(speed float64, hr int) (value float64, ok bool) {
	if hr <= 0 || speed < 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return 0, false
	}
	v := speed / (float64(hr) / 60)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// EfficiencySeries yields efficiency for every trackpoint carrying both speed and
// heart rate. Points missing either are skipped, never zero-filled. The sequence
// is lazy and can be ranged over any number of times.
func EfficiencySeries(points []store.Trackpoint) iter.Seq[EfficiencySample] {
	return func(yield func(EfficiencySample) bool) {
		if len(points) == 0 {
			return
		}
		start := points[0].Time
		for i, p := range points {
			if p.Speed == nil || p.HeartRate == nil {
				continue
			}
			v, ok := Efficiency(*p.Speed, *p.HeartRate)
			if !ok {
				continue
			}
			s := EfficiencySample{
				Time:      p.Time,
				OffsetSec: p.Time.Sub(start).Seconds(),
				Index:     i,
				Value:     v,
			}
			if !yield(s) {
				return
			}
		}
	}
}

// MeanEfficiency averages the efficiency series
func MeanEfficiency(points []store.Trackpoint) (float64, error) {
	var sum float64
	var count int
	for s := range EfficiencySeries(points) {
		sum += s.Value
		count++
	}
	if count == 0 {
		return 0, fmt.Errorf("efficiency: %w: no points with speed and heart rate", ErrInsufficientData)
	}
	return sum / float64(count), nil
}

// AerobicDecoupling compares efficiency between the first and second half of the
// samples, in percent. Positive means the second half was less efficient.
// < 5% on long runs indicates a good aerobic base.
func AerobicDecoupling(points []store.Trackpoint) (float64, error) {
	var samples []float64
	for s := range EfficiencySeries(points) {
		if s.Value > 0 {
			samples = append(samples, s.Value)
		}
	}
	if len(samples) < MinDecouplingSamples {
		return 0, fmt.Errorf("decoupling: %w: %d samples", ErrInsufficientData, len(samples))
	}

	mid := len(samples) / 2
	first := mean(samples[:mid])
	second := mean(samples[mid:])
	if second == 0 {
		return 0, fmt.Errorf("decoupling: %w: second half has no movement", ErrInsufficientData)
	}

	// ((first / second) - 1) * 100
	return (first/second - 1) * 100, nil
}

// DecouplingAssessment returns a human-readable decoupling assessment
func DecouplingAssessment(decoupling float64) string {
	switch {
	case decoupling < 3:
		return "Excellent aerobic base"
	case decoupling < 5:
		return "Good aerobic fitness"
	case decoupling < 8:
		return "Developing aerobic base"
	case decoupling < 12:
		return "Needs more easy miles"
	default:
		return "Aerobic system needs work"
	}
}
