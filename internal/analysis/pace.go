package analysis

import (
	"iter"
	"time"

	"runlog/internal/store"
)

// PaceBlock is the average pace over one fixed time block
type PaceBlock struct {
	Start     time.Time `json:"start"`
	OffsetSec float64   `json:"offset_s"`
	Duration  float64   `json:"duration_s"`
	Distance  float64   `json:"distance_m"`
	Pace      *float64  `json:"pace_min_km"` // nil when the block covered no distance
}

// PaceBlocks yields block-averaged pace aligned to the first trackpoint.
// Each block spans blockSeconds except the last, which ends at the final sample.
// The sequence is lazy and can be ranged over any number of times.
func PaceBlocks(points []store.Trackpoint, cum []float64, blockSeconds int) iter.Seq[PaceBlock] {
	return func(yield func(PaceBlock) bool) {
		if len(points) < 2 || len(cum) != len(points) || blockSeconds <= 0 {
			return
		}

		start := points[0].Time
		total := points[len(points)-1].Time.Sub(start).Seconds()
		block := float64(blockSeconds)
		interp := newDistanceInterpolator(points, cum)
		prev := interp.at(0)

		for k := 0; float64(k)*block < total; k++ {
			from := float64(k) * block
			to := min(from+block, total)

			cur := interp.at(to)
			dist := cur - prev
			prev = cur
			b := PaceBlock{
				Start:     start.Add(time.Duration(from * float64(time.Second))),
				OffsetSec: from,
				Duration:  to - from,
				Distance:  dist,
				Pace:      paceMinPerKm(to-from, dist),
			}
			if !yield(b) {
				return
			}
		}
	}
}

// paceMinPerKm converts seconds over meters to minutes per kilometer.
// Returns nil when no distance was covered.
func paceMinPerKm(seconds, meters float64) *float64 {
	if meters <= 0 || seconds <= 0 {
		return nil
	}
	p := seconds / 60 / (meters / 1000)
	return &p
}

// distanceInterpolator answers cumulative distance at increasing time offsets
type distanceInterpolator struct {
	offsets []float64
	cum     []float64
	cursor  int
}

func newDistanceInterpolator(points []store.Trackpoint, cum []float64) *distanceInterpolator {
	offsets := make([]float64, len(points))
	for i, p := range points {
		offsets[i] = p.Time.Sub(points[0].Time).Seconds()
	}
	return &distanceInterpolator{offsets: offsets, cum: cum}
}

// at returns the linearly interpolated distance at offset seconds.
// Calls must use non-decreasing offsets.
func (d *distanceInterpolator) at(offset float64) float64 {
	n := len(d.offsets)
	for d.cursor+1 < n && d.offsets[d.cursor+1] <= offset {
		d.cursor++
	}
	if d.cursor == n-1 || offset <= d.offsets[d.cursor] {
		return d.cum[d.cursor]
	}
	t0, t1 := d.offsets[d.cursor], d.offsets[d.cursor+1]
	frac := (offset - t0) / (t1 - t0)
	return d.cum[d.cursor] + frac*(d.cum[d.cursor+1]-d.cum[d.cursor])
}
