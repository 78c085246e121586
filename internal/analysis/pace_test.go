package analysis

import (
	"testing"
	"time"

	"runlog/internal/store"
)

func TestPaceBlocks_ConstantPace(t *testing.T) {
	points := steadyRun(600, 2000, 150)
	cum, _ := CumulativeDistances(points)

	var blocks []PaceBlock
	for b := range PaceBlocks(points, cum, 30) {
		blocks = append(blocks, b)
	}

	if len(blocks) != 20 {
		t.Fatalf("len(blocks) = %d, want 20", len(blocks))
	}
	for i, b := range blocks {
		if b.Pace == nil || !approxEqual(*b.Pace, 5.0, 1e-9) {
			t.Errorf("blocks[%d].Pace = %v, want 5.0", i, b.Pace)
		}
		if b.OffsetSec != float64(i*30) {
			t.Errorf("blocks[%d].OffsetSec = %v, want %d", i, b.OffsetSec, i*30)
		}
		if !b.Start.Equal(testStart.Add(time.Duration(i*30) * time.Second)) {
			t.Errorf("blocks[%d].Start = %v", i, b.Start)
		}
	}
}

func TestPaceBlocks_Restartable(t *testing.T) {
	points := steadyRun(95, 300, 0)
	cum, _ := CumulativeDistances(points)
	seq := PaceBlocks(points, cum, 30)

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}

	first, second := count(), count()
	if first != 4 || second != 4 {
		t.Errorf("counts = %d, %d; want 4, 4", first, second)
	}

	// Last block is truncated at the final sample
	var last PaceBlock
	for b := range seq {
		last = b
	}
	if last.Duration != 5 {
		t.Errorf("last.Duration = %v, want 5", last.Duration)
	}

	// Early break stops the sequence
	n := 0
	for range seq {
		n++
		break
	}
	if n != 1 {
		t.Errorf("n = %d after break, want 1", n)
	}
}

func TestPaceBlocks_StationaryBlockIsUndefined(t *testing.T) {
	var points []store.Trackpoint
	for i := 0; i <= 90; i++ {
		d := float64(i) * 3
		if i > 30 && i <= 60 {
			d = 90 // standing still for the second block
		} else if i > 60 {
			d = 90 + float64(i-60)*3
		}
		points = append(points, store.Trackpoint{
			Time:     testStart.Add(time.Duration(i) * time.Second),
			Distance: floatPtr(d),
		})
	}
	cum, _ := CumulativeDistances(points)

	var paces []*float64
	for b := range PaceBlocks(points, cum, 30) {
		paces = append(paces, b.Pace)
	}
	if len(paces) != 3 {
		t.Fatalf("len(paces) = %d, want 3", len(paces))
	}
	if paces[1] != nil {
		t.Errorf("stationary block pace = %v, want nil", *paces[1])
	}
	if paces[0] == nil || paces[2] == nil {
		t.Error("moving blocks should have a pace")
	}
}

func TestPaceBlocks_TooFewPoints(t *testing.T) {
	points := steadyRun(1, 3, 0)[:1]
	cum, _ := CumulativeDistances(points)
	for range PaceBlocks(points, cum, 30) {
		t.Fatal("expected no blocks for a single point")
	}
}
