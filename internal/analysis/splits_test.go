package analysis

import (
	"testing"
	"time"

	"runlog/internal/store"
)

func TestSplits_SteadyTenMinutes(t *testing.T) {
	points := steadyRun(600, 2000, 150)
	cum, _ := CumulativeDistances(points)

	splits := Splits(points, cum, 1000)
	if len(splits) != 2 {
		t.Fatalf("len(splits) = %d, want 2", len(splits))
	}

	for i, s := range splits {
		if s.Index != i+1 {
			t.Errorf("splits[%d].Index = %d, want %d", i, s.Index, i+1)
		}
		if s.Partial {
			t.Errorf("splits[%d] should not be partial", i)
		}
		if !approxEqual(s.Duration, 300, 1e-9) {
			t.Errorf("splits[%d].Duration = %v, want 300", i, s.Duration)
		}
		if s.Pace == nil || !approxEqual(*s.Pace, 5.0, 1e-9) {
			t.Errorf("splits[%d].Pace = %v, want 5.0", i, s.Pace)
		}
		if s.AvgHR == nil || *s.AvgHR != 150 {
			t.Errorf("splits[%d].AvgHR = %v, want 150", i, s.AvgHR)
		}
		if s.Fastest || s.Slowest {
			t.Errorf("splits[%d] flagged with equal durations", i)
		}
	}

	if splits[0].StartIndex != 0 || splits[0].EndIndex != 300 {
		t.Errorf("splits[0] indices = [%d, %d], want [0, 300]", splits[0].StartIndex, splits[0].EndIndex)
	}
	if splits[1].StartIndex != 301 || splits[1].EndIndex != 600 {
		t.Errorf("splits[1] indices = [%d, %d], want [301, 600]", splits[1].StartIndex, splits[1].EndIndex)
	}
}

func TestSplits_PartialSumsToTotal(t *testing.T) {
	points := steadyRun(750, 2500, 0)
	cum, _ := CumulativeDistances(points)

	splits := Splits(points, cum, 1000)
	if len(splits) != 3 {
		t.Fatalf("len(splits) = %d, want 3", len(splits))
	}

	last := splits[2]
	if !last.Partial {
		t.Error("last split should be partial")
	}
	if !approxEqual(last.Distance, 500, 1e-6) {
		t.Errorf("partial distance = %v, want 500", last.Distance)
	}

	var sumDist, sumDur float64
	for _, s := range splits {
		sumDist += s.Distance
		sumDur += s.Duration
	}
	if !approxEqual(sumDist, cum[len(cum)-1], 1e-6) {
		t.Errorf("sum of split distances = %v, want %v", sumDist, cum[len(cum)-1])
	}
	if !approxEqual(sumDur, 750, 1e-6) {
		t.Errorf("sum of split durations = %v, want 750", sumDur)
	}
	if splits[0].AvgHR != nil {
		t.Errorf("AvgHR = %v, want nil without heart rate", *splits[0].AvgHR)
	}
}

func TestSplits_FastestAndSlowest(t *testing.T) {
	points := buildPhases([]phaseBlock{
		{seconds: 250, speed: 4},
		{seconds: 400, speed: 2.5},
		{seconds: 200, speed: 5},
	})
	cum, _ := CumulativeDistances(points)

	splits := Splits(points, cum, 1000)
	if len(splits) != 3 {
		t.Fatalf("len(splits) = %d, want 3", len(splits))
	}

	if !approxEqual(splits[0].Duration, 250, 1e-6) {
		t.Errorf("splits[0].Duration = %v, want 250", splits[0].Duration)
	}
	if !approxEqual(splits[1].Duration, 400, 1e-6) {
		t.Errorf("splits[1].Duration = %v, want 400", splits[1].Duration)
	}
	if !splits[0].Fastest || splits[0].Slowest {
		t.Errorf("splits[0] flags = fastest %v slowest %v", splits[0].Fastest, splits[0].Slowest)
	}
	if !splits[1].Slowest || splits[1].Fastest {
		t.Errorf("splits[1] flags = fastest %v slowest %v", splits[1].Fastest, splits[1].Slowest)
	}
	if !splits[2].Partial || splits[2].Fastest || splits[2].Slowest {
		t.Errorf("partial split should not be flagged: %+v", splits[2])
	}
}

func TestSplits_InterpolatedCrossing(t *testing.T) {
	// 3 m per second: 1000 m is crossed a third of the way from 333 s to 334 s
	points := steadyRun(400, 1200, 0)
	cum, _ := CumulativeDistances(points)

	splits := Splits(points, cum, 1000)
	if len(splits) != 2 {
		t.Fatalf("len(splits) = %d, want 2", len(splits))
	}
	if !approxEqual(splits[0].Duration, 1000.0/3, 1e-6) {
		t.Errorf("Duration = %v, want %v", splits[0].Duration, 1000.0/3)
	}
	if splits[0].EndIndex != 333 {
		t.Errorf("EndIndex = %d, want 333", splits[0].EndIndex)
	}
	if splits[1].StartIndex != 334 {
		t.Errorf("StartIndex = %d, want 334", splits[1].StartIndex)
	}
}

func TestSplits_ShortWorkout(t *testing.T) {
	points := steadyRun(60, 200, 0)
	cum, _ := CumulativeDistances(points)

	splits := Splits(points, cum, 1000)
	if len(splits) != 1 || !splits[0].Partial {
		t.Fatalf("splits = %+v, want a single partial split", splits)
	}
	if splits[0].Fastest || splits[0].Slowest {
		t.Error("single split should not be flagged")
	}

	if got := Splits(points[:1], cum[:1], 1000); got != nil {
		t.Errorf("Splits(single point) = %v, want nil", got)
	}
}

func TestSplits_GapSpanningWholeSplit(t *testing.T) {
	// 100 s at 5 m/s, then a dropout jumping from 500 m to 2600 m over 300 s
	var points []store.Trackpoint
	for i := 0; i <= 100; i++ {
		points = append(points, store.Trackpoint{
			Time:      testStart.Add(time.Duration(i) * time.Second),
			Distance:  floatPtr(float64(i) * 5),
			HeartRate: intPtr(150),
			Cadence:   intPtr(170),
		})
	}
	for i := 0; i <= 20; i++ {
		points = append(points, store.Trackpoint{
			Time:      testStart.Add(time.Duration(400+i) * time.Second),
			Distance:  floatPtr(2600 + float64(i)*5),
			HeartRate: intPtr(175),
		})
	}
	cum, _ := CumulativeDistances(points)

	splits := Splits(points, cum, 1000)
	if len(splits) != 3 {
		t.Fatalf("len(splits) = %d, want 3", len(splits))
	}

	first, empty, partial := splits[0], splits[1], splits[2]
	if first.StartIndex != 0 || first.EndIndex != 100 {
		t.Errorf("splits[0] indices = [%d, %d], want [0, 100]", first.StartIndex, first.EndIndex)
	}
	if first.AvgHR == nil || *first.AvgHR != 150 {
		t.Errorf("splits[0].AvgHR = %v, want 150", first.AvgHR)
	}

	if empty.StartIndex != 101 || empty.EndIndex != 100 {
		t.Errorf("splits[1] indices = [%d, %d], want [101, 100]", empty.StartIndex, empty.EndIndex)
	}
	if empty.AvgHR != nil || empty.AvgCadence != nil {
		t.Errorf("splits[1] HR/cadence = %v/%v, want nil", empty.AvgHR, empty.AvgCadence)
	}
	if !approxEqual(empty.Distance, 1000, 1e-6) || empty.Duration <= 0 {
		t.Errorf("splits[1] = %vm in %vs", empty.Distance, empty.Duration)
	}

	if !partial.Partial || partial.StartIndex != 101 || partial.EndIndex != len(points)-1 {
		t.Errorf("splits[2] = %+v, want partial from 101", partial)
	}
	if partial.AvgHR == nil || *partial.AvgHR != 175 {
		t.Errorf("splits[2].AvgHR = %v, want 175", partial.AvgHR)
	}
}
