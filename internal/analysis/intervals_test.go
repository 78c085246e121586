package analysis

import (
	"errors"
	"reflect"
	"testing"
)

var (
	runBlock  = phaseBlock{seconds: 60, cadence: 170, speed: 3.5, hr: 165}
	walkBlock = phaseBlock{seconds: 60, cadence: 80, speed: 1.2, hr: 130}
)

func detect(t *testing.T, phases []phaseBlock) (*IntervalAnalysis, error) {
	t.Helper()
	points := buildPhases(phases)
	cum, _ := CumulativeDistances(points)
	return DetectIntervals(points, cum, DefaultCadencePlausibilityFloor, DefaultIntervalConfig())
}

func countPhase(a *IntervalAnalysis, phase Phase) int {
	n := 0
	for _, iv := range a.Intervals {
		if iv.Phase == phase {
			n++
		}
	}
	return n
}

func TestDetectIntervals_RunWalk(t *testing.T) {
	a, err := detect(t, runWalkRepeats(5, runBlock, walkBlock))
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}

	if a.Signal != SignalCadence {
		t.Errorf("Signal = %q, want cadence", a.Signal)
	}
	if a.HalfStepCorrected {
		t.Error("HalfStepCorrected = true, want false")
	}
	if !approxEqual(a.Threshold, 125, 1e-9) {
		t.Errorf("Threshold = %v, want 125", a.Threshold)
	}

	if got := countPhase(a, PhaseRun); got != 5 {
		t.Errorf("run intervals = %d, want 5", got)
	}
	if got := countPhase(a, PhaseRecovery); got != 4 {
		t.Errorf("recovery intervals = %d, want 4", got)
	}
	if got := countPhase(a, PhaseWarmup); got != 0 {
		t.Errorf("warmup intervals = %d, want 0", got)
	}
	if last := a.Intervals[len(a.Intervals)-1]; last.Phase != PhaseCooldown {
		t.Errorf("last phase = %q, want cooldown", last.Phase)
	}

	for _, iv := range a.RunIntervals() {
		if iv.AvgCadence == nil || *iv.AvgCadence != 170 {
			t.Errorf("run %d cadence = %v, want 170", iv.Ordinal, iv.AvgCadence)
		}
		if iv.Duration != 60 {
			t.Errorf("run %d duration = %v, want 60", iv.Ordinal, iv.Duration)
		}
		if !approxEqual(iv.Distance, 210, 1e-9) {
			t.Errorf("run %d distance = %v, want 210", iv.Ordinal, iv.Distance)
		}
	}

	if a.Run.Count != 5 || a.Recovery.Count != 4 {
		t.Errorf("phase counts = %d/%d, want 5/4", a.Run.Count, a.Recovery.Count)
	}
	if a.Run.AvgCadence == nil || *a.Run.AvgCadence != 170 {
		t.Errorf("Run.AvgCadence = %v, want 170", a.Run.AvgCadence)
	}
	if a.Recovery.AvgCadence == nil || *a.Recovery.AvgCadence != 80 {
		t.Errorf("Recovery.AvgCadence = %v, want 80", a.Recovery.AvgCadence)
	}
	if a.Run.AvgHR == nil || *a.Run.AvgHR != 165 {
		t.Errorf("Run.AvgHR = %v, want 165", a.Run.AvgHR)
	}
	if a.Progression == nil || *a.Progression != ProgressionStable {
		t.Errorf("Progression = %v, want stable", a.Progression)
	}
}

func TestDetectIntervals_OrdinalsAndCoverage(t *testing.T) {
	a, err := detect(t, runWalkRepeats(5, runBlock, walkBlock))
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}

	runOrd, recOrd := 0, 0
	total := 0.0
	for i, iv := range a.Intervals {
		total += iv.Duration
		switch iv.Phase {
		case PhaseRun:
			runOrd++
			if iv.Ordinal != runOrd {
				t.Errorf("intervals[%d].Ordinal = %d, want %d", i, iv.Ordinal, runOrd)
			}
		case PhaseRecovery:
			recOrd++
			if iv.Ordinal != recOrd {
				t.Errorf("intervals[%d].Ordinal = %d, want %d", i, iv.Ordinal, recOrd)
			}
		}
		if i > 0 && iv.StartIndex != a.Intervals[i-1].EndIndex+1 {
			t.Errorf("intervals[%d] starts at %d, previous ended at %d", i, iv.StartIndex, a.Intervals[i-1].EndIndex)
		}
		if i > 0 && iv.Phase == a.Intervals[i-1].Phase {
			t.Errorf("intervals[%d] repeats phase %q", i, iv.Phase)
		}
	}
	if total != 600 {
		t.Errorf("summed durations = %v, want 600", total)
	}
}

func TestDetectIntervals_HalfStepCadence(t *testing.T) {
	run := runBlock
	run.cadence = 85
	walk := walkBlock
	walk.cadence = 40

	a, err := detect(t, runWalkRepeats(5, run, walk))
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}
	if !a.HalfStepCorrected {
		t.Error("HalfStepCorrected = false, want true")
	}
	if !approxEqual(a.Threshold, 125, 1e-9) {
		t.Errorf("Threshold = %v, want 125", a.Threshold)
	}
	if a.Run.AvgCadence == nil || *a.Run.AvgCadence != 170 {
		t.Errorf("Run.AvgCadence = %v, want 170", a.Run.AvgCadence)
	}
	if got := countPhase(a, PhaseRun); got != 5 {
		t.Errorf("run intervals = %d, want 5", got)
	}
}

func TestCorrectHalfStep(t *testing.T) {
	raw := []float64{85, 85, 40, 40}

	once, corrected := CorrectHalfStep(raw, DefaultCadencePlausibilityFloor)
	if !corrected {
		t.Fatal("expected correction")
	}
	if want := []float64{170, 170, 80, 80}; !reflect.DeepEqual(once, want) {
		t.Errorf("CorrectHalfStep() = %v, want %v", once, want)
	}
	if raw[0] != 85 {
		t.Error("input slice was modified")
	}

	twice, corrected := CorrectHalfStep(once, DefaultCadencePlausibilityFloor)
	if corrected {
		t.Error("second correction should be a no-op")
	}
	if !reflect.DeepEqual(twice, once) {
		t.Errorf("CorrectHalfStep(corrected) = %v, want %v", twice, once)
	}

	plausible := []float64{170, 165, 90}
	if out, corrected := CorrectHalfStep(plausible, DefaultCadencePlausibilityFloor); corrected || !reflect.DeepEqual(out, plausible) {
		t.Errorf("CorrectHalfStep(plausible) = %v, %v", out, corrected)
	}
}

func TestDetectIntervals_WarmupAndCooldown(t *testing.T) {
	warm := walkBlock
	warm.seconds = 120
	phases := append([]phaseBlock{warm}, runWalkRepeats(4, runBlock, walkBlock)...)

	a, err := detect(t, phases)
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}

	if a.Intervals[0].Phase != PhaseWarmup {
		t.Errorf("first phase = %q, want warmup", a.Intervals[0].Phase)
	}
	if a.Intervals[0].Duration != 120 {
		t.Errorf("warmup duration = %v, want 120", a.Intervals[0].Duration)
	}
	if a.Intervals[0].Ordinal != 0 {
		t.Errorf("warmup ordinal = %d, want 0", a.Intervals[0].Ordinal)
	}
	if a.Intervals[len(a.Intervals)-1].Phase != PhaseCooldown {
		t.Errorf("last phase = %q, want cooldown", a.Intervals[len(a.Intervals)-1].Phase)
	}
	if a.Run.Count != 4 || a.Recovery.Count != 3 {
		t.Errorf("phase counts = %d/%d, want 4/3", a.Run.Count, a.Recovery.Count)
	}
}

func TestDetectIntervals_AbsorbsShortBlips(t *testing.T) {
	blip := runBlock
	blip.seconds = 3
	blip.cadence = 80
	firstHalf := runBlock
	firstHalf.seconds = 30
	secondHalf := runBlock
	secondHalf.seconds = 27

	phases := []phaseBlock{firstHalf, blip, secondHalf, walkBlock}
	phases = append(phases, runWalkRepeats(4, runBlock, walkBlock)...)

	a, err := detect(t, phases)
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}
	if got := countPhase(a, PhaseRun); got != 5 {
		t.Errorf("run intervals = %d, want 5", got)
	}
	if a.Intervals[0].Duration != 60 {
		t.Errorf("first run duration = %v, want 60", a.Intervals[0].Duration)
	}
}

func TestDetectIntervals_Progression(t *testing.T) {
	tests := []struct {
		name   string
		speeds []float64
		want   Progression
	}{
		{"accelerating", []float64{3.0, 3.2, 3.4, 3.6, 3.8}, ProgressionAccelerating},
		{"decelerating", []float64{3.8, 3.6, 3.4, 3.2, 3.0}, ProgressionDecelerating},
		{"stable", []float64{3.5, 3.5, 3.5, 3.5, 3.5}, ProgressionStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var phases []phaseBlock
			for _, v := range tt.speeds {
				run := runBlock
				run.speed = v
				phases = append(phases, run, walkBlock)
			}

			a, err := detect(t, phases)
			if err != nil {
				t.Fatalf("DetectIntervals() error = %v", err)
			}
			if a.Progression == nil {
				t.Fatal("Progression = nil")
			}
			if *a.Progression != tt.want {
				t.Errorf("Progression = %q, want %q (slope %v)", *a.Progression, tt.want, *a.ProgressionSlope)
			}

			var deltaSum float64
			for _, iv := range a.RunIntervals() {
				if iv.PaceDelta == nil {
					t.Fatalf("run %d has no PaceDelta", iv.Ordinal)
				}
				deltaSum += *iv.PaceDelta
			}
			if !approxEqual(deltaSum, 0, 1e-9) {
				t.Errorf("sum of pace deltas = %v, want 0", deltaSum)
			}
		})
	}
}

func TestDetectIntervals_SingleRunHasNoProgression(t *testing.T) {
	a, err := detect(t, []phaseBlock{walkBlock, runBlock, walkBlock})
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}
	if a.Progression != nil {
		t.Errorf("Progression = %q, want nil", *a.Progression)
	}
	if a.Run.Count != 1 || a.Recovery.Count != 0 {
		t.Errorf("phase counts = %d/%d, want 1/0", a.Run.Count, a.Recovery.Count)
	}
}

func TestDetectIntervals_SpeedFallback(t *testing.T) {
	run := runBlock
	run.cadence = 0
	walk := walkBlock
	walk.cadence = 0

	a, err := detect(t, runWalkRepeats(5, run, walk))
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}
	if a.Signal != SignalSpeed {
		t.Errorf("Signal = %q, want speed", a.Signal)
	}
	if a.Threshold <= 1.2 || a.Threshold >= 3.5 {
		t.Errorf("Threshold = %v, want between 1.2 and 3.5", a.Threshold)
	}
	if got := countPhase(a, PhaseRun); got != 5 {
		t.Errorf("run intervals = %d, want 5", got)
	}
	if a.Run.AvgCadence != nil {
		t.Errorf("Run.AvgCadence = %v, want nil", *a.Run.AvgCadence)
	}
}

func TestDetectIntervals_NotApplicable(t *testing.T) {
	points := steadyRun(600, 2000, 150)
	cum, _ := CumulativeDistances(points)

	_, err := DetectIntervals(points, cum, DefaultCadencePlausibilityFloor, DefaultIntervalConfig())
	if !errors.Is(err, ErrSegmentationNotApplicable) {
		t.Errorf("error = %v, want ErrSegmentationNotApplicable", err)
	}
}

func TestDetectIntervals_NoSignal(t *testing.T) {
	points := steadyRun(600, 2000, 150)
	for i := range points {
		points[i].Speed = nil
	}
	cum, _ := CumulativeDistances(points)

	_, err := DetectIntervals(points, cum, DefaultCadencePlausibilityFloor, DefaultIntervalConfig())
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("error = %v, want ErrInsufficientData", err)
	}
}

func TestDetectIntervals_Deterministic(t *testing.T) {
	phases := runWalkRepeats(5, runBlock, walkBlock)
	a, err := detect(t, phases)
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}
	b, err := detect(t, phases)
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("DetectIntervals() is not deterministic")
	}
}

func TestValleyThreshold(t *testing.T) {
	cfg := DefaultIntervalConfig()

	t.Run("bimodal", func(t *testing.T) {
		var values []float64
		for i := 0; i < 100; i++ {
			values = append(values, 170, 80)
		}
		got, err := ValleyThreshold(values, cfg)
		if err != nil {
			t.Fatalf("ValleyThreshold() error = %v", err)
		}
		if !approxEqual(got, 125, 1e-9) {
			t.Errorf("ValleyThreshold() = %v, want 125", got)
		}
	})

	t.Run("constant", func(t *testing.T) {
		_, err := ValleyThreshold([]float64{160, 160, 160}, cfg)
		if !errors.Is(err, ErrSegmentationNotApplicable) {
			t.Errorf("error = %v, want ErrSegmentationNotApplicable", err)
		}
	})

	t.Run("uniform spread", func(t *testing.T) {
		var values []float64
		for i := 0; i < 200; i++ {
			values = append(values, 100+float64(i)*0.5)
		}
		_, err := ValleyThreshold(values, cfg)
		if !errors.Is(err, ErrSegmentationNotApplicable) {
			t.Errorf("error = %v, want ErrSegmentationNotApplicable", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ValleyThreshold(nil, cfg)
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("error = %v, want ErrInsufficientData", err)
		}
	})
}

func TestDetectIntervals_StandingRecovery(t *testing.T) {
	rest := phaseBlock{seconds: 30, speed: 0, hr: 140, standing: true}

	a, err := detect(t, runWalkRepeats(5, phaseBlock{seconds: 60, cadence: 170, speed: 3.5, hr: 165}, rest))
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}
	if a.Signal != SignalCadence {
		t.Errorf("Signal = %q, want cadence", a.Signal)
	}
	if a.HalfStepCorrected {
		t.Error("HalfStepCorrected = true, want false")
	}
	if !approxEqual(a.Threshold, 85, 1e-9) {
		t.Errorf("Threshold = %v, want 85", a.Threshold)
	}
	if a.Run.Count != 5 || a.Recovery.Count != 4 {
		t.Errorf("phase counts = %d/%d, want 5/4", a.Run.Count, a.Recovery.Count)
	}
	if last := a.Intervals[len(a.Intervals)-1]; last.Phase != PhaseCooldown || last.Duration != 30 {
		t.Errorf("last interval = %q %vs, want cooldown 30s", last.Phase, last.Duration)
	}
	if a.Run.AvgCadence == nil || *a.Run.AvgCadence != 170 {
		t.Errorf("Run.AvgCadence = %v, want 170", a.Run.AvgCadence)
	}
	if a.Recovery.Distance != 0 {
		t.Errorf("Recovery.Distance = %v, want 0", a.Recovery.Distance)
	}
}

func TestDetectIntervals_ShortWalksWithoutHeartRate(t *testing.T) {
	run := phaseBlock{seconds: 60, cadence: 170, speed: 3.5}
	walk := phaseBlock{seconds: 30, cadence: 80, speed: 1.2}

	a, err := detect(t, runWalkRepeats(5, run, walk))
	if err != nil {
		t.Fatalf("DetectIntervals() error = %v", err)
	}
	if a.HalfStepCorrected {
		t.Error("HalfStepCorrected = true, want false")
	}
	if !approxEqual(a.Threshold, 125, 1e-9) {
		t.Errorf("Threshold = %v, want 125", a.Threshold)
	}
	if a.Run.Count != 5 || a.Recovery.Count != 4 {
		t.Errorf("phase counts = %d/%d, want 5/4", a.Run.Count, a.Recovery.Count)
	}

	if a.Run.AvgHR != nil || a.Recovery.AvgHR != nil {
		t.Errorf("phase HR = %v/%v, want nil", a.Run.AvgHR, a.Recovery.AvgHR)
	}
	if a.Run.AvgCadence == nil || *a.Run.AvgCadence != 170 {
		t.Errorf("Run.AvgCadence = %v, want 170", a.Run.AvgCadence)
	}
	if a.Recovery.AvgCadence == nil || *a.Recovery.AvgCadence != 80 {
		t.Errorf("Recovery.AvgCadence = %v, want 80", a.Recovery.AvgCadence)
	}

	for i, iv := range a.Intervals {
		if iv.AvgHR != nil {
			t.Errorf("intervals[%d].AvgHR = %v, want nil", i, *iv.AvgHR)
		}
		if iv.Pace == nil || iv.AvgSpeed == nil || iv.AvgCadence == nil {
			t.Errorf("intervals[%d] missing pace, speed or cadence", i)
		}
	}
}

func TestCorrectHalfStep_IgnoresStandingSamples(t *testing.T) {
	values := []float64{170, 170, 0, 0, 0}
	out, corrected := CorrectHalfStep(values, DefaultCadencePlausibilityFloor)
	if corrected || !reflect.DeepEqual(out, values) {
		t.Errorf("CorrectHalfStep() = %v, %v, want unchanged", out, corrected)
	}

	halved := []float64{85, 85, 0, 0}
	out, corrected = CorrectHalfStep(halved, DefaultCadencePlausibilityFloor)
	if !corrected {
		t.Fatal("expected correction")
	}
	if want := []float64{170, 170, 0, 0}; !reflect.DeepEqual(out, want) {
		t.Errorf("CorrectHalfStep() = %v, want %v", out, want)
	}

	if out, corrected := CorrectHalfStep([]float64{0, 0}, DefaultCadencePlausibilityFloor); corrected || !reflect.DeepEqual(out, []float64{0, 0}) {
		t.Errorf("CorrectHalfStep(all zero) = %v, %v", out, corrected)
	}
}
