package analysis

import (
	"fmt"
	"slices"

	"runlog/internal/store"
)

// Phase labels a contiguous part of a workout
type Phase string

const (
	PhaseWarmup   Phase = "warmup"
	PhaseRun      Phase = "run"
	PhaseRecovery Phase = "recovery"
	PhaseCooldown Phase = "cooldown"
)

// Signal names the trackpoint channel used for segmentation
type Signal string

const (
	SignalCadence Signal = "cadence"
	SignalSpeed   Signal = "speed"
)

// Progression describes how run-interval pace evolves across the session
type Progression string

const (
	ProgressionAccelerating Progression = "accelerating"
	ProgressionDecelerating Progression = "decelerating"
	ProgressionStable       Progression = "stable"
)

// Interval is one detected phase
type Interval struct {
	Phase       Phase    `json:"phase"`
	Ordinal     int      `json:"ordinal"` // 1-based within run or recovery, 0 otherwise
	StartIndex  int      `json:"start_index"`
	EndIndex    int      `json:"end_index"`
	StartOffset float64  `json:"start_offset_s"`
	Duration    float64  `json:"duration_s"`
	Distance    float64  `json:"distance_m"`
	Pace        *float64 `json:"pace_min_km"`
	PaceDelta   *float64 `json:"pace_delta_min_km,omitempty"` // run only, vs mean run pace
	AvgHR       *float64 `json:"avg_hr"`
	AvgCadence  *float64 `json:"avg_cadence"`
	AvgSpeed    *float64 `json:"avg_speed_ms"`
}

// PhaseStats aggregates every interval of one phase
type PhaseStats struct {
	Count      int      `json:"count"`
	Duration   float64  `json:"duration_s"`
	Distance   float64  `json:"distance_m"`
	Pace       *float64 `json:"pace_min_km"`
	AvgHR      *float64 `json:"avg_hr"`
	AvgCadence *float64 `json:"avg_cadence"`
	AvgSpeed   *float64 `json:"avg_speed_ms"`
}

// IntervalAnalysis is the run/recovery decomposition of a workout
type IntervalAnalysis struct {
	Signal            Signal       `json:"signal"`
	Threshold         float64      `json:"threshold"`
	HalfStepCorrected bool         `json:"half_step_corrected"`
	Intervals         []Interval   `json:"intervals"`
	Run               PhaseStats   `json:"run"`
	Recovery          PhaseStats   `json:"recovery"`
	Progression       *Progression `json:"progression"`
	ProgressionSlope  *float64     `json:"progression_slope,omitempty"` // min/km per interval
}

// RunIntervals returns only the run phases
func (a *IntervalAnalysis) RunIntervals() []Interval {
	var runs []Interval
	for _, iv := range a.Intervals {
		if iv.Phase == PhaseRun {
			runs = append(runs, iv)
		}
	}
	return runs
}

// span is a run of same-label trackpoints [start, end]
type span struct {
	phase      Phase
	start, end int
}

// DetectIntervals splits a workout into warmup, alternating run and recovery
// phases, and cooldown. It returns ErrInsufficientData when neither cadence nor
// speed covers enough points and ErrSegmentationNotApplicable when the signal
// does not separate into two effort levels.
func DetectIntervals(points []store.Trackpoint, cum []float64, cadenceFloor float64, cfg IntervalConfig) (*IntervalAnalysis, error) {
	if len(points) < 2 || len(cum) != len(points) {
		return nil, fmt.Errorf("intervals: %w: need at least 2 points", ErrInsufficientData)
	}

	values, signal, err := selectSignal(points, cfg.SignalCoverage)
	if err != nil {
		return nil, err
	}

	corrected := false
	if signal == SignalCadence {
		values, corrected = CorrectHalfStep(values, cadenceFloor)
	}

	threshold, err := ValleyThreshold(values, cfg)
	if err != nil {
		return nil, err
	}

	offsets := timeOffsets(points)
	spans := segment(values, threshold)
	spans = absorbShortSpans(spans, offsets, cfg.MinPhaseSeconds)
	if !hasPhase(spans, PhaseRun) || !hasPhase(spans, PhaseRecovery) {
		return nil, fmt.Errorf("intervals: %w: single phase after merging", ErrSegmentationNotApplicable)
	}
	labelWarmupCooldown(spans)

	cadenceScale := 1.0
	if corrected {
		cadenceScale = 2
	}

	analysis := &IntervalAnalysis{
		Signal:            signal,
		Threshold:         threshold,
		HalfStepCorrected: corrected,
	}

	runOrd, recOrd := 0, 0
	for i, s := range spans {
		iv := buildInterval(points, cum, offsets, spans, i, cadenceScale)
		switch s.phase {
		case PhaseRun:
			runOrd++
			iv.Ordinal = runOrd
		case PhaseRecovery:
			recOrd++
			iv.Ordinal = recOrd
		}
		analysis.Intervals = append(analysis.Intervals, iv)
	}

	analysis.Run = phaseStats(points, spans, analysis.Intervals, PhaseRun, cadenceScale)
	analysis.Recovery = phaseStats(points, spans, analysis.Intervals, PhaseRecovery, cadenceScale)
	labelProgression(analysis, cfg.ProgressionTolerance)

	return analysis, nil
}

// selectSignal picks cadence when enough points carry it, otherwise speed.
// Only missing readings are gaps; a zero cadence is standing still. Gaps are
// forward-filled and a leading gap takes the first valid value.
func selectSignal(points []store.Trackpoint, coverage float64) ([]float64, Signal, error) {
	cadence := func(p store.Trackpoint) (float64, bool) {
		if p.Cadence == nil || *p.Cadence < 0 {
			return 0, false
		}
		return float64(*p.Cadence), true
	}
	speed := func(p store.Trackpoint) (float64, bool) {
		if p.Speed == nil || *p.Speed < 0 {
			return 0, false
		}
		return *p.Speed, true
	}

	for _, c := range []struct {
		signal Signal
		get    func(store.Trackpoint) (float64, bool)
	}{
		{SignalCadence, cadence},
		{SignalSpeed, speed},
	} {
		if values, ok := fillSignal(points, c.get, coverage); ok {
			return values, c.signal, nil
		}
	}
	return nil, "", fmt.Errorf("intervals: %w: no cadence or speed signal", ErrInsufficientData)
}

func fillSignal(points []store.Trackpoint, get func(store.Trackpoint) (float64, bool), coverage float64) ([]float64, bool) {
	values := make([]float64, len(points))
	present := 0
	first := -1
	for i, p := range points {
		v, ok := get(p)
		if !ok {
			if i > 0 {
				values[i] = values[i-1]
			}
			continue
		}
		if first < 0 {
			first = i
		}
		values[i] = v
		present++
	}

	if present == 0 || float64(present) < coverage*float64(len(points)) {
		return nil, false
	}
	for i := 0; i < first; i++ {
		values[i] = values[first]
	}
	return values, true
}

// CorrectHalfStep doubles a cadence series whose mean over moving samples is
// below floor, which happens when a device reports steps for one leg. Zero
// readings do not count toward the mean. Already corrected series are returned
// unchanged. The input slice is not modified.
func CorrectHalfStep(values []float64, floor float64) ([]float64, bool) {
	var moving []float64
	for _, v := range values {
		if v > 0 {
			moving = append(moving, v)
		}
	}
	if len(moving) == 0 || mean(moving) >= floor {
		return values, false
	}
	doubled := make([]float64, len(values))
	for i, v := range values {
		doubled[i] = v * 2
	}
	return doubled, true
}

// ValleyThreshold estimates the value separating two effort levels. It builds a
// fixed-bin histogram, pairs the tallest peak with the next tallest peak that is
// separated from it by a valley at most ValleyDepth of the smaller peak, and
// returns the midpoint of the lowest bins between them.
func ValleyThreshold(values []float64, cfg IntervalConfig) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("intervals: %w: empty signal", ErrInsufficientData)
	}

	lo, hi := slices.Min(values), slices.Max(values)
	if hi <= lo {
		return 0, fmt.Errorf("intervals: %w: constant signal", ErrSegmentationNotApplicable)
	}

	bins := cfg.HistogramBins
	width := (hi - lo) / float64(bins)
	counts := make([]int, bins)
	for _, v := range values {
		idx := int((v - lo) / width)
		counts[min(max(idx, 0), bins-1)]++
	}

	minCount := cfg.MinPeakFraction * float64(len(values))
	var peaks []int
	for i, c := range counts {
		if c == 0 || float64(c) < minCount {
			continue
		}
		if (i == 0 || c > counts[i-1]) && (i == bins-1 || c >= counts[i+1]) {
			peaks = append(peaks, i)
		}
	}
	if len(peaks) < 2 {
		return 0, fmt.Errorf("intervals: %w: unimodal distribution", ErrSegmentationNotApplicable)
	}

	// Tallest first, lower bin wins ties
	slices.SortStableFunc(peaks, func(a, b int) int { return counts[b] - counts[a] })

	top := peaks[0]
	for _, other := range peaks[1:] {
		left, right := min(top, other), max(top, other)
		if right-left < 2 {
			continue
		}

		valley := slices.Min(counts[left+1 : right])
		smaller := min(counts[top], counts[other])
		if float64(valley) > cfg.ValleyDepth*float64(smaller) {
			continue
		}

		first, last := -1, -1
		for i := left + 1; i < right; i++ {
			if counts[i] == valley {
				if first < 0 {
					first = i
				}
				last = i
			}
		}
		lower := lo + float64(first)*width
		upper := lo + float64(last+1)*width
		return (lower + upper) / 2, nil
	}

	return 0, fmt.Errorf("intervals: %w: no clear valley between peaks", ErrSegmentationNotApplicable)
}

// segment labels each value against threshold and merges equal neighbours
func segment(values []float64, threshold float64) []span {
	var spans []span
	for i, v := range values {
		phase := PhaseRecovery
		if v > threshold {
			phase = PhaseRun
		}
		if len(spans) > 0 && spans[len(spans)-1].phase == phase {
			spans[len(spans)-1].end = i
			continue
		}
		spans = append(spans, span{phase: phase, start: i, end: i})
	}
	return spans
}

// spanDuration runs from the span's first sample to the next span's first sample.
// The final span ends one sample period after its last point.
func spanDuration(spans []span, i int, offsets []float64) float64 {
	s := spans[i]
	if i+1 < len(spans) {
		return offsets[spans[i+1].start] - offsets[s.start]
	}
	return offsets[s.end] - offsets[s.start] + lastSampleSeconds
}

// absorbShortSpans folds spans shorter than minSeconds into their predecessor
// (or successor for the first span) until every span is long enough
func absorbShortSpans(spans []span, offsets []float64, minSeconds float64) []span {
	for len(spans) > 1 {
		short := -1
		for i := range spans {
			if spanDuration(spans, i, offsets) < minSeconds {
				short = i
				break
			}
		}
		if short < 0 {
			break
		}

		if short == 0 {
			spans[1].start = spans[0].start
			spans = spans[1:]
		} else {
			spans[short-1].end = spans[short].end
			spans = slices.Delete(spans, short, short+1)
			// Predecessor may now touch a span of its own phase
			if short < len(spans) && spans[short].phase == spans[short-1].phase {
				spans[short-1].end = spans[short].end
				spans = slices.Delete(spans, short, short+1)
			}
		}
	}
	return spans
}

func hasPhase(spans []span, phase Phase) bool {
	for _, s := range spans {
		if s.phase == phase {
			return true
		}
	}
	return false
}

// labelWarmupCooldown relabels a leading or trailing recovery span
func labelWarmupCooldown(spans []span) {
	if len(spans) < 2 {
		return
	}
	if spans[0].phase == PhaseRecovery {
		spans[0].phase = PhaseWarmup
	}
	if last := len(spans) - 1; spans[last].phase == PhaseRecovery {
		spans[last].phase = PhaseCooldown
	}
}

func buildInterval(points []store.Trackpoint, cum, offsets []float64, spans []span, i int, cadenceScale float64) Interval {
	s := spans[i]
	dur := spanDuration(spans, i, offsets)
	endDist := cum[s.end]
	if i+1 < len(spans) {
		endDist = cum[spans[i+1].start]
	}
	dist := endDist - cum[s.start]

	iv := Interval{
		Phase:       s.phase,
		StartIndex:  s.start,
		EndIndex:    s.end,
		StartOffset: offsets[s.start],
		Duration:    dur,
		Distance:    dist,
		Pace:        paceMinPerKm(dur, dist),
	}
	if dur > 0 {
		v := dist / dur
		iv.AvgSpeed = &v
	}

	hr, cad := meanHRAndCadence(points[s.start : s.end+1])
	iv.AvgHR = hr
	if cad != nil {
		v := *cad * cadenceScale
		iv.AvgCadence = &v
	}
	return iv
}

func phaseStats(points []store.Trackpoint, spans []span, intervals []Interval, phase Phase, cadenceScale float64) PhaseStats {
	var stats PhaseStats
	var members []store.Trackpoint
	for i, iv := range intervals {
		if iv.Phase != phase {
			continue
		}
		stats.Count++
		stats.Duration += iv.Duration
		stats.Distance += iv.Distance
		members = append(members, points[spans[i].start:spans[i].end+1]...)
	}
	if stats.Count == 0 {
		return stats
	}

	stats.Pace = paceMinPerKm(stats.Duration, stats.Distance)
	if stats.Duration > 0 {
		v := stats.Distance / stats.Duration
		stats.AvgSpeed = &v
	}
	hr, cad := meanHRAndCadence(members)
	stats.AvgHR = hr
	if cad != nil {
		v := *cad * cadenceScale
		stats.AvgCadence = &v
	}
	return stats
}

// labelProgression fits a least-squares line through run-interval pace by
// ordinal. Needs at least two run intervals with a pace.
func labelProgression(a *IntervalAnalysis, tolerance float64) {
	var xs, ys []float64
	for _, iv := range a.Intervals {
		if iv.Phase == PhaseRun && iv.Pace != nil {
			xs = append(xs, float64(iv.Ordinal))
			ys = append(ys, *iv.Pace)
		}
	}
	if len(ys) < 2 {
		return
	}

	meanPace := mean(ys)
	for i := range a.Intervals {
		iv := &a.Intervals[i]
		if iv.Phase == PhaseRun && iv.Pace != nil {
			d := *iv.Pace - meanPace
			iv.PaceDelta = &d
		}
	}

	slope := regressionSlope(xs, ys)
	progression := ProgressionStable
	switch rel := slope / meanPace; {
	case rel < -tolerance:
		progression = ProgressionAccelerating
	case rel > tolerance:
		progression = ProgressionDecelerating
	}
	a.Progression = &progression
	a.ProgressionSlope = &slope
}

func regressionSlope(xs, ys []float64) float64 {
	mx, my := mean(xs), mean(ys)
	var num, den float64
	for i := range xs {
		num += (xs[i] - mx) * (ys[i] - my)
		den += (xs[i] - mx) * (xs[i] - mx)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func timeOffsets(points []store.Trackpoint) []float64 {
	offsets := make([]float64, len(points))
	for i, p := range points {
		offsets[i] = p.Time.Sub(points[0].Time).Seconds()
	}
	return offsets
}
