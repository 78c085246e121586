package analysis

import (
	"fmt"
	"slices"
)

// Config holds the tunable parameters of every analysis step
type Config struct {
	ZoneBoundaries               ZoneBoundaries
	ReferenceDistances           []float64 // meters
	SplitDistance                float64   // meters
	SmoothingBlockSeconds        int
	CadencePlausibilityFloor     float64 // spm
	MaxInvalidCoordinateFraction float64
	Intervals                    IntervalConfig
}

// IntervalConfig tunes run/recovery detection
type IntervalConfig struct {
	HistogramBins        int
	MinPeakFraction      float64 // share of samples a histogram peak must hold
	ValleyDepth          float64 // valley count must be <= this share of the smaller peak
	SignalCoverage       float64 // share of points that must carry the signal
	MinPhaseSeconds      float64 // shorter spans merge into their neighbour
	ProgressionTolerance float64 // relative pace slope per interval treated as stable
}

// Default analysis parameters
const (
	DefaultSplitDistance                = 1000.0
	DefaultSmoothingBlockSeconds        = 30
	DefaultCadencePlausibilityFloor     = 120.0
	DefaultMaxInvalidCoordinateFraction = 0.5
)

// DefaultReferenceDistances are the record distances in meters
var DefaultReferenceDistances = []float64{1000, 3000, 5000, 10000, 21097.5, 42195}

// DefaultZoneBoundaries are the lower BPM bounds of Z1..Z5
var DefaultZoneBoundaries = ZoneBoundaries{0, 120, 140, 160, 175}

// DefaultConfig returns the default analysis configuration
func DefaultConfig() Config {
	return Config{
		ZoneBoundaries:               DefaultZoneBoundaries,
		ReferenceDistances:           slices.Clone(DefaultReferenceDistances),
		SplitDistance:                DefaultSplitDistance,
		SmoothingBlockSeconds:        DefaultSmoothingBlockSeconds,
		CadencePlausibilityFloor:     DefaultCadencePlausibilityFloor,
		MaxInvalidCoordinateFraction: DefaultMaxInvalidCoordinateFraction,
		Intervals:                    DefaultIntervalConfig(),
	}
}

// DefaultIntervalConfig returns the default interval detection parameters
func DefaultIntervalConfig() IntervalConfig {
	return IntervalConfig{
		HistogramBins:        20,
		MinPeakFraction:      0.05,
		ValleyDepth:          0.5,
		SignalCoverage:       0.5,
		MinPhaseSeconds:      10,
		ProgressionTolerance: 0.01,
	}
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if err := c.ZoneBoundaries.Validate(); err != nil {
		return err
	}
	for _, d := range c.ReferenceDistances {
		if d <= 0 {
			return fmt.Errorf("reference distance must be positive, got %v", d)
		}
	}
	if c.SplitDistance <= 0 {
		return fmt.Errorf("split distance must be positive, got %v", c.SplitDistance)
	}
	if c.SmoothingBlockSeconds <= 0 {
		return fmt.Errorf("smoothing block must be positive, got %d", c.SmoothingBlockSeconds)
	}
	if c.CadencePlausibilityFloor <= 0 {
		return fmt.Errorf("cadence plausibility floor must be positive, got %v", c.CadencePlausibilityFloor)
	}
	if c.MaxInvalidCoordinateFraction < 0 || c.MaxInvalidCoordinateFraction > 1 {
		return fmt.Errorf("max invalid coordinate fraction must be within [0, 1], got %v", c.MaxInvalidCoordinateFraction)
	}
	return c.Intervals.Validate()
}

// Validate checks that interval parameters are usable
func (c IntervalConfig) Validate() error {
	if c.HistogramBins < 3 {
		return fmt.Errorf("histogram needs at least 3 bins, got %d", c.HistogramBins)
	}
	if c.MinPeakFraction < 0 || c.MinPeakFraction >= 1 {
		return fmt.Errorf("min peak fraction must be within [0, 1), got %v", c.MinPeakFraction)
	}
	if c.ValleyDepth <= 0 || c.ValleyDepth >= 1 {
		return fmt.Errorf("valley depth must be within (0, 1), got %v", c.ValleyDepth)
	}
	if c.SignalCoverage <= 0 || c.SignalCoverage > 1 {
		return fmt.Errorf("signal coverage must be within (0, 1], got %v", c.SignalCoverage)
	}
	if c.MinPhaseSeconds < 0 {
		return fmt.Errorf("min phase seconds must not be negative, got %v", c.MinPhaseSeconds)
	}
	if c.ProgressionTolerance < 0 {
		return fmt.Errorf("progression tolerance must not be negative, got %v", c.ProgressionTolerance)
	}
	return nil
}
