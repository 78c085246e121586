package analysis

import "errors"

// Structural errors. These are returned by Analyze and abort the report.
var (
	// ErrEmptyWorkout is returned when a workout has no trackpoints
	ErrEmptyWorkout = errors.New("workout has no trackpoints")

	// ErrNonMonotonicTimestamp is returned when a trackpoint is earlier than its predecessor
	ErrNonMonotonicTimestamp = errors.New("trackpoint timestamps are not non-decreasing")

	// ErrNonMonotonicDistance is returned when device-reported distance decreases
	ErrNonMonotonicDistance = errors.New("cumulative distance is not non-decreasing")

	// ErrInvalidCoordinate is returned for latitude/longitude outside the valid range.
	// Analyze only surfaces it when too many points are affected.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidZoneBoundaries is returned when zone boundaries are not strictly ascending
	ErrInvalidZoneBoundaries = errors.New("zone boundaries must be strictly ascending")
)

// Degradation errors. Analyze drops the affected field and keeps going.
var (
	// ErrInsufficientData means a metric lacks the signal or points it needs
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoWindowSatisfiesDistance means a reference distance was never covered
	ErrNoWindowSatisfiesDistance = errors.New("no window satisfies distance")

	// ErrSegmentationNotApplicable means the interval signal is not bimodal
	ErrSegmentationNotApplicable = errors.New("interval segmentation not applicable")
)
