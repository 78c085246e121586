package analysis

import (
	"fmt"
	"math"

	"runlog/internal/store"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distance
const EarthRadiusMeters = 6371000.0

// Coordinate is a WGS84 position in degrees
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate is within latitude/longitude range
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Haversine returns the great-circle distance in meters between a and b
func Haversine(a, b Coordinate) (float64, error) {
	if !a.Valid() {
		return 0, fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, a.Lat, a.Lon)
	}
	if !b.Valid() {
		return 0, fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, b.Lat, b.Lon)
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h))), nil
}

// positionOf returns the trackpoint coordinate, if it has one
func positionOf(p store.Trackpoint) (Coordinate, bool) {
	if !p.HasPosition() {
		return Coordinate{}, false
	}
	return Coordinate{Lat: *p.Lat, Lon: *p.Lon}, true
}

// CumulativeDistances returns the distance from the first point to every point, in meters.
// Device-reported distances are used when every point carries one. Otherwise the
// distance is summed from consecutive GPS fixes; points without a fix add speed × Δt
// when speed is known and inherit the previous value when it is not. Points with an
// out-of-range coordinate inherit the previous value and are counted in invalid.
func CumulativeDistances(points []store.Trackpoint) (cum []float64, invalid int) {
	cum = make([]float64, len(points))
	if len(points) == 0 {
		return cum, 0
	}

	if allHaveDistance(points) {
		base := *points[0].Distance
		for i, p := range points {
			cum[i] = *p.Distance - base
		}
		return cum, 0
	}

	var lastFix *Coordinate
	prevHadFix := false
	integrated := false // speed was integrated since lastFix

	for i, p := range points {
		if i > 0 {
			cum[i] = cum[i-1]
		}

		c, ok := positionOf(p)
		if ok && !c.Valid() {
			invalid++
			prevHadFix = false
			continue
		}

		if i == 0 {
			if ok {
				lastFix = &c
				prevHadFix = true
			}
			continue
		}

		dt := p.Time.Sub(points[i-1].Time).Seconds()

		switch {
		case ok && prevHadFix:
			d, _ := Haversine(*lastFix, c)
			cum[i] += d
		case p.Speed != nil && *p.Speed >= 0 && dt > 0:
			cum[i] += *p.Speed * dt
			integrated = true
		case ok && lastFix != nil && !integrated:
			// Fix reacquired after a gap with nothing to integrate
			d, _ := Haversine(*lastFix, c)
			cum[i] += d
		}

		if ok {
			lastFix = &c
			integrated = false
		}
		prevHadFix = ok
	}

	return cum, invalid
}

func allHaveDistance(points []store.Trackpoint) bool {
	for _, p := range points {
		if p.Distance == nil {
			return false
		}
	}
	return true
}

// countPositioned returns how many points carry a coordinate pair
func countPositioned(points []store.Trackpoint) int {
	n := 0
	for _, p := range points {
		if p.HasPosition() {
			n++
		}
	}
	return n
}
