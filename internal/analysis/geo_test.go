package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"runlog/internal/store"
)

func TestHaversine(t *testing.T) {
	oneDegree := 2 * math.Pi * EarthRadiusMeters / 360

	tests := []struct {
		name string
		a, b Coordinate
		want float64
		tol  float64
	}{
		{"same point", Coordinate{40.4, -3.7}, Coordinate{40.4, -3.7}, 0, 1e-9},
		{"one degree of latitude", Coordinate{0, 0}, Coordinate{1, 0}, oneDegree, 0.01},
		{"one degree of longitude at equator", Coordinate{0, 0}, Coordinate{0, 1}, oneDegree, 0.01},
		{"antipodal", Coordinate{0, 0}, Coordinate{0, 180}, math.Pi * EarthRadiusMeters, 0.01},
		{"symmetric", Coordinate{1, 0}, Coordinate{0, 0}, oneDegree, 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Haversine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Haversine() error = %v", err)
			}
			if !approxEqual(got, tt.want, tt.tol) {
				t.Errorf("Haversine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHaversine_InvalidCoordinate(t *testing.T) {
	tests := []Coordinate{
		{91, 0},
		{-90.5, 0},
		{0, 180.1},
		{0, -181},
		{math.NaN(), 0},
	}
	for _, c := range tests {
		if _, err := Haversine(Coordinate{0, 0}, c); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("Haversine(%v) error = %v, want ErrInvalidCoordinate", c, err)
		}
	}
}

func gpsPoint(sec int, lat, lon float64) store.Trackpoint {
	return store.Trackpoint{
		Time: testStart.Add(time.Duration(sec) * time.Second),
		Lat:  floatPtr(lat),
		Lon:  floatPtr(lon),
	}
}

func TestCumulativeDistances(t *testing.T) {
	metersPerMilliDeg := 2 * math.Pi * EarthRadiusMeters / 360 / 1000

	t.Run("device distance is rebased to zero", func(t *testing.T) {
		points := steadyRun(10, 100, 0)
		for i := range points {
			*points[i].Distance += 500
		}
		cum, invalid := CumulativeDistances(points)
		if invalid != 0 {
			t.Errorf("invalid = %d, want 0", invalid)
		}
		if cum[0] != 0 || !approxEqual(cum[10], 100, 1e-9) {
			t.Errorf("cum = %v, want 0..100", cum)
		}
	})

	t.Run("gps fixes are summed", func(t *testing.T) {
		points := []store.Trackpoint{
			gpsPoint(0, 0, 0),
			gpsPoint(1, 0.001, 0),
			gpsPoint(2, 0.002, 0),
		}
		cum, _ := CumulativeDistances(points)
		if !approxEqual(cum[2], 2*metersPerMilliDeg, 1e-6) {
			t.Errorf("cum[2] = %v, want %v", cum[2], 2*metersPerMilliDeg)
		}
	})

	t.Run("missing position inherits without speed", func(t *testing.T) {
		points := []store.Trackpoint{
			gpsPoint(0, 0, 0),
			gpsPoint(1, 0.001, 0),
			{Time: testStart.Add(2 * time.Second)},
		}
		cum, _ := CumulativeDistances(points)
		if cum[2] != cum[1] {
			t.Errorf("cum[2] = %v, want %v", cum[2], cum[1])
		}
	})

	t.Run("missing position integrates speed", func(t *testing.T) {
		points := []store.Trackpoint{
			{Time: testStart, Speed: floatPtr(3)},
			{Time: testStart.Add(2 * time.Second), Speed: floatPtr(3)},
			{Time: testStart.Add(4 * time.Second), Speed: floatPtr(2.5)},
		}
		cum, _ := CumulativeDistances(points)
		want := []float64{0, 6, 11}
		for i := range want {
			if !approxEqual(cum[i], want[i], 1e-9) {
				t.Errorf("cum[%d] = %v, want %v", i, cum[i], want[i])
			}
		}
	})

	t.Run("invalid coordinate inherits and is counted", func(t *testing.T) {
		points := []store.Trackpoint{
			gpsPoint(0, 0, 0),
			gpsPoint(1, 0.001, 0),
			gpsPoint(2, 95, 0),
			gpsPoint(3, 0.002, 0),
		}
		cum, invalid := CumulativeDistances(points)
		if invalid != 1 {
			t.Errorf("invalid = %d, want 1", invalid)
		}
		if cum[2] != cum[1] {
			t.Errorf("cum[2] = %v, want inherited %v", cum[2], cum[1])
		}
		if !approxEqual(cum[3], 2*metersPerMilliDeg, 1e-6) {
			t.Errorf("cum[3] = %v, want %v", cum[3], 2*metersPerMilliDeg)
		}
	})

	t.Run("non-decreasing and same length", func(t *testing.T) {
		points := []store.Trackpoint{
			gpsPoint(0, 40, -3),
			{Time: testStart.Add(time.Second), Speed: floatPtr(2)},
			gpsPoint(2, 40.0001, -3),
			{Time: testStart.Add(3 * time.Second)},
			gpsPoint(4, 40.0002, -3.0001),
			gpsPoint(5, 40.0002, -3.0001),
		}
		cum, _ := CumulativeDistances(points)
		if len(cum) != len(points) {
			t.Fatalf("len(cum) = %d, want %d", len(cum), len(points))
		}
		for i := 1; i < len(cum); i++ {
			if cum[i] < cum[i-1] {
				t.Errorf("cum[%d] = %v < cum[%d] = %v", i, cum[i], i-1, cum[i-1])
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		cum, invalid := CumulativeDistances(nil)
		if len(cum) != 0 || invalid != 0 {
			t.Errorf("CumulativeDistances(nil) = %v, %d", cum, invalid)
		}
	})
}
