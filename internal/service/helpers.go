package service

import (
	"fmt"
	"math"
	"time"
)

// getMonday returns the Monday of the week containing t, at midnight
func getMonday(t time.Time) time.Time {
	daysFromMonday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	monday := t.AddDate(0, 0, -daysFromMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
}

// firstOfMonth returns midnight on the first day of t's month
func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// FormatDuration formats seconds as "H:MM:SS" or "M:SS"
func FormatDuration(seconds float64) string {
	total := int(math.Round(seconds))
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatPace formats a pace in seconds per unit as "M:SS"
func FormatPace(seconds float64) string {
	total := int(math.Round(seconds))
	if total < 0 {
		total = 0
	}
	mins := total / SecondsPerMinute
	secs := total % SecondsPerMinute
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// metersToKm converts distance from meters to kilometers
func metersToKm(meters float64) float64 {
	return meters / MetersPerKm
}

// MetersToMiles converts distance from meters to miles
func MetersToMiles(meters float64) float64 {
	return meters / MetersPerMile
}

// round1 rounds to one decimal place
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round3 rounds to three decimal places
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
