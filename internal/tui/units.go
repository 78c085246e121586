package tui

import (
	"fmt"

	"runlog/internal/config"
	"runlog/internal/service"
)

// Units provides unit conversion and formatting based on user preferences.
// Distances come in meters and paces in seconds or minutes per kilometer.
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in meters to the user's preferred unit
func (u Units) FormatDistance(meters float64) string {
	return u.FormatDistanceValue(meters) + " " + u.DistanceLabel()
}

// FormatDistanceValue returns just the numeric distance value (no unit label)
func (u Units) FormatDistanceValue(meters float64) string {
	if u.IsMiles() {
		return fmt.Sprintf("%.2f", meters/service.MetersPerMile)
	}
	return fmt.Sprintf("%.2f", meters/service.MetersPerKm)
}

// PaceSeconds converts seconds per kilometer to seconds per preferred unit
func (u Units) PaceSeconds(secPerKm float64) float64 {
	if u.cfg.PaceUnit == "min/mi" {
		return secPerKm * service.MetersPerMile / service.MetersPerKm
	}
	return secPerKm
}

// FormatPace formats a pace in seconds per kilometer as "M:SS" per preferred unit
func (u Units) FormatPace(secPerKm float64) string {
	if secPerKm <= 0 {
		return "-"
	}
	return service.FormatPace(u.PaceSeconds(secPerKm))
}

// FormatPaceMinKm formats an optional pace in minutes per kilometer
func (u Units) FormatPaceMinKm(minPerKm *float64) string {
	if minPerKm == nil {
		return "-"
	}
	return u.FormatPace(*minPerKm * 60)
}

// FormatPaceWithUnit formats pace with the unit label
func (u Units) FormatPaceWithUnit(secPerKm float64) string {
	pace := u.FormatPace(secPerKm)
	if pace == "-" {
		return pace
	}
	return pace + "/" + u.paceDistanceLabel()
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.IsMiles() {
		return "mi"
	}
	return "km"
}

// PaceLabel returns the pace unit label ("min/mi" or "min/km")
func (u Units) PaceLabel() string {
	return "min/" + u.paceDistanceLabel()
}

func (u Units) paceDistanceLabel() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "mi"
	}
	return "km"
}

// ConvertPaceData converts chart data from min/km to min/mi if needed
func (u Units) ConvertPaceData(paceMinPerKm []float64) []float64 {
	if u.cfg.PaceUnit != "min/mi" {
		return paceMinPerKm
	}
	converted := make([]float64, len(paceMinPerKm))
	for i, p := range paceMinPerKm {
		converted[i] = p * service.MetersPerMile / service.MetersPerKm
	}
	return converted
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit == "mi"
}
