package service

const (
	// Unit conversions
	MetersPerKm      = 1000.0
	MetersPerMile    = 1609.34
	SecondsPerMinute = 60

	// Time windows
	EfficiencyHistoryDays = 365
	ZoneHistoryDays       = 90
	HeatmapDays           = 365
	WeeklyPeriods         = 20
	MonthlyPeriods        = 12

	// Pagination limits
	RecentWorkoutsLimit = 10
	DefaultListLimit    = 50
	MaxListLimit        = 500

	// Workers used by Reanalyze when the caller passes zero
	DefaultReanalyzeWorkers = 4
)

// Period types accepted by PeriodStats
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)
